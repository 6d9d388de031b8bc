package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"user-directory/cmd/api/di"
	ginrouter "user-directory/internal/adapter/gin/router"
)

// Server holds the REST and gRPC listeners of the service.
type Server struct {
	Logger   *zap.Logger
	Gin      *http.Server
	GRPC     *grpc.Server
	grpcAddr string
}

// New builds both servers from the container.
func New(c *di.Container) *Server {
	opts := ginrouter.Options{
		ServiceName: c.Config.Logger.ServiceName,
		UserHandler: c.GinHandler,
		RateLimiter: c.RateLimiter,
		Health:      c.Repository,
		Registry:    c.Registry,
		Logger:      c.Logger,
	}

	return &Server{
		Logger:   c.Logger,
		Gin:      SetupGinServer(opts, ":"+c.Config.App.HTTPPort, c.Config.App.IsDevelopment(), c.Logger),
		GRPC:     SetupGRPC(c.Health, c.RateLimiter),
		grpcAddr: ":" + c.Config.App.GRPCPort,
	}
}

// Start serves REST and gRPC until both are shut down. When one listener
// fails the other is stopped too.
func (s *Server) Start() error {
	var lc net.ListenConfig
	lis, err := lc.Listen(context.Background(), "tcp", s.grpcAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.grpcAddr, err)
	}

	var g errgroup.Group

	g.Go(func() error {
		s.Logger.Info("gRPC server running", zap.String("address", s.grpcAddr))
		if err := s.GRPC.Serve(lis); err != nil {
			_ = s.Gin.Close()
			return fmt.Errorf("gRPC server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.Logger.Info("Gin REST API running", zap.String("address", s.Gin.Addr))
		if err := s.Gin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.GRPC.Stop()
			return fmt.Errorf("gin server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Shutdown drains in-flight HTTP requests and stops the gRPC server.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	s.Logger.Info("shutting down Gin server...")
	if err := s.Gin.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("gin shutdown: %w", err))
	}

	s.Logger.Info("shutting down gRPC server...")
	stopped := make(chan struct{})
	go func() {
		s.GRPC.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		s.GRPC.Stop()
		errs = append(errs, fmt.Errorf("gRPC shutdown: %w", ctx.Err()))
	}

	return errors.Join(errs...)
}
