package server

import (
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcadapter "user-directory/internal/adapter/grpc"
	"user-directory/internal/adapter/grpc/middleware"
	"user-directory/pkg/logger"
)

// SetupGRPC creates the gRPC server that carries the health service
func SetupGRPC(health *grpcadapter.HealthReporter, rateLimiter *middleware.RateLimiter) *grpc.Server {
	// Create gRPC server with request ID and rate limit interceptors
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			rateLimiter.UnaryInterceptor(),
		),
	)
	healthpb.RegisterHealthServer(grpcServer, health.Server())

	return grpcServer
}
