package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-directory/cmd/api/infrastructure"
	"user-directory/internal/adapter/db/postgres"
	ginhandler "user-directory/internal/adapter/gin/handler"
	grpcadapter "user-directory/internal/adapter/grpc"
	"user-directory/internal/adapter/grpc/middleware"
	"user-directory/internal/adapter/repository/instrumented"
	"user-directory/internal/config"
	"user-directory/internal/usecase/user"
	redisclient "user-directory/pkg/redis"
)

const healthProbeInterval = 10 * time.Second

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client // nil when Redis is not configured
	Registry    *prometheus.Registry
	Repository  *postgres.UserRepoPG
	UserUC      *user.Usecase
	RateLimiter *middleware.RateLimiter // nil when rate limiting is off
	Health      *grpcadapter.HealthReporter
	GinHandler  *ginhandler.UserHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db

	if cfg.RateLimit.Enabled {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb
	}

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c.Repository = postgres.NewUserRepoPG(db, l)
	repo := instrumented.NewUserRepository(c.Repository, c.Registry, l)

	c.UserUC = user.New(repo, l)

	if c.RedisClient != nil {
		c.RateLimiter = middleware.NewRateLimiter(
			c.RedisClient.Client,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
				Enabled:           cfg.RateLimit.Enabled,
			},
			l,
		)
	}

	c.Health = grpcadapter.NewHealthReporter(c.Repository, healthProbeInterval, l)
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l, cfg.App.IsDevelopment())

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
