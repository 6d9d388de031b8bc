package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"user-directory/internal/adapter/gin/handler"
	"user-directory/internal/adapter/gin/middleware"
	grpcmiddleware "user-directory/internal/adapter/grpc/middleware"
	pkgerrors "user-directory/pkg/errors"
)

const healthTimeout = 2 * time.Second

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Options carries the dependencies of the HTTP router.
type Options struct {
	ServiceName string
	UserHandler *handler.UserHandler
	RateLimiter *grpcmiddleware.RateLimiter // nil disables rate limiting
	Health      HealthChecker
	Registry    *prometheus.Registry
	Logger      *zap.Logger
}

var usage = []string{
	"GET    /api/v1/users",
	"GET    /api/v1/users/{id}",
	"POST   /api/v1/users",
	"PUT    /api/v1/users/{id}",
	"DELETE /api/v1/users/{id}",
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(opts Options) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(opts.Logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(opts.Logger))
	router.Use(middleware.CORS())
	if opts.Registry != nil {
		router.Use(middleware.NewMetrics(opts.Registry).Middleware())
	}

	router.GET("/health", healthHandler(opts))
	if opts.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{Registry: opts.Registry})))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimiter(opts.RateLimiter))
	{
		users := v1.Group("/users")
		{
			users.POST("", opts.UserHandler.CreateUser)
			users.GET("", opts.UserHandler.ListUsers)
			users.GET("/:id", opts.UserHandler.GetUser)
			users.PUT("/:id", opts.UserHandler.UpdateUser)
			users.DELETE("/:id", opts.UserHandler.DeleteUser)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handler.ErrorResponse{
			Error: pkgerrors.CodeNotFound,
			Message: fmt.Sprintf("The %s request to %s is invalid. If you are attempting to UPDATE or DELETE, "+
				"ensure the user ID is appended to the URL (e.g., /api/v1/users/{id}).", c.Request.Method, c.Request.URL.RequestURI()),
			Details: usage,
		})
	})

	return router
}

func healthHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		database := "up"
		code := http.StatusOK

		if opts.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()

			if err := opts.Health.Ping(ctx); err != nil {
				opts.Logger.Warn("health check failed", zap.Error(err))
				database = "down"
				code = http.StatusServiceUnavailable
			}
		}

		status := "healthy"
		if code != http.StatusOK {
			status = "unhealthy"
		}
		c.JSON(code, gin.H{
			"status":   status,
			"service":  opts.ServiceName,
			"database": database,
		})
	}
}
