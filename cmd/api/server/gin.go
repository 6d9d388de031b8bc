package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ginrouter "user-directory/internal/adapter/gin/router"
)

// SetupGinServer builds the REST API server. Outside development gin runs in
// release mode, which silences its route table dump.
func SetupGinServer(opts ginrouter.Options, addr string, development bool, l *zap.Logger) *http.Server {
	if !development {
		gin.SetMode(gin.ReleaseMode)
	}

	l.Info("Gin REST API configured",
		zap.String("address", addr),
		zap.String("mode", gin.Mode()),
	)

	return &http.Server{
		Addr:              addr,
		Handler:           ginrouter.SetupRouter(opts),
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          zap.NewStdLog(l.Named("http")),
	}
}
