package api

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/internal/adapters/config"
	"github.com/hat3ck/cryptosense/pkg/logger"
)

// Server wraps the Echo HTTP server
type Server struct {
	echo *echo.Echo
	cfg  config.APIConfig
}

// NewServer creates the HTTP server and registers all routes
func NewServer(cfg config.APIConfig, handler *Handler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogging())

	handler.RegisterRoutes(e)

	return &Server{echo: e, cfg: cfg}
}

// Start blocks serving HTTP until Shutdown is called
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	logger.Info("HTTP server listening", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// requestLogging logs one line per request through the global logger
func requestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)

			return err
		}
	}
}
