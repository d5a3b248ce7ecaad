package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/FACorreiaa/go-templui-session/internal/app/visitor"
	"github.com/FACorreiaa/go-templui-session/internal/mockapi"
	"github.com/FACorreiaa/go-templui-session/internal/pkg/config"
	"github.com/FACorreiaa/go-templui-session/internal/pkg/logger"
	"github.com/FACorreiaa/go-templui-session/internal/routes"
	"github.com/FACorreiaa/go-templui-session/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize logger
	level := logger.ParseLevel(cfg.LogLevel)
	zlog, err := logger.New(level, zap.String("service", cfg.Observability.ServiceName))
	if err != nil {
		return err
	}
	defer zlog.Sync()

	if level > zapcore.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize observability
	otelShutdown, appMetrics, err := server.InitObservability(cfg.Observability, zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			zlog.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	// Create server
	srv, err := server.New(cfg, zlog)
	if err != nil {
		return err
	}
	defer srv.Close()

	registry := visitor.NewRegistry(visitor.Config{
		BaseURL:  cfg.APIBaseURL(),
		Timeout:  cfg.API.Timeout,
		TTL:      cfg.Cache.VisitorTTL,
		NewStore: srv.StoreFactory(),
		Logger:   zlog,
		Metrics:  appMetrics,
	})
	srv.SetRegistry(registry)

	deps := routes.Dependencies{
		Registry: registry,
		Metrics:  appMetrics,
		Logger:   zlog,
	}
	if cfg.MockAPI.Enabled {
		deps.MockAPI, err = mockapi.New(mockapi.Config{Secret: cfg.MockAPI.JWTSecret, Logger: zlog})
		if err != nil {
			return err
		}
	}

	// Setup router
	srv.SetRouter(server.SetupRouter(cfg.Observability.ServiceName, deps))

	// Start pprof server (on separate port, not exposed publicly)
	pprofServer := server.StartPprofServer(cfg.Observability.PprofAddr, zlog)

	// Create HTTP server
	httpServer := srv.HTTPServer()

	// Setup graceful shutdown
	done := make(chan bool, 1)
	go server.GracefulShutdown(httpServer, zlog, done, pprofServer)

	// Start server
	zlog.Info("Server starting",
		zap.String("port", cfg.ServerPort),
		zap.String("api_base_url", cfg.APIBaseURL()),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("mock_api", cfg.MockAPI.Enabled),
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zlog.Error("Server error", zap.Error(err))
		return err
	}

	// Wait for graceful shutdown to complete
	<-done
	zlog.Info("Graceful shutdown complete")

	return nil
}
