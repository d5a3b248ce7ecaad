package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-templui-session/internal/mockapi"
	"github.com/FACorreiaa/go-templui-session/internal/pkg/config"
	"github.com/FACorreiaa/go-templui-session/internal/pkg/logger"
)

// Standalone fake of the remote auth API. Point API_BASE_URL of the web app
// at it to exercise cross-origin cookies.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	zl, err := logger.New(logger.ParseLevel(cfg.LogLevel), zap.String("service", "mockapi"))
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	secret := cfg.MockAPI.JWTSecret
	if secret == "" {
		secret = "dev-secret"
		zl.Warn("MOCK_API_JWT_SECRET not set, using an insecure development secret")
	}
	api, err := mockapi.New(mockapi.Config{Secret: secret, Logger: zl})
	if err != nil {
		zl.Fatal("Failed to create mock API", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	addr := ":" + cfg.MockAPI.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	zl.Info("Mock auth API listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zl.Fatal("Mock API stopped", zap.Error(err))
	}
}
