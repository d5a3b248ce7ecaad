package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-templui-session/internal/app/visitor"
	"github.com/FACorreiaa/go-templui-session/internal/pkg/cache"
	"github.com/FACorreiaa/go-templui-session/internal/pkg/config"
)

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	redis    goredis.UniversalClient
	registry *visitor.Registry
	router   http.Handler
}

// New creates a new Server instance. With the redis cache backend it connects
// to Redis first.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
	}

	if cfg.Cache.Backend == config.BackendRedis {
		rc, err := s.setupRedis(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to setup redis: %w", err)
		}
		s.redis = rc
	}

	return s, nil
}

func (s *Server) setupRedis(ctx context.Context) (goredis.UniversalClient, error) {
	rcfg := s.cfg.Cache.Redis
	rc := goredis.NewClient(&goredis.Options{
		Addr:     rcfg.Addr,
		Password: rcfg.Password,
		DB:       rcfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		_ = rc.Close()
		return nil, err
	}
	s.logger.Info("Connected to Redis", zap.String("addr", rcfg.Addr), zap.Int("db", rcfg.DB))
	return rc, nil
}

// StoreFactory builds each visitor's query cache store for the configured
// backend. Redis stores are namespaced per visitor.
func (s *Server) StoreFactory() func(visitorID string) cache.Store {
	if s.redis == nil {
		return func(id string) cache.Store {
			return cache.NewMemoryStore("visitor:"+id, s.logger)
		}
	}
	prefix := s.cfg.Cache.Redis.Prefix
	return func(id string) cache.Store {
		return cache.NewRedisStore(s.redis, prefix+":"+id)
	}
}

// HTTPServer creates and configures the HTTP server
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.cfg.ServerPort,
		Handler:      s.router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.cfg.API.Timeout + 10*time.Second,
	}
}

// SetRouter sets the HTTP router/handler
func (s *Server) SetRouter(router http.Handler) {
	s.router = router
}

// SetRegistry hands the visitor registry to the server so Close releases it.
func (s *Server) SetRegistry(r *visitor.Registry) {
	s.registry = r
}

// GetLogger returns the logger instance
func (s *Server) GetLogger() *zap.Logger {
	return s.logger
}

// GetConfig returns the configuration
func (s *Server) GetConfig() *config.Config {
	return s.cfg
}

// Close releases every visitor, then closes the Redis client.
func (s *Server) Close() {
	if s.registry != nil {
		s.registry.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
}
