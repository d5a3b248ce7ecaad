package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingSecret   = errors.New("MOCK_API_JWT_SECRET environment variable is required when the mock API is enabled")
	ErrInvalidBackend  = errors.New("CACHE_BACKEND must be one of memory, redis")
	ErrInvalidDuration = errors.New("invalid duration")
)

// Cache backends for per-visitor query caches.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type APIConfig struct {
	// BaseURL is prefixed to relative request paths. Empty means the shell's
	// own origin.
	BaseURL string
	Timeout time.Duration
}

type CacheConfig struct {
	Backend    string
	Redis      RedisConfig
	VisitorTTL time.Duration
}

type ObservabilityConfig struct {
	ServiceName  string
	MetricsAddr  string
	PprofAddr    string
	OTELEndpoint string
}

type MockAPIConfig struct {
	Enabled   bool
	JWTSecret string
	// Port is used by the standalone cmd/mockapi binary.
	Port string
}

type Config struct {
	ServerPort    string
	LogLevel      string
	API           APIConfig
	Cache         CacheConfig
	Observability ObservabilityConfig
	MockAPI       MockAPIConfig
}

func Load() (*Config, error) {
	apiTimeout, err := getDurationOrDefault("API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	visitorTTL, err := getDurationOrDefault("VISITOR_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}

	cfg := &Config{
		ServerPort: getEnvOrDefault("SERVER_PORT", "8091"),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "info"),
		API: APIConfig{
			BaseURL: strings.TrimRight(os.Getenv("API_BASE_URL"), "/"),
			Timeout: apiTimeout,
		},
		Cache: CacheConfig{
			Backend: strings.ToLower(getEnvOrDefault("CACHE_BACKEND", BackendMemory)),
			Redis: RedisConfig{
				Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
				Password: os.Getenv("REDIS_PASSWORD"),
				DB:       redisDB,
				Prefix:   getEnvOrDefault("REDIS_PREFIX", "query"),
			},
			VisitorTTL: visitorTTL,
		},
		Observability: ObservabilityConfig{
			ServiceName:  getEnvOrDefault("SERVICE_NAME", "loci-session"),
			MetricsAddr:  getEnvOrDefault("METRICS_ADDR", ":9092"),
			PprofAddr:    getEnvOrDefault("PPROF_ADDR", ":6060"),
			OTELEndpoint: getEnvOrDefault("OTEL_ENDPOINT", "otel-collector:4318"),
		},
		MockAPI: MockAPIConfig{
			Enabled:   getBoolOrDefault("MOCK_API_ENABLED", false),
			JWTSecret: os.Getenv("MOCK_API_JWT_SECRET"),
			Port:      getEnvOrDefault("MOCK_API_PORT", "8092"),
		},
	}

	if cfg.Cache.Backend != BackendMemory && cfg.Cache.Backend != BackendRedis {
		return nil, fmt.Errorf("%q: %w", cfg.Cache.Backend, ErrInvalidBackend)
	}
	if cfg.MockAPI.Enabled && cfg.MockAPI.JWTSecret == "" {
		return nil, ErrMissingSecret
	}

	return cfg, nil
}

// APIBaseURL returns the configured base URL, falling back to the shell's own
// listen address when none is set.
func (c *Config) APIBaseURL() string {
	if c.API.BaseURL != "" {
		return c.API.BaseURL
	}
	return "http://127.0.0.1:" + c.ServerPort
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s=%q: %w", key, raw, ErrInvalidDuration)
	}
	return d, nil
}
