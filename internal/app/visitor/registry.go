// Package visitor gives every browser its own API client, query cache and
// auth session, so one visitor's session cookies and cached queries never leak
// into another's.
package visitor

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-templui-session/internal/app/domain/auth"
	"github.com/FACorreiaa/go-templui-session/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-templui-session/internal/pkg/apiclient"
	"github.com/FACorreiaa/go-templui-session/internal/pkg/cache"
)

const (
	CookieName = "visitor_id"
	contextKey = "visitor"
)

type Visitor struct {
	ID      string
	API     *apiclient.Client
	Queries *cache.QueryClient
	Auth    *auth.Service

	stopListening func()
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
	// TTL is how long an idle visitor is kept. Defaults to 30 minutes.
	TTL time.Duration
	// NewStore builds the cache store of a new visitor. Defaults to an
	// in-memory store.
	NewStore     func(visitorID string) cache.Store
	SecureCookie bool
	Logger       *zap.Logger
	Metrics      *metrics.AppMetrics
}

type Registry struct {
	cfg      Config
	logger   *zap.Logger
	metrics  *metrics.AppMetrics
	visitors *gocache.Cache

	mu sync.Mutex
}

func NewRegistry(cfg Config) *Registry {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.NewStore == nil {
		logger := cfg.Logger
		cfg.NewStore = func(id string) cache.Store {
			return cache.NewMemoryStore("visitor:"+id, logger)
		}
	}

	r := &Registry{
		cfg:      cfg,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		visitors: gocache.New(cfg.TTL, cfg.TTL/2),
	}
	r.visitors.OnEvicted(func(id string, v any) {
		if vis, ok := v.(*Visitor); ok {
			r.release(vis)
		}
	})
	return r
}

// Middleware resolves the visitor of each request and stores it on the gin
// context.
func (r *Registry) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := r.ForRequest(c)
		if err != nil {
			r.logger.Error("Failed to set up visitor", zap.Error(err))
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(contextKey, v)
		c.Next()
	}
}

// FromContext returns the visitor stored by Middleware.
func FromContext(c *gin.Context) (*Visitor, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil, false
	}
	vis, ok := v.(*Visitor)
	return vis, ok
}

// ForRequest returns the visitor named by the request's cookie, creating one
// (and setting the cookie) when there is none. Ids the registry did not issue
// are never adopted. Each call restarts the idle TTL.
func (r *Registry) ForRequest(c *gin.Context) (*Visitor, error) {
	id, err := c.Cookie(CookieName)
	if err != nil || uuid.Validate(id) != nil {
		id = ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		if v, found := r.visitors.Get(id); found {
			r.visitors.SetDefault(id, v)
			return v.(*Visitor), nil
		}
	}

	id = uuid.NewString()
	v, err := r.create(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	r.visitors.SetDefault(id, v)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, id, 0, "/", "", r.cfg.SecureCookie, true)
	return v, nil
}

func (r *Registry) create(ctx context.Context, id string) (*Visitor, error) {
	l := r.logger.With(zap.String("visitor_id", id))

	api, err := apiclient.New(apiclient.Config{
		BaseURL:   r.cfg.BaseURL,
		Timeout:   r.cfg.Timeout,
		Transport: r.cfg.Transport,
		Logger:    l,
		Metrics:   r.metrics,
	})
	if err != nil {
		return nil, err
	}
	queries := cache.NewQueryClient(cache.Options{
		Store:   r.cfg.NewStore(id),
		Logger:  l,
		Metrics: r.metrics,
	})

	v := &Visitor{
		ID:      id,
		API:     api,
		Queries: queries,
		Auth:    auth.NewService(queries, api, l, r.metrics),
	}
	v.stopListening = v.Auth.OnSessionTerminated(func(ctx context.Context) {
		r.metrics.RecordSessionTerminated(ctx)
		l.Info("Session terminated")
	})

	r.metrics.VisitorAdded(ctx)
	l.Debug("Visitor created")
	return v, nil
}

func (r *Registry) release(v *Visitor) {
	ctx := context.Background()
	if v.stopListening != nil {
		v.stopListening()
	}
	if err := v.Queries.Clear(ctx); err != nil {
		r.logger.Warn("Failed to clear visitor cache", zap.String("visitor_id", v.ID), zap.Error(err))
	}
	r.metrics.VisitorRemoved(ctx)
	r.logger.Debug("Visitor released", zap.String("visitor_id", v.ID))
}

// Get returns a live visitor by ID without touching its TTL.
func (r *Registry) Get(id string) (*Visitor, bool) {
	v, found := r.visitors.Get(id)
	if !found {
		return nil, false
	}
	return v.(*Visitor), true
}

// Len is the number of live visitors.
func (r *Registry) Len() int {
	return r.visitors.ItemCount()
}

// Sweep releases visitors whose TTL has passed.
func (r *Registry) Sweep() {
	r.visitors.DeleteExpired()
}

// Close releases every visitor.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.visitors.Items() {
		r.visitors.Delete(id)
	}
}
