package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-templui-session/internal/app/domain/auth"
	"github.com/FACorreiaa/go-templui-session/internal/app/handlers"
	"github.com/FACorreiaa/go-templui-session/internal/app/middleware"
	"github.com/FACorreiaa/go-templui-session/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-templui-session/internal/app/visitor"
	"github.com/FACorreiaa/go-templui-session/internal/mockapi"
)

// Dependencies are the long-lived pieces the routes are built from.
type Dependencies struct {
	Registry *visitor.Registry
	Metrics  *metrics.AppMetrics
	// MockAPI is mounted under /api/auth when set.
	MockAPI *mockapi.Server
	Logger  *zap.Logger
}

type AppHandlers struct {
	Base *handlers.BaseHandler
	Auth *auth.AuthHandlers
}

func Setup(r *gin.Engine, deps Dependencies) {
	h := &AppHandlers{
		Base: handlers.NewBaseHandler(deps.Logger, deps.Metrics),
		Auth: auth.NewAuthHandlers(visitorService, deps.Logger),
	}
	setupRouter(r, h, deps)
}

func visitorService(c *gin.Context) (*auth.Service, bool) {
	v, ok := visitor.FromContext(c)
	if !ok {
		return nil, false
	}
	return v.Auth, true
}

func setupRouter(r *gin.Engine, h *AppHandlers, deps Dependencies) {
	r.GET("/healthz", h.Base.Health)

	// The fake API is called by the visitors' own API clients, so it stays
	// outside the visitor middleware.
	if deps.MockAPI != nil {
		deps.MockAPI.Register(r)
		deps.Logger.Info("Mock auth API mounted", zap.String("prefix", "/api/auth"))
	}

	app := r.Group("/")
	app.Use(middleware.NoStoreMiddleware(), deps.Registry.Middleware())
	{
		app.GET("/", h.Base.ShowHomePage)

		authGroup := app.Group("/auth")
		authGroup.POST("/login", h.Auth.LoginHandler)
		authGroup.POST("/logout", h.Auth.LogoutHandler)
		authGroup.GET("/session", h.Auth.SessionHandler)
	}
}
