package handlers

import (
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-templui-session/internal/app/domain/auth"
	"github.com/FACorreiaa/go-templui-session/internal/app/models"
	"github.com/FACorreiaa/go-templui-session/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-templui-session/internal/app/pages"
	"github.com/FACorreiaa/go-templui-session/internal/app/visitor"
)

type BaseHandler struct {
	Logger  *zap.Logger
	Metrics *metrics.AppMetrics
}

func NewBaseHandler(logger *zap.Logger, m *metrics.AppMetrics) *BaseHandler {
	return &BaseHandler{Logger: logger, Metrics: m}
}

// SessionState loads the visitor's session. A failed probe is logged and the
// last cached state is used instead.
func (h *BaseHandler) SessionState(c *gin.Context) auth.State {
	v, ok := visitor.FromContext(c)
	if !ok {
		return auth.State{}
	}
	st, err := v.Auth.Load(c.Request.Context())
	if err != nil {
		h.Logger.Warn("Session probe failed", zap.String("visitor_id", v.ID), zap.Error(err))
	}
	return st
}

func (h *BaseHandler) NewLayoutData(st auth.State, title, activeNav string, content templ.Component) models.LayoutTempl {
	return models.LayoutTempl{
		Title:     title,
		Session:   st,
		Content:   content,
		Nav:       models.NavFor(st),
		ActiveNav: activeNav,
	}
}

func (h *BaseHandler) Render(c *gin.Context, status int, component templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		h.Logger.Error("Failed to render component", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
}

func (h *BaseHandler) RenderPage(c *gin.Context, st auth.State, title, activeNav string, content templ.Component) {
	start := time.Now()
	layoutData := h.NewLayoutData(st, title, activeNav, content)
	h.Render(c, http.StatusOK, pages.LayoutPage(layoutData))
	h.Metrics.RecordRender(c.Request.Context(), activeNav, time.Since(start))
}

func (h *BaseHandler) ShowHomePage(c *gin.Context) {
	st := h.SessionState(c)
	h.RenderPage(c, st, "Home - Loci", "Home", pages.HomePage(st))
}

func (h *BaseHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
