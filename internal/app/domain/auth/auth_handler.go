package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-templui-session/internal/app/components/banner"
	"github.com/FACorreiaa/go-templui-session/internal/pkg/apiclient"
)

// ServiceResolver finds the Service of the visitor behind a request.
type ServiceResolver func(c *gin.Context) (*Service, bool)

type AuthHandlers struct {
	serviceFor ServiceResolver
	logger     *zap.Logger
}

func NewAuthHandlers(serviceFor ServiceResolver, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		serviceFor: serviceFor,
		logger:     logger,
	}
}

func (h *AuthHandlers) service(c *gin.Context) *Service {
	svc, ok := h.serviceFor(c)
	if !ok {
		h.logger.Error("No auth service for request", zap.String("path", c.Request.URL.Path))
		c.AbortWithStatus(http.StatusInternalServerError)
		return nil
	}
	return svc
}

func (h *AuthHandlers) renderBanner(c *gin.Context, status int, target string, props banner.BannerProps) {
	c.Header("HX-Retarget", target)
	c.Header("HX-Reswap", "innerHTML")
	c.Status(status)
	if err := banner.Banner(props).Render(c.Request.Context(), c.Writer); err != nil {
		h.logger.Error("Failed to render banner", zap.Error(err))
	}
}

func redirectHome(c *gin.Context) {
	if c.GetHeader("HX-Request") == "" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.Header("HX-Redirect", "/")
	c.Status(http.StatusOK)
}

func (h *AuthHandlers) LoginHandler(c *gin.Context) {
	h.logger.Info("Login attempt",
		zap.String("method", c.Request.Method),
		zap.String("remote_addr", c.ClientIP()),
	)

	svc := h.service(c)
	if svc == nil {
		return
	}

	var creds Credentials
	if err := c.ShouldBind(&creds); err != nil || creds.Username == "" || creds.Password == "" {
		h.logger.Warn("Missing username or password")
		h.renderBanner(c, http.StatusBadRequest, "#login-error", banner.BannerProps{
			Type:        banner.BannerError,
			Message:     "Username and password are required",
			Dismissable: true,
			ID:          "login-required",
			AutoDismiss: 5,
		})
		return
	}

	if _, err := svc.Login(c.Request.Context(), creds); err != nil {
		message := defaultLoginMessage
		var loginErr *LoginError
		if errors.As(err, &loginErr) {
			message = loginErr.Message
		}
		// Only a rejection by the API is the visitor's fault.
		status, description := http.StatusUnauthorized, "Please check your credentials and try again"
		if code := apiclient.StatusOf(err); code == 0 || code >= http.StatusInternalServerError {
			status, description = http.StatusBadGateway, "The sign-in service is unavailable, please try again later"
		}
		h.logger.Warn("Login failed", zap.Int("status", status), zap.Error(err))
		h.renderBanner(c, status, "#login-error", banner.BannerProps{
			Type:        banner.BannerError,
			Message:     message,
			Description: description,
			Dismissable: true,
			ID:          "login-invalid",
			AutoDismiss: 5,
		})
		return
	}

	h.logger.Info("Successful login", zap.String("username", creds.Username))
	redirectHome(c)
}

func (h *AuthHandlers) LogoutHandler(c *gin.Context) {
	h.logger.Info("User logout")

	svc := h.service(c)
	if svc == nil {
		return
	}

	if err := svc.Logout(c.Request.Context()); err != nil {
		h.renderBanner(c, http.StatusBadGateway, "#session-error", banner.BannerProps{
			Type:        banner.BannerError,
			Message:     err.Error(),
			Description: "You are still signed in. Please try again.",
			Dismissable: true,
			ID:          "logout-failed",
			AutoDismiss: 8,
		})
		return
	}

	redirectHome(c)
}

// SessionHandler returns the derived session state as JSON.
func (h *AuthHandlers) SessionHandler(c *gin.Context) {
	svc := h.service(c)
	if svc == nil {
		return
	}

	st, err := svc.Load(c.Request.Context())
	if err != nil {
		h.logger.Warn("Session probe failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Session check failed", "state": st})
		return
	}
	c.JSON(http.StatusOK, st)
}
