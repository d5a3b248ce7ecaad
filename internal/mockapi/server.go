// Package mockapi is a stand-in for the remote auth API, for local runs and
// tests. Sessions are HS256 JWTs in an HttpOnly cookie.
package mockapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const SessionCookie = "session"

var ErrMissingSecret = errors.New("mock API secret is required")

type Config struct {
	Secret   string
	TokenTTL time.Duration
	Accounts []Account
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Logger     *zap.Logger
}

type Server struct {
	accounts *accountStore
	tokens   tokenIssuer
	logger   *zap.Logger
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role"`
}

type sessionPayload struct {
	User   userPayload    `json:"user"`
	Member map[string]any `json:"member"`
}

func New(cfg Config) (*Server, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.Accounts == nil {
		cfg.Accounts = DefaultAccounts()
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	accounts, err := newAccountStore(cfg.Accounts, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &Server{
		accounts: accounts,
		tokens:   tokenIssuer{secret: []byte(cfg.Secret), ttl: cfg.TokenTTL},
		logger:   cfg.Logger,
	}, nil
}

// Register mounts the auth endpoints under /api/auth on r.
func (s *Server) Register(r gin.IRouter) {
	g := r.Group("/api/auth")
	g.GET("/user", s.session)
	g.POST("/user", s.session)
	g.POST("/login", s.login)
	g.POST("/logout", s.logout)
}

// Handler returns a standalone engine serving only the auth endpoints.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	s.Register(r)
	return r
}

func (s *Server) session(c *gin.Context) {
	a, ok := s.currentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, toPayload(a))
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
		return
	}

	a, ok := s.accounts.authenticate(req.Username, req.Password)
	if !ok {
		s.logger.Warn("Invalid login credentials", zap.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid username or password"})
		return
	}

	token, err := s.tokens.issue(a)
	if err != nil {
		s.logger.Error("Failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(s.tokens.ttl.Seconds()), "/", "", false, true)
	s.logger.Info("Successful login", zap.String("user_id", a.ID), zap.String("username", a.Username))
	c.JSON(http.StatusOK, toPayload(a))
}

func (s *Server) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) currentAccount(c *gin.Context) (*account, bool) {
	raw, err := c.Cookie(SessionCookie)
	if err != nil || raw == "" {
		return nil, false
	}
	claims, err := s.tokens.parse(raw)
	if err != nil {
		s.logger.Debug("Rejected session token", zap.Error(err))
		return nil, false
	}
	return s.accounts.byAccountID(claims.Subject)
}

func toPayload(a *account) sessionPayload {
	return sessionPayload{
		User: userPayload{
			ID:       a.ID,
			Username: a.Username,
			Email:    a.Email,
			Name:     a.Name,
			Role:     a.Role,
		},
		Member: a.Member,
	}
}
