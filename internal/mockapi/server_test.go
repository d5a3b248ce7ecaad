package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(Config{Secret: "test-secret", BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	return s
}

func do(h http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestSessionWithoutCookie(t *testing.T) {
	w := do(newServer(t).Handler(), http.MethodGet, "/api/auth/user", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Not authenticated"}`, w.Body.String())
}

func TestLoginFlow(t *testing.T) {
	h := newServer(t).Handler()

	w := do(h, http.MethodPost, "/api/auth/login", `{"username":"admin","password":"admin123"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var payload sessionPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "admin", payload.User.Role)
	assert.Equal(t, "team", payload.Member["plan"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	w = do(h, http.MethodGet, "/api/auth/user", "", cookies[0])
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"admin"`)

	w = do(h, http.MethodPost, "/api/auth/logout", "", cookies[0])
	require.Equal(t, http.StatusOK, w.Code)
	expired := w.Result().Cookies()
	require.Len(t, expired, 1)
	assert.Less(t, expired[0].MaxAge, 0)
}

func TestLoginRejections(t *testing.T) {
	h := newServer(t).Handler()

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"wrong password", `{"username":"demo","password":"nope"}`, http.StatusUnauthorized, "Invalid username or password"},
		{"unknown user", `{"username":"ghost","password":"x"}`, http.StatusUnauthorized, "Invalid username or password"},
		{"missing fields", `{"username":"demo"}`, http.StatusBadRequest, "Username and password are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodPost, "/api/auth/login", tt.body)
			assert.Equal(t, tt.status, w.Code)

			var payload struct {
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
			assert.Equal(t, tt.message, payload.Message)
		})
	}
}

func TestForgedTokenRejected(t *testing.T) {
	s := newServer(t)
	other, err := New(Config{Secret: "other-secret", BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	a, ok := other.accounts.authenticate("demo", "password123")
	require.True(t, ok)
	token, err := other.tokens.issue(a)
	require.NoError(t, err)

	w := do(s.Handler(), http.MethodGet, "/api/auth/user", "", &http.Cookie{Name: SessionCookie, Value: token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
