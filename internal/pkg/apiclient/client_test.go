package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return c, srv
}

func TestResolveURL(t *testing.T) {
	c, err := New(Config{BaseURL: "https://api.example.com/"})
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/api/auth/user", c.ResolveURL("/api/auth/user"))
	assert.Equal(t, "https://api.example.com/api/auth/user", c.ResolveURL("api/auth/user"))
	assert.Equal(t, "http://other.example.com/x", c.ResolveURL("http://other.example.com/x"))
	assert.Equal(t, "https://cdn.example.com/x", c.ResolveURL("https://cdn.example.com/x"))
}

func TestDoSetsHeadersAndJSONBody(t *testing.T) {
	var (
		gotCache, gotType string
		gotBody           map[string]string
	)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotCache = r.Header.Get("Cache-Control")
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	})

	resp, err := c.Request(context.Background(), http.MethodPost, "/api/auth/login", map[string]string{"username": "a"})
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "no-store", gotCache)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "a", gotBody["username"])
}

func TestDoWithoutBody(t *testing.T) {
	var gotType string
	var gotLen int64
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotLen = r.ContentLength
		w.WriteHeader(http.StatusOK)
	})

	resp, err := c.Request(context.Background(), http.MethodPost, "/api/auth/logout", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, gotType)
	assert.Zero(t, gotLen)
}

func TestDoWithFormData(t *testing.T) {
	var field, contentType string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		field = r.FormValue("title")
		w.WriteHeader(http.StatusCreated)
	})

	form := NewFormData()
	require.NoError(t, form.WriteField("title", "avatar"))
	require.NoError(t, form.WriteFile("file", "a.txt", strings.NewReader("hello")))

	resp, err := c.Request(context.Background(), http.MethodPost, "/upload", form)
	require.NoError(t, err)
	resp.Body.Close()

	assert.True(t, strings.HasPrefix(contentType, "multipart/form-data; boundary="))
	assert.Equal(t, "avatar", field)
}

func TestCookiesAreKept(t *testing.T) {
	var sawCookie bool
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		case "/me":
			if ck, err := r.Cookie("session"); err == nil && ck.Value == "abc" {
				sawCookie = true
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	ctx := context.Background()
	resp, err := c.Request(ctx, http.MethodPost, "/login", nil)
	require.NoError(t, err)
	resp.Body.Close()
	resp, err = c.Request(ctx, http.MethodGet, "/me", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.True(t, sawCookie)
	assert.Len(t, c.Cookies(), 1)
}

func TestRequestErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "body text", status: http.StatusBadRequest, body: `{"message":"bad"}`, message: `{"message":"bad"}`},
		{name: "trimmed text", status: http.StatusForbidden, body: "  nope \n", message: "nope"},
		{name: "empty body falls back to status line", status: http.StatusInternalServerError, message: "500 Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Request(context.Background(), http.MethodGet, "/x", nil)
			require.Error(t, err)

			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, tt.status, reqErr.Status)
			assert.Equal(t, tt.message, reqErr.Message)
			assert.True(t, IsStatus(err, tt.status))
		})
	}
}

func TestCheckResponseKeepsBodyReadable(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusUnauthorized,
		Status:     "401 Unauthorized",
		Body:       io.NopCloser(strings.NewReader(`{"message":"Invalid credentials"}`)),
	}
	err := CheckResponse(resp)
	require.Error(t, err)

	data, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, string(data))
}

func TestFetchByKey(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/lists/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":42}`)
	})

	data, err := c.FetchByKey(context.Background(), "/api/lists", "42")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":42}`, string(data))
}

func TestFetchByKeyRejectsNonJSON(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>")
	})

	_, err := c.FetchByKey(context.Background(), "/page")
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestTransportError(t *testing.T) {
	c, err := New(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = c.Request(context.Background(), http.MethodGet, "/x", nil)
	require.Error(t, err)
	assert.Zero(t, StatusOf(err))
}
