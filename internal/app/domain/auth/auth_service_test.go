package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-templui-session/internal/mockapi"
	"github.com/FACorreiaa/go-templui-session/internal/pkg/apiclient"
	"github.com/FACorreiaa/go-templui-session/internal/pkg/cache"
)

// fakeAPI is a scripted remote API that counts calls per path.
type fakeAPI struct {
	mu       sync.Mutex
	calls    map[string]int
	handlers map[string]http.HandlerFunc
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: map[string]int{}, handlers: map[string]http.HandlerFunc{}}
}

func (f *fakeAPI) handle(path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func (f *fakeAPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.URL.Path]++
	h, ok := f.handlers[r.URL.Path]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func newService(t *testing.T, h http.Handler) (*Service, *cache.QueryClient) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	api, err := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	queries := cache.NewQueryClient(cache.Options{})
	return NewService(queries, api, nil, nil), queries
}

func TestDeriveState(t *testing.T) {
	tests := []struct {
		name    string
		session *Session
		want    State
	}{
		{name: "no session", session: nil, want: State{}},
		{name: "session without user", session: &Session{}, want: State{}},
		{
			name:    "admin",
			session: &Session{User: &User{Role: RoleAdmin}},
			want:    State{User: &User{Role: RoleAdmin}, IsAuthenticated: true, IsAdmin: true},
		},
		{
			name:    "member",
			session: &Session{User: &User{Role: RoleMember}, Member: Member{"plan": "free"}},
			want:    State{User: &User{Role: RoleMember}, Member: Member{"plan": "free"}, IsAuthenticated: true, IsMember: true},
		},
		{
			name:    "other role",
			session: &Session{User: &User{Role: "guest"}},
			want:    State{User: &User{Role: "guest"}, IsAuthenticated: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveState(tt.session, false))
		})
	}

	assert.True(t, DeriveState(nil, true).IsLoading)
}

func TestDecodeSession(t *testing.T) {
	s, err := DecodeSession(nil)
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = DecodeSession(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = DecodeSession(json.RawMessage(`{"user":{"username":"a","role":"admin"},"member":{"plan":"team"}}`))
	require.NoError(t, err)
	require.NotNil(t, s.User)
	assert.Equal(t, "a", s.User.Username)
	assert.Equal(t, "team", s.Member["plan"])

	_, err = DecodeSession(json.RawMessage(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestLoadUnauthenticatedSession(t *testing.T) {
	api := newFakeAPI()
	api.handle(SessionPath, http.StatusUnauthorized, `{"message":"Not authenticated"}`)
	svc, _ := newService(t, api)

	st, err := svc.Load(context.Background())
	require.NoError(t, err, "a 401 probe is an absence, not an error")
	assert.Nil(t, st.User)
	assert.False(t, st.IsAuthenticated)
	assert.False(t, st.IsLoading)

	_, err = svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, api.count(SessionPath), "absence is cached too")
}

func TestLoadSurfacesServerErrors(t *testing.T) {
	api := newFakeAPI()
	api.handle(SessionPath, http.StatusInternalServerError, "")
	svc, _ := newService(t, api)

	st, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.True(t, apiclient.IsStatus(err, http.StatusInternalServerError))
	assert.False(t, st.IsAuthenticated)
}

func TestLoginInvalidatesSession(t *testing.T) {
	api := newFakeAPI()
	api.handle(SessionPath, http.StatusUnauthorized, `{"message":"Not authenticated"}`)
	api.handle(LoginPath, http.StatusOK, `{"user":{"role":"admin"}}`)
	svc, queries := newService(t, api)
	ctx := context.Background()

	st, err := svc.Load(ctx)
	require.NoError(t, err)
	require.False(t, st.IsAuthenticated)

	api.handle(SessionPath, http.StatusOK, `{"user":{"role":"admin"},"member":null}`)
	raw, err := svc.Login(ctx, Credentials{Username: "a", Password: "b"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"user":{"role":"admin"}}`, string(raw))

	entry, found := queries.Peek(ctx, SessionKey)
	require.True(t, found)
	assert.True(t, entry.Stale, "session must be stale as soon as Login returns")

	st, err = svc.Load(ctx)
	require.NoError(t, err)
	assert.True(t, st.IsAuthenticated)
	assert.True(t, st.IsAdmin)
	assert.False(t, st.IsMember)
	assert.Equal(t, 2, api.count(SessionPath))
}

func TestLoginSendsJSONCredentials(t *testing.T) {
	var got Credentials
	var contentType string
	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{}`)
	}))

	_, err := svc.Login(context.Background(), Credentials{Username: "a", Password: "b"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, Credentials{Username: "a", Password: "b"}, got)
}

func TestLoginFailure(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"server message", http.StatusUnauthorized, `{"message":"Invalid username or password"}`, "Invalid username or password"},
		{"empty message", http.StatusUnauthorized, `{"message":""}`, "Login failed"},
		{"no body", http.StatusInternalServerError, ``, "Login failed"},
		{"non json body", http.StatusBadGateway, `upstream down`, "Login failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.handle(SessionPath, http.StatusUnauthorized, `{}`)
			api.handle(LoginPath, tt.status, tt.body)
			svc, queries := newService(t, api)
			ctx := context.Background()

			_, err := svc.Load(ctx)
			require.NoError(t, err)

			_, err = svc.Login(ctx, Credentials{Username: "a", Password: "wrong"})
			require.Error(t, err)

			var loginErr *LoginError
			require.ErrorAs(t, err, &loginErr)
			assert.Equal(t, tt.message, loginErr.Message)
			assert.True(t, apiclient.IsStatus(err, tt.status))

			entry, found := queries.Peek(ctx, SessionKey)
			require.True(t, found)
			assert.False(t, entry.Stale, "a failed login leaves the session entry alone")
			assert.Equal(t, 1, api.count(LoginPath), "logins are not retried")
		})
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	api := newFakeAPI()
	api.handle(SessionPath, http.StatusOK, `{"user":{"role":"member"}}`)
	api.handle("/api/lists", http.StatusOK, `[]`)
	api.handle(LogoutPath, http.StatusOK, `{"ok":true}`)
	svc, queries := newService(t, api)
	ctx := context.Background()

	_, err := svc.Load(ctx)
	require.NoError(t, err)
	listFn := cache.NewQueryFn(mustClientFor(t, svc), cache.Throw)
	_, err = queries.Fetch(ctx, cache.Key{"/api/lists"}, listFn)
	require.NoError(t, err)

	var notified atomic.Int32
	var clearedBeforeNotify bool
	svc.OnSessionTerminated(func(ctx context.Context) {
		_, found := queries.Peek(ctx, SessionKey)
		clearedBeforeNotify = !found
		notified.Add(1)
	})

	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, int32(1), notified.Load())
	assert.True(t, clearedBeforeNotify)

	for _, k := range []cache.Key{SessionKey, {"/api/lists"}} {
		_, found := queries.Peek(ctx, k)
		assert.False(t, found, k.Path())
	}

	_, err = queries.Fetch(ctx, cache.Key{"/api/lists"}, listFn)
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("/api/lists"), "cleared keys go back to the network")
}

func TestLogoutFailureLeavesCache(t *testing.T) {
	api := newFakeAPI()
	api.handle(SessionPath, http.StatusOK, `{"user":{"role":"admin"}}`)
	api.handle(LogoutPath, http.StatusInternalServerError, `{"message":"boom"}`)
	svc, queries := newService(t, api)
	ctx := context.Background()

	_, err := svc.Load(ctx)
	require.NoError(t, err)

	notified := false
	svc.OnSessionTerminated(func(context.Context) { notified = true })

	err = svc.Logout(ctx)
	require.Error(t, err)

	var logoutErr *LogoutError
	require.ErrorAs(t, err, &logoutErr)
	assert.Equal(t, "Logout failed", err.Error())
	assert.False(t, notified, "no navigation on failure")

	entry, found := queries.Peek(ctx, SessionKey)
	require.True(t, found)
	assert.False(t, entry.Stale)

	st := svc.Snapshot(ctx)
	assert.True(t, st.IsAdmin)
	assert.Equal(t, 1, api.count(SessionPath))
}

// flushFailingStore is a memory store whose Flush always fails.
type flushFailingStore struct {
	*cache.MemoryStore
}

func (flushFailingStore) Flush(context.Context) error { return errors.New("store unavailable") }

func TestLogoutClearFailureIsLogoutError(t *testing.T) {
	api := newFakeAPI()
	api.handle(LogoutPath, http.StatusOK, `{"ok":true}`)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	queries := cache.NewQueryClient(cache.Options{
		Store: flushFailingStore{cache.NewMemoryStore("queries", nil)},
	})
	svc := NewService(queries, client, nil, nil)

	notified := false
	svc.OnSessionTerminated(func(context.Context) { notified = true })

	err = svc.Logout(context.Background())
	var logoutErr *LogoutError
	require.ErrorAs(t, err, &logoutErr)
	assert.Equal(t, "Logout failed", err.Error())
	assert.ErrorContains(t, logoutErr.Err, "store unavailable")
	assert.False(t, notified)
}

func TestOnSessionTerminatedRemove(t *testing.T) {
	api := newFakeAPI()
	api.handle(LogoutPath, http.StatusOK, `{}`)
	svc, _ := newService(t, api)

	calls := 0
	remove := svc.OnSessionTerminated(func(context.Context) { calls++ })
	require.NoError(t, svc.Logout(context.Background()))
	remove()
	require.NoError(t, svc.Logout(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestSnapshotIsCacheOnly(t *testing.T) {
	api := newFakeAPI()
	api.handle(SessionPath, http.StatusOK, `{"user":{"role":"member"}}`)
	svc, _ := newService(t, api)
	ctx := context.Background()

	st := svc.Snapshot(ctx)
	assert.False(t, st.IsAuthenticated)
	assert.Equal(t, 0, api.count(SessionPath))

	_, err := svc.Load(ctx)
	require.NoError(t, err)
	st = svc.Snapshot(ctx)
	assert.True(t, st.IsMember)
	assert.Equal(t, 1, api.count(SessionPath))
}

func TestIsLoadingWhileSessionLoadInFlight(t *testing.T) {
	release := make(chan struct{})
	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = io.WriteString(w, `{"user":{"role":"member"}}`)
	}))
	ctx := context.Background()

	done := make(chan error)
	go func() {
		_, err := svc.Load(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return svc.Snapshot(ctx).IsLoading }, 2*time.Second, time.Millisecond)
	close(release)
	require.NoError(t, <-done)
	assert.False(t, svc.Snapshot(ctx).IsLoading)
}

func TestAgainstMockAPI(t *testing.T) {
	fake, err := mockapi.New(mockapi.Config{Secret: "s3cret", BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	svc, _ := newService(t, fake.Handler())
	ctx := context.Background()

	st, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.False(t, st.IsAuthenticated)

	_, err = svc.Login(ctx, Credentials{Username: "demo", Password: "wrong"})
	var loginErr *LoginError
	require.ErrorAs(t, err, &loginErr)
	assert.Equal(t, "Invalid username or password", loginErr.Message)

	_, err = svc.Login(ctx, Credentials{Username: "demo", Password: "password123"})
	require.NoError(t, err)

	st, err = svc.Load(ctx)
	require.NoError(t, err)
	assert.True(t, st.IsAuthenticated)
	assert.True(t, st.IsMember)
	assert.Equal(t, "Demo User", st.User.DisplayName())
	assert.Equal(t, "free", st.Member["plan"])

	require.NoError(t, svc.Logout(ctx))
	st, err = svc.Load(ctx)
	require.NoError(t, err)
	assert.False(t, st.IsAuthenticated)
}

func TestCredentialsStringHidesPassword(t *testing.T) {
	s := Credentials{Username: "a", Password: "hunter2"}.String()
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, `"a"`)
}

func TestRoleLabel(t *testing.T) {
	assert.Equal(t, "Admin", RoleAdmin.Label())
	assert.Equal(t, "Member", RoleMember.Label())
	assert.Equal(t, "", Role("").Label())
}

func TestErrorsUnwrap(t *testing.T) {
	inner := errors.New("dial tcp: refused")
	assert.ErrorIs(t, &LoginError{Message: "Login failed", Err: inner}, inner)
	assert.ErrorIs(t, &LogoutError{Err: inner}, inner)
}

// mustClientFor exposes the service's API client for fetching other keys.
func mustClientFor(t *testing.T, svc *Service) cache.Requester {
	t.Helper()
	api, ok := svc.api.(cache.Requester)
	require.True(t, ok)
	return api
}
