package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-templui-session/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-templui-session/internal/pkg/apiclient"
	"github.com/FACorreiaa/go-templui-session/internal/pkg/cache"
)

const (
	SessionPath = "/api/auth/user"
	LoginPath   = "/api/auth/login"
	LogoutPath  = "/api/auth/logout"
)

// SessionKey is the cache key of the session probe.
var SessionKey = cache.Key{SessionPath}

// API is the part of *apiclient.Client the service needs.
type API interface {
	Do(ctx context.Context, method, path string, body any) (*http.Response, error)
	Request(ctx context.Context, method, path string, body any) (*http.Response, error)
}

// TerminatedFunc is called after a successful logout has cleared the cache.
type TerminatedFunc func(ctx context.Context)

// Service derives session state from the query cache and performs login and
// logout. One Service belongs to one QueryClient.
type Service struct {
	queries   *cache.QueryClient
	api       API
	sessionFn cache.QueryFunc
	logger    *zap.Logger
	metrics   *metrics.AppMetrics

	loggingIn  atomic.Int32
	loggingOut atomic.Int32

	mu        sync.Mutex
	nextID    int
	listeners map[int]TerminatedFunc
}

func NewService(queries *cache.QueryClient, api API, logger *zap.Logger, m *metrics.AppMetrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		queries:   queries,
		api:       api,
		sessionFn: cache.NewQueryFn(api, cache.ReturnNull),
		logger:    logger,
		metrics:   m,
		listeners: make(map[int]TerminatedFunc),
	}
}

// Load returns the session state, fetching the session when it is not cached
// or has been invalidated.
func (s *Service) Load(ctx context.Context) (State, error) {
	data, err := s.queries.Fetch(ctx, SessionKey, s.sessionFn)
	if err != nil {
		return s.Snapshot(ctx), err
	}
	sess, err := DecodeSession(data)
	if err != nil {
		return s.Snapshot(ctx), err
	}
	return s.withMutationFlags(DeriveState(sess, s.queries.IsFetching(SessionKey))), nil
}

// Snapshot returns the state from whatever is cached right now. It never
// touches the network.
func (s *Service) Snapshot(ctx context.Context) State {
	var sess *Session
	if entry, found := s.queries.Peek(ctx, SessionKey); found && !entry.Absent {
		decoded, err := DecodeSession(entry.Data)
		if err != nil {
			s.logger.Warn("Cached session is unreadable", zap.Error(err))
		}
		sess = decoded
	}
	return s.withMutationFlags(DeriveState(sess, s.queries.IsFetching(SessionKey)))
}

func (s *Service) withMutationFlags(st State) State {
	st.IsLoggingIn = s.loggingIn.Load() > 0
	st.IsLoggingOut = s.loggingOut.Load() > 0
	return st
}

// Login posts creds to the login endpoint. On success the cached session is
// invalidated before Login returns, and the raw response is handed back.
func (s *Service) Login(ctx context.Context, creds Credentials) (json.RawMessage, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "AuthService.Login", trace.WithAttributes(
		attribute.String("username", creds.Username),
	))
	defer span.End()

	s.loggingIn.Add(1)
	defer s.loggingIn.Add(-1)

	l := s.logger.With(zap.String("method", "Login"), zap.String("username", creds.Username))
	l.Debug("Attempting login")

	data, err := s.queries.Mutate(ctx,
		func(ctx context.Context) (json.RawMessage, error) {
			return s.postLogin(ctx, creds)
		},
		func(ctx context.Context, _ json.RawMessage) error {
			if err := s.queries.Invalidate(ctx, SessionKey); err != nil {
				return fmt.Errorf("failed to invalidate session after login: %w", err)
			}
			return nil
		})
	if err != nil {
		s.metrics.RecordAuth(ctx, "login", false)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Login failed")
		l.Warn("Login failed", zap.Error(err))
		return data, err
	}

	s.metrics.RecordAuth(ctx, "login", true)
	span.SetStatus(codes.Ok, "Logged in")
	l.Info("Login succeeded")
	return data, nil
}

func (s *Service) postLogin(ctx context.Context, creds Credentials) (json.RawMessage, error) {
	resp, err := s.api.Do(ctx, http.MethodPost, LoginPath, creds)
	if err != nil {
		return nil, &LoginError{Message: defaultLoginMessage, Err: err}
	}
	defer resp.Body.Close()

	if err := apiclient.CheckResponse(resp); err != nil {
		return nil, &LoginError{Message: serverMessage(resp.Body, defaultLoginMessage), Err: err}
	}
	data, err := apiclient.ReadJSON(resp)
	if err != nil {
		return nil, &LoginError{Message: defaultLoginMessage, Err: err}
	}
	return data, nil
}

// serverMessage extracts {"message": "..."} from an error body.
func serverMessage(body io.Reader, fallback string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil || payload.Message == "" {
		return fallback
	}
	return payload.Message
}

// Logout ends the server session. On success every cached query is dropped
// and the session-terminated listeners run. On failure nothing changes.
func (s *Service) Logout(ctx context.Context) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "AuthService.Logout")
	defer span.End()

	s.loggingOut.Add(1)
	defer s.loggingOut.Add(-1)

	_, err := s.queries.Mutate(ctx,
		func(ctx context.Context) (json.RawMessage, error) {
			resp, err := s.api.Request(ctx, http.MethodPost, LogoutPath, nil)
			if err != nil {
				return nil, &LogoutError{Err: err}
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, nil
		},
		func(ctx context.Context, _ json.RawMessage) error {
			if err := s.queries.Clear(ctx); err != nil {
				return &LogoutError{Err: fmt.Errorf("failed to clear cache after logout: %w", err)}
			}
			s.notifyTerminated(ctx)
			return nil
		})
	if err != nil {
		s.metrics.RecordAuth(ctx, "logout", false)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Logout failed")
		s.logger.Warn("Logout failed", zap.Error(err))
		return err
	}

	s.metrics.RecordAuth(ctx, "logout", true)
	span.SetStatus(codes.Ok, "Logged out")
	s.logger.Info("Logout succeeded")
	return nil
}

// OnSessionTerminated registers fn to run after each successful logout. The
// returned func removes it.
func (s *Service) OnSessionTerminated(fn TerminatedFunc) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Service) notifyTerminated(ctx context.Context) {
	s.mu.Lock()
	fns := make([]TerminatedFunc, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
}
