// Package apiclient issues requests against the remote API. Every request
// carries the client's cookies and asks intermediaries not to cache.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/FACorreiaa/go-templui-session/internal/app/observability/metrics"
)

// maxErrorBody bounds how much of a failed response is read into a RequestError.
const maxErrorBody = 64 << 10

type Config struct {
	// BaseURL is prefixed to paths that do not carry their own scheme.
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
	Logger    *zap.Logger
	Metrics   *metrics.AppMetrics
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	metrics *metrics.AppMetrics
}

func New(cfg Config) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Jar:       jar,
			Transport: otelhttp.NewTransport(transport),
		},
		logger:  logger,
		metrics: cfg.Metrics,
	}, nil
}

// ResolveURL returns path unchanged when it is already absolute, otherwise
// joined onto the base URL.
func (c *Client) ResolveURL(path string) string {
	if hasScheme(path) {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func hasScheme(path string) bool {
	u, err := url.Parse(path)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// JoinPath joins key segments into a request path.
func JoinPath(segments ...string) string {
	return strings.Join(segments, "/")
}

// Cookies returns the cookies the client would send to the base URL.
func (c *Client) Cookies() []*http.Cookie {
	u, err := url.Parse(c.ResolveURL("/"))
	if err != nil {
		return nil
	}
	return c.http.Jar.Cookies(u)
}

// Do sends a request without inspecting the response status. body may be nil,
// a *FormData, or any JSON-encodable value.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case *FormData:
		r, err := b.reader()
		if err != nil {
			return nil, fmt.Errorf("failed to encode form: %w", err)
		}
		reader, contentType = r, b.ContentType()
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader, contentType = bytes.NewReader(data), "application/json"
	}

	target := c.ResolveURL(path)
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s: %w", method, path, err)
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.RecordAPIRequest(ctx, method, 0, elapsed)
		c.logger.Warn("API request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	c.metrics.RecordAPIRequest(ctx, method, resp.StatusCode, elapsed)
	c.logger.Debug("API request",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", elapsed),
	)
	return resp, nil
}

// Request is Do followed by CheckResponse. On error the body is already closed.
func (c *Client) Request(ctx context.Context, method, path string, body any) (*http.Response, error) {
	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if err := CheckResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// FetchByKey GETs the path formed by segments and returns its JSON body.
func (c *Client) FetchByKey(ctx context.Context, segments ...string) (json.RawMessage, error) {
	resp, err := c.Request(ctx, http.MethodGet, JoinPath(segments...), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return ReadJSON(resp)
}

// CheckResponse returns a *RequestError for non-2xx responses. The body is
// consumed and replaced so callers may still read it.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))

	message := strings.TrimSpace(string(data))
	if message == "" {
		message = statusLine(resp)
	}
	return &RequestError{Status: resp.StatusCode, Message: message}
}

func statusLine(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// ReadJSON reads a response body as raw JSON. An empty body yields nil.
func ReadJSON(resp *http.Response) (json.RawMessage, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, ErrInvalidJSON
	}
	return json.RawMessage(data), nil
}
