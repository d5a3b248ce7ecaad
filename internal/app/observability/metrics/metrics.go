package metrics

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments. A nil *AppMetrics is
// valid and records nothing.
type AppMetrics struct {
	APIRequestsTotal      metric.Int64Counter
	APIRequestDuration    metric.Float64Histogram
	AuthRequestsTotal     metric.Int64Counter
	QueryCacheLookups     metric.Int64Counter
	ActiveVisitorsGauge   metric.Int64UpDownCounter
	SessionsTerminated    metric.Int64Counter
	TemplateRenderSeconds metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	initErr    error
	once       sync.Once
)

// InitAppMetrics creates the global instruments once, from the globally
// configured MeterProvider.
func InitAppMetrics(serviceName string) (*AppMetrics, error) {
	once.Do(func() {
		appMetrics, initErr = New(otel.GetMeterProvider().Meter(serviceName))
	})
	return appMetrics, initErr
}

// Get returns the global instruments, or nil before InitAppMetrics.
func Get() *AppMetrics {
	return appMetrics
}

// New creates the instrument set on meter.
func New(meter metric.Meter) (*AppMetrics, error) {
	var err error
	m := &AppMetrics{}

	m.APIRequestsTotal, err = meter.Int64Counter(
		"api_requests_total",
		metric.WithDescription("Total number of requests sent to the remote API"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("api_requests_total: %w", err)
	}

	m.APIRequestDuration, err = meter.Float64Histogram(
		"api_request_duration_seconds",
		metric.WithDescription("Duration of remote API requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("api_request_duration_seconds: %w", err)
	}

	m.AuthRequestsTotal, err = meter.Int64Counter(
		"auth_requests_total",
		metric.WithDescription("Total number of login/logout mutations by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("auth_requests_total: %w", err)
	}

	m.QueryCacheLookups, err = meter.Int64Counter(
		"query_cache_lookups_total",
		metric.WithDescription("Query cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("query_cache_lookups_total: %w", err)
	}

	m.ActiveVisitorsGauge, err = meter.Int64UpDownCounter(
		"active_visitors_current",
		metric.WithDescription("Visitors currently holding a session client"),
		metric.WithUnit("{visitor}"),
	)
	if err != nil {
		return nil, fmt.Errorf("active_visitors_current: %w", err)
	}

	m.SessionsTerminated, err = meter.Int64Counter(
		"sessions_terminated_total",
		metric.WithDescription("Sessions ended by a successful logout"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("sessions_terminated_total: %w", err)
	}

	m.TemplateRenderSeconds, err = meter.Float64Histogram(
		"template_render_duration_seconds",
		metric.WithDescription("Duration of template rendering in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("template_render_duration_seconds: %w", err)
	}

	return m, nil
}

func (m *AppMetrics) RecordAPIRequest(ctx context.Context, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.APIRequestsTotal.Add(ctx, 1, attrs)
	m.APIRequestDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *AppMetrics) RecordAuth(ctx context.Context, op string, ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.AuthRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}

func (m *AppMetrics) RecordCacheLookup(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.QueryCacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *AppMetrics) VisitorAdded(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveVisitorsGauge.Add(ctx, 1)
}

func (m *AppMetrics) VisitorRemoved(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveVisitorsGauge.Add(ctx, -1)
}

func (m *AppMetrics) RecordSessionTerminated(ctx context.Context) {
	if m == nil {
		return
	}
	m.SessionsTerminated.Add(ctx, 1)
}

func (m *AppMetrics) RecordRender(ctx context.Context, page string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TemplateRenderSeconds.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("page", page)))
}
