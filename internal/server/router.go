package server

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/FACorreiaa/go-templui-session/internal/app/middleware"
	"github.com/FACorreiaa/go-templui-session/internal/app/visitor"
	"github.com/FACorreiaa/go-templui-session/internal/routes"
)

// SetupRouter configures and returns the Gin router with all middleware and routes
func SetupRouter(serviceName string, deps routes.Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(ginzap.GinzapWithConfig(deps.Logger, &ginzap.Config{
		UTC:        true,
		TimeFormat: time.RFC3339,
		Context:    zapContextFunc(),
		SkipPaths:  []string{"/healthz"},
	}))
	r.Use(ginzap.RecoveryWithZap(deps.Logger, true))
	r.Use(middleware.OTELGinMiddleware(serviceName))
	r.Use(middleware.SecurityMiddleware())

	routes.Setup(r, deps)

	return r
}

// zapContextFunc adds request, trace and visitor ids to the access log.
// Request bodies are never logged since they carry credentials.
func zapContextFunc() ginzap.Fn {
	return func(c *gin.Context) []zapcore.Field {
		fields := []zapcore.Field{}

		if requestID := c.Writer.Header().Get("X-Request-Id"); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}

		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().IsValid() {
			fields = append(fields,
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()),
			)
		}

		if v, ok := visitor.FromContext(c); ok {
			fields = append(fields, zap.String("visitor_id", v.ID))
		}

		return fields
	}
}
