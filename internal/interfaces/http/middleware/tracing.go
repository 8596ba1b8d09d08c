package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing returns the otelgin server middleware followed by SpanAnnotator.
// Span names follow "METHOD /route/:pattern".
func Tracing(cfg TracingConfig) []gin.HandlerFunc {
	if !cfg.Enabled {
		return nil
	}
	return []gin.HandlerFunc{otelgin.Middleware(cfg.ServiceName), SpanAnnotator()}
}

// SpanAnnotator enriches the server span once the request has been handled:
// request ID, acting user and company, and an error status for 4xx and 5xx.
// otelgin ends the span when its handler returns, so this must run inside it.
func SpanAnnotator() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		if id := c.GetString(RequestIDKey); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if actor, ok := GetActor(c); ok {
			if actor.UserID != nil {
				span.SetAttributes(attribute.String(telemetry.SpanAttrActorUserID, actor.UserID.String()))
			}
			if actor.CompanyID != nil {
				span.SetAttributes(attribute.String(telemetry.SpanAttrCompanyID, actor.CompanyID.String()))
			}
		}
		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
