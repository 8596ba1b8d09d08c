package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/command"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs a recording tracer provider for the test
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prev)
	})
	return sr
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]string {
	out := map[attribute.Key]string{}
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value.Emit()
	}
	return out
}

func TestTracing_Disabled(t *testing.T) {
	assert.Empty(t, Tracing(TracingConfig{ServiceName: "test", Enabled: false}))
}

func TestTracing_Enabled(t *testing.T) {
	sr := setupTestTracer(t)
	userID, companyID := uuid.New(), uuid.New()

	r := gin.New()
	r.Use(RequestID())
	r.Use(Tracing(TracingConfig{ServiceName: "test", Enabled: true})...)
	r.GET("/invoices/:id", func(c *gin.Context) {
		c.Set(ActorKey, command.UserActor(userID).WithCompany(companyID))
		c.Status(http.StatusOK)
	})
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	req := httptest.NewRequest(http.MethodGet, "/invoices/42", nil)
	req.Header.Set(RequestIDHeader, "trace-req")
	serve(r, req)
	serve(r, httptest.NewRequest(http.MethodGet, "/broken", nil))

	spans := sr.Ended()
	require.Len(t, spans, 2)

	span := spans[0]
	assert.Equal(t, "GET /invoices/:id", span.Name())
	attrs := spanAttrs(span)
	assert.Equal(t, "trace-req", attrs["request_id"])
	assert.Equal(t, userID.String(), attrs[telemetry.SpanAttrActorUserID])
	assert.Equal(t, companyID.String(), attrs[telemetry.SpanAttrCompanyID])
	assert.NotEqual(t, codes.Error, span.Status().Code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestTracing_PropagatesParent(t *testing.T) {
	sr := setupTestTracer(t)

	r := gin.New()
	r.Use(Tracing(TracingConfig{ServiceName: "test", Enabled: true})...)
	r.GET("/", ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	serve(r, req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
}
