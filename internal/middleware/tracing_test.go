package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"

	"jamsesh/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedApp(t *testing.T) (*fiber.App, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("jamsesh-test")
	t.Cleanup(func() { observability.Tracer = prev })

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/api/posts/:id", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(4))
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/api/feed", func(c *fiber.Ctx) error {
		return errors.New("connection refused")
	})
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app, rec
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracingMiddleware_NamesSpanByRoute(t *testing.T) {
	app, rec := newTracedApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/posts/7", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "GET /api/posts/:id", span.Name())
	assert.Equal(t, span.SpanContext().TraceID().String(), resp.Header.Get("X-Trace-ID"))

	attrs := spanAttrs(span)
	assert.Equal(t, "/api/posts/:id", attrs["http.route"].AsString())
	assert.Equal(t, "/api/posts/7", attrs["url.path"].AsString())
	assert.Equal(t, int64(200), attrs["http.response.status_code"].AsInt64())
	assert.Equal(t, int64(4), attrs["jamsesh.user_id"].AsInt64())
	assert.Equal(t, codes.Unset, span.Status().Code)
}

func TestTracingMiddleware_MarksServerErrors(t *testing.T) {
	app, rec := newTracedApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/feed", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, codes.Error, span.Status().Code)
	// The raw cause is kept on the event, not in the status text.
	assert.NotContains(t, span.Status().Description, "connection refused")
	assert.Equal(t, int64(500), spanAttrs(span)["http.response.status_code"].AsInt64())
	require.NotEmpty(t, span.Events())
	assert.Equal(t, "exception", span.Events()[0].Name)
}

func TestTracingMiddleware_SkipsHealthChecks(t *testing.T) {
	app, rec := newTracedApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Trace-ID"))
	assert.Empty(t, rec.Ended())
}
