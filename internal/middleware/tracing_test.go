package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"nextfilm/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := observability.Tracer
	observability.Tracer = tp.Tracer("tracing-test")
	t.Cleanup(func() {
		observability.Tracer = previous
		_ = tp.Shutdown(t.Context())
	})
	return recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingMiddleware_NamesSpanAfterMatchedRoute(t *testing.T) {
	recorder := newSpanRecorder(t)

	app := fiber.New()
	app.Use(TracingMiddleware())
	api := app.Group("/api")
	api.Get("/posts/:id", func(c *fiber.Ctx) error { return c.SendString(c.Params("id")) })
	api.Delete("/posts/:id/comments/:commentId", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	tests := []struct {
		method string
		target string
		name   string
		route  string
		status int
	}{
		{http.MethodGet, "/api/posts/7", "GET /api/posts/:id", "/api/posts/:id", fiber.StatusOK},
		{http.MethodDelete, "/api/posts/7/comments/3", "DELETE /api/posts/:id/comments/:commentId", "/api/posts/:id/comments/:commentId", fiber.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder.Reset()
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.target, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.name, spans[0].Name())

			route, ok := spanAttr(spans[0], "http.route")
			require.True(t, ok)
			assert.Equal(t, tt.route, route.AsString())

			path, ok := spanAttr(spans[0], "http.path")
			require.True(t, ok)
			assert.Equal(t, tt.target, path.AsString())

			status, ok := spanAttr(spans[0], "http.status_code")
			require.True(t, ok)
			assert.Equal(t, int64(tt.status), status.AsInt64())
		})
	}
}
