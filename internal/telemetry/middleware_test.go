package telemetry

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedApp(t *testing.T) (*fiber.App, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	app := fiber.New()
	app.Use(FiberMiddleware(
		WithTracerProvider(tp),
		WithPropagator(propagation.TraceContext{}),
		WithSkipPaths("/health"),
		WithIdentity(func(c *fiber.Ctx) (string, string) {
			id, _ := c.Locals("uid").(string)
			role, _ := c.Locals("role").(string)
			return id, role
		}),
	))
	authenticated := func(c *fiber.Ctx) error {
		c.Locals("uid", "u1")
		c.Locals("role", "user")
		return c.Next()
	}

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Put("/api/payments/:id/verify", authenticated, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Payment has already been reviewed"})
	})
	app.Get("/api/plans/:id", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Plan not found"})
	})
	app.Get("/api/boom", func(c *fiber.Ctx) error { return errors.New("mongo went away") })
	return app, recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestFiberMiddleware_RouteIdentityAndConflict(t *testing.T) {
	app, recorder := newTracedApp(t)

	req := httptest.NewRequest(fiber.MethodPut, "/api/payments/665f1c2e8b3a4d0012345678/verify", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	req.Header.Set("X-Correlation-ID", "req-42")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]

	assert.Equal(t, "PUT /api/payments/:id/verify", span.Name())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext().TraceID().String(), "parent trace is continued")
	assert.Equal(t, span.SpanContext().TraceID().String(), resp.Header.Get("X-Trace-ID"))

	attrs := spanAttrs(span)
	assert.Equal(t, "u1", attrs["user.id"].AsString())
	assert.Equal(t, "user", attrs["user.role"].AsString())
	assert.Equal(t, "/api/payments/:id/verify", attrs["http.route"].AsString())
	assert.Equal(t, "req-42", attrs["bluefin.correlation_id"].AsString())
	assert.Equal(t, int64(409), attrs["http.response.status_code"].AsInt64())

	require.Len(t, span.Events(), 1)
	assert.Equal(t, "conflict", span.Events()[0].Name)
	assert.Equal(t, codes.Unset, span.Status().Code, "a conflict is a client outcome, not a server failure")
}

func TestFiberMiddleware_StatusClassification(t *testing.T) {
	app, recorder := newTracedApp(t)

	for _, path := range []string{"/api/plans/abc", "/api/boom"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
	}

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	notFound := spans[0]
	assert.Equal(t, "GET /api/plans/:id", notFound.Name())
	assert.Equal(t, codes.Unset, notFound.Status().Code)
	assert.NotContains(t, spanAttrs(notFound), attribute.Key("user.id"), "anonymous requests carry no identity")

	failed := spans[1]
	assert.Equal(t, codes.Error, failed.Status().Code)
	assert.Equal(t, int64(500), spanAttrs(failed)["http.response.status_code"].AsInt64())
	require.NotEmpty(t, failed.Events())
	assert.Equal(t, "exception", failed.Events()[0].Name)
}

func TestFiberMiddleware_SkipsHealth(t *testing.T) {
	app, recorder := newTracedApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Trace-ID"))
	assert.Empty(t, recorder.Ended())
}
