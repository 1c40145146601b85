package telemetry

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "bluefin-api"

// Identity reports who made the request. It is called after the handler
// chain ran, so it sees the claims stored by authentication.
type Identity func(c *fiber.Ctx) (userID, role string)

type traceConfig struct {
	provider   trace.TracerProvider
	propagator propagation.TextMapPropagator
	identity   Identity
	skip       map[string]bool
}

// TraceOption customizes FiberMiddleware
type TraceOption func(*traceConfig)

func WithTracerProvider(tp trace.TracerProvider) TraceOption {
	return func(cfg *traceConfig) { cfg.provider = tp }
}

func WithPropagator(p propagation.TextMapPropagator) TraceOption {
	return func(cfg *traceConfig) { cfg.propagator = p }
}

func WithIdentity(fn Identity) TraceOption {
	return func(cfg *traceConfig) { cfg.identity = fn }
}

// WithSkipPaths leaves the given exact paths untraced
func WithSkipPaths(paths ...string) TraceOption {
	return func(cfg *traceConfig) {
		for _, p := range paths {
			cfg.skip[p] = true
		}
	}
}

// FiberMiddleware starts a server span per request. The span is named after
// the matched route template so /api/support/tickets/:id groups every ticket.
// Conflicts (409) are recorded as an event; only 5xx and handler errors mark
// the span as failed.
func FiberMiddleware(opts ...TraceOption) fiber.Handler {
	cfg := &traceConfig{
		provider:   otel.GetTracerProvider(),
		propagator: otel.GetTextMapPropagator(),
		skip:       map[string]bool{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	tracer := cfg.provider.Tracer(tracerName)

	return func(c *fiber.Ctx) error {
		if cfg.skip[c.Path()] {
			return c.Next()
		}

		ctx := cfg.propagator.Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))
		attrs := []attribute.KeyValue{
			attribute.String("http.request.method", c.Method()),
			attribute.String("url.path", c.Path()),
			attribute.String("client.address", c.IP()),
			attribute.String("user_agent.original", c.Get(fiber.HeaderUserAgent)),
		}
		if correlationID := c.Get("X-Correlation-ID"); correlationID != "" {
			attrs = append(attrs, attribute.String("bluefin.correlation_id", correlationID))
		}

		ctx, span := tracer.Start(ctx, c.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		c.SetUserContext(ctx)
		if span.SpanContext().HasTraceID() {
			c.Set("X-Trace-ID", span.SpanContext().TraceID().String())
		}

		err := c.Next()

		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(attribute.String("http.route", route))

		if cfg.identity != nil {
			if userID, role := cfg.identity(c); userID != "" {
				span.SetAttributes(
					attribute.String("user.id", userID),
					attribute.String("user.role", role),
				)
			}
		}

		statusCode := c.Response().StatusCode()
		if err != nil {
			// The error handler has not written the response yet
			var fe *fiber.Error
			if errors.As(err, &fe) {
				statusCode = fe.Code
			} else {
				statusCode = fiber.StatusInternalServerError
			}
			span.RecordError(err)
		}
		span.SetAttributes(attribute.Int("http.response.status_code", statusCode))
		if string(c.Response().Header.Peek("X-Idempotent-Replay")) == "true" {
			span.SetAttributes(attribute.Bool("bluefin.idempotent_replay", true))
		}

		switch {
		case statusCode >= fiber.StatusInternalServerError:
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", statusCode))
		case statusCode == fiber.StatusConflict:
			span.AddEvent("conflict", trace.WithAttributes(attribute.String("http.route", route)))
		}
		return err
	}
}
