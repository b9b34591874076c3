package dispatch

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// config holds the unexported configuration for one chain.
type config[Q Request[R], R any] struct {
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	propagator     propagation.TextMapPropagator
	middlewares    []Middleware[Q, R]
}

// Option is a functional option that adjusts the chain configuration.
type Option[Q Request[R], R any] func(*config[Q, R])

// WithLogger sets the logger used by the logging middleware.
func WithLogger[Q Request[R], R any](logger *slog.Logger) Option[Q, R] {
	return func(c *config[Q, R]) {
		c.logger = logger
	}
}

// WithTracerProvider sets the tracer provider for the context-setup
// middleware.
func WithTracerProvider[Q Request[R], R any](provider trace.TracerProvider) Option[Q, R] {
	return func(c *config[Q, R]) {
		c.tracerProvider = provider
	}
}

// WithMeterProvider sets the meter provider for the timing middleware.
func WithMeterProvider[Q Request[R], R any](provider metric.MeterProvider) Option[Q, R] {
	return func(c *config[Q, R]) {
		c.meterProvider = provider
	}
}

// WithPropagator sets the trace context propagation mechanism.
func WithPropagator[Q Request[R], R any](propagator propagation.TextMapPropagator) Option[Q, R] {
	return func(c *config[Q, R]) {
		c.propagator = propagator
	}
}

// WithMiddleware appends middlewares to the chain. They execute in the order
// given, between the built-in logging/tracing pair (outermost) and the
// built-in timing middleware (innermost).
func WithMiddleware[Q Request[R], R any](mw ...Middleware[Q, R]) Option[Q, R] {
	return func(c *config[Q, R]) {
		c.middlewares = append(c.middlewares, mw...)
	}
}
