package event

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
)

// config holds the unexported configuration for one bus.
type config[T Event] struct {
	logger        *slog.Logger
	meterProvider metric.MeterProvider
	middlewares   []BusMiddleware[T]
	workers       int
	queueSize     int
}

// Option is a functional option that adjusts the bus configuration.
type Option[T Event] func(*config[T])

// WithLogger sets the logger used for delivery failures and lifecycle
// messages.
func WithLogger[T Event](logger *slog.Logger) Option[T] {
	return func(c *config[T]) {
		c.logger = logger
	}
}

// WithMeterProvider sets the meter provider for the bus metrics middleware.
func WithMeterProvider[T Event](provider metric.MeterProvider) Option[T] {
	return func(c *config[T]) {
		c.meterProvider = provider
	}
}

// WithBusMiddleware appends middlewares to the bus chain, applied after the
// built-in logging and metrics middlewares.
func WithBusMiddleware[T Event](mw ...BusMiddleware[T]) Option[T] {
	return func(c *config[T]) {
		c.middlewares = append(c.middlewares, mw...)
	}
}

// WithWorkerPool configures the pool used for asynchronous subscribers.
func WithWorkerPool[T Event](workers, queueSize int) Option[T] {
	return func(c *config[T]) {
		c.workers = workers
		c.queueSize = queueSize
	}
}

// subscriptionOptions holds the per-subscription configuration.
type subscriptionOptions[T Event] struct {
	isAsync      bool
	errorHandler ErrorHandler[T]
	middleware   []Middleware[T]
}

// SubscribeOption is a functional option that adjusts one subscription.
type SubscribeOption[T Event] func(*subscriptionOptions[T])

// WithAsync makes the subscriber run on the worker pool instead of inline
// with Publish.
func WithAsync[T Event]() SubscribeOption[T] {
	return func(o *subscriptionOptions[T]) {
		o.isAsync = true
	}
}

// WithErrorHandler routes the subscriber's errors to a custom handler
// instead of the bus logger.
func WithErrorHandler[T Event](handler ErrorHandler[T]) SubscribeOption[T] {
	return func(o *subscriptionOptions[T]) {
		o.errorHandler = handler
	}
}

// WithMiddleware adds middlewares applied only to this subscription.
func WithMiddleware[T Event](mw ...Middleware[T]) SubscribeOption[T] {
	return func(o *subscriptionOptions[T]) {
		o.middleware = append(o.middleware, mw...)
	}
}
