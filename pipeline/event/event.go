// Package event provides the in-process domain-event collaborator of the
// pipeline: a typed publish/subscribe bus with optional asynchronous
// delivery through a worker pool, plus the dispatch middleware that
// publishes events recorded by a handler once its Result is successful.
package event

import "context"

// Event is the minimal contract for anything published through the bus.
type Event interface {
	// Topic returns the topic the event belongs to, letting the bus route
	// it without knowing the concrete type.
	Topic() string
}

// Handler is a typed subscriber function.
type Handler[T Event] func(ctx context.Context, event T) error

// ErrorHandler receives errors returned by a subscriber's Handler.
type ErrorHandler[T Event] func(err error, event T)

// Middleware decorates one subscriber's Handler.
type Middleware[T Event] func(next Handler[T]) Handler[T]

// Provider is the contract for interchangeable delivery mechanisms. Bus
// middlewares wrap it the same way dispatch middlewares wrap their provider.
type Provider[T Event] interface {
	// Publish delivers the event to every subscriber of the topic.
	Publish(ctx context.Context, event T) error

	// Subscribe adds a handler and returns its unsubscribe function.
	Subscribe(handler Handler[T], opts ...SubscribeOption[T]) (unsubscribe func(), err error)

	// Shutdown drains in-flight work and releases resources.
	Shutdown(ctx context.Context) error
}

// BusMiddleware is a cross-cutting behavior wrapped around a Provider.
type BusMiddleware[T Event] interface {
	Wrap(next Provider[T]) Provider[T]
}
