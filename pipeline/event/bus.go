package event

import (
	"context"
	"fmt"
	"log/slog"
)

// IBus is the strongly typed interface for publishing and subscribing to
// events of one concrete type T.
type IBus[T Event] interface {
	// Publish delivers the event to the topic's subscribers. It returns an
	// error only on a failure of the bus itself; subscriber errors are
	// handled per subscription.
	Publish(ctx context.Context, event T) error

	// Subscribe adds a typed handler and returns its unsubscribe function.
	Subscribe(handler Handler[T], opts ...SubscribeOption[T]) (unsubscribe func(), err error)

	// Shutdown drains in-flight deliveries and stops the bus.
	Shutdown(ctx context.Context) error
}

// busImpl is the typed bus over one topic.
type busImpl[T Event] struct {
	topic    string
	provider Provider[T]
	cfg      *config[T]
}

// NewBus creates a typed bus for the topic. The built-in logging and metrics
// middlewares wrap the local provider first, then any configured bus
// middlewares, composed once here.
func NewBus[T Event](topic string, opts ...Option[T]) (*busImpl[T], error) {
	if topic == "" {
		return nil, fmt.Errorf("topic must not be empty")
	}

	cfg := &config[T]{
		logger:    slog.Default(),
		workers:   4,
		queueSize: 64,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	provider, err := newLocalProvider(topic, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create the local provider: %w", err)
	}

	allMiddlewares := []BusMiddleware[T]{
		newLoggingBusMiddleware[T](cfg.logger, topic),
		newMetricsBusMiddleware[T](cfg.meterProvider, topic),
	}
	allMiddlewares = append(allMiddlewares, cfg.middlewares...)
	wrappedProvider := applyBusMiddlewares[T](provider, allMiddlewares...)

	return &busImpl[T]{
		topic:    topic,
		provider: wrappedProvider,
		cfg:      cfg,
	}, nil
}

// Publish publishes the event through the composed provider chain.
func (b *busImpl[T]) Publish(ctx context.Context, event T) error {
	return b.provider.Publish(ctx, event)
}

// Subscribe subscribes a handler through the composed provider chain.
func (b *busImpl[T]) Subscribe(handler Handler[T], opts ...SubscribeOption[T]) (unsubscribe func(), err error) {
	return b.provider.Subscribe(handler, opts...)
}

// Shutdown shuts the bus down.
func (b *busImpl[T]) Shutdown(ctx context.Context) error {
	return b.provider.Shutdown(ctx)
}
