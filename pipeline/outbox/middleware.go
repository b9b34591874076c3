package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/x-research-team/dispatch-framework/pipeline/event"
)

// Middleware diverts published events into storage instead of delivering
// them, implementing the transactional-outbox pattern for the event bus.
type Middleware[T event.Event] struct {
	storage Storage
	topic   string
}

// NewMiddleware creates an outbox middleware writing to storage.
func NewMiddleware[T event.Event](storage Storage, opts ...Option[T]) *Middleware[T] {
	m := &Middleware[T]{
		storage: storage,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Wrap wraps the provider, redirecting Publish into storage.
func (m *Middleware[T]) Wrap(next event.Provider[T]) event.Provider[T] {
	return &outboxProvider[T]{
		storage: m.storage,
		next:    next,
		topic:   m.topic,
	}
}

// outboxProvider is the provider stage produced by the middleware.
type outboxProvider[T event.Event] struct {
	storage Storage
	next    event.Provider[T]
	topic   string
}

// Publish stores the event instead of delivering it.
func (p *outboxProvider[T]) Publish(ctx context.Context, evt T) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to serialize the event: %w", err)
	}

	topic := p.topic
	if topic == "" {
		topic = evt.Topic()
	}

	msg := &Message{
		ID:        uuid.New(),
		Topic:     topic,
		Payload:   payload,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if md, ok := any(evt).(interface{ Metadata() map[string]string }); ok {
		msg.Metadata = md.Metadata()
	}

	return p.storage.Save(ctx, msg)
}

// Subscribe delegates to the next provider.
func (p *outboxProvider[T]) Subscribe(handler event.Handler[T], opts ...event.SubscribeOption[T]) (unsubscribe func(), err error) {
	return p.next.Subscribe(handler, opts...)
}

// Shutdown delegates to the next provider.
func (p *outboxProvider[T]) Shutdown(ctx context.Context) error {
	return p.next.Shutdown(ctx)
}
