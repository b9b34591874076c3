package outbox

import "github.com/x-research-team/dispatch-framework/pipeline/event"

// Option configures the outbox middleware.
type Option[T event.Event] func(*Middleware[T])

// WithTopic overrides the stored topic for every event passing through the
// middleware. Without it, each event's own topic is stored.
func WithTopic[T event.Event](topic string) Option[T] {
	return func(m *Middleware[T]) {
		m.topic = topic
	}
}
