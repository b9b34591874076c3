package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Registry guarantees a single bus instance per topic across the process.
type Registry struct {
	buses map[string]any
	mu    sync.RWMutex
}

// NewRegistry creates an empty bus registry.
func NewRegistry() *Registry {
	return &Registry{
		buses: make(map[string]any),
	}
}

// Bus returns the strongly typed bus for the topic, creating it on first
// use. A call with a different event type for an existing topic fails.
func Bus[T Event](r *Registry, topic string, opts ...Option[T]) (IBus[T], error) {
	r.mu.RLock()
	bus, exists := r.buses[topic]
	r.mu.RUnlock()

	if exists {
		if typed, ok := bus.(IBus[T]); ok {
			return typed, nil
		}
		return nil, fmt.Errorf("bus for topic '%s' already exists with a different event type", topic)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check in case the bus was created while waiting for the lock.
	if bus, exists := r.buses[topic]; exists {
		if typed, ok := bus.(IBus[T]); ok {
			return typed, nil
		}
		return nil, fmt.Errorf("bus for topic '%s' already exists with a different event type", topic)
	}

	newBus, err := NewBus(topic, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create the bus for topic '%s': %w", topic, err)
	}

	r.buses[topic] = newBus
	return newBus, nil
}

// Shutdown shuts down every registered bus.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for topic, busInstance := range r.buses {
		if shutdowner, ok := busInstance.(interface {
			Shutdown(context.Context) error
		}); ok {
			if err := shutdowner.Shutdown(ctx); err != nil {
				slog.Default().Error("failed to shut down bus",
					slog.String("topic", topic),
					slog.Any("error", err),
				)
			}
		}
	}

	return nil
}
