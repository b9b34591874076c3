package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Registry is the process-wide table of compiled chains, keyed by request
// name. It is populated during process initialization and treated as
// read-only afterwards; nothing mutates a chain after it is compiled.
type Registry struct {
	dispatchers map[string]any
	mu          sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		dispatchers: make(map[string]any),
	}
}

// Dispatcher returns the strongly typed dispatcher for the given request
// name, compiling its chain on first use. Subsequent calls with the same
// name return the same instance; a call with a different type for an
// existing name fails. Declared at package level because Go interfaces
// cannot carry generic methods.
func Dispatcher[Q Request[R], R any](r *Registry, requestName string, opts ...Option[Q, R]) (IDispatcher[Q, R], error) {
	r.mu.RLock()
	dispatcher, exists := r.dispatchers[requestName]
	r.mu.RUnlock()

	if exists {
		if typed, ok := dispatcher.(IDispatcher[Q, R]); ok {
			return typed, nil
		}
		return nil, fmt.Errorf("dispatcher for request '%s' already exists with a different type", requestName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check in case the dispatcher was created while waiting for the lock.
	if dispatcher, exists := r.dispatchers[requestName]; exists {
		if typed, ok := dispatcher.(IDispatcher[Q, R]); ok {
			return typed, nil
		}
		return nil, fmt.Errorf("dispatcher for request '%s' already exists with a different type", requestName)
	}

	newDispatcher, err := NewDispatcher(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create a dispatcher: %w", err)
	}
	r.dispatchers[requestName] = newDispatcher

	return newDispatcher, nil
}

// Shutdown shuts down every registered dispatcher.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, dispatcher := range r.dispatchers {
		if d, ok := dispatcher.(interface{ Shutdown(context.Context) error }); ok {
			if err := d.Shutdown(ctx); err != nil {
				slog.Default().Error("failed to shut down dispatcher",
					slog.String("request", name),
					slog.Any("error", err),
				)
			}
		}
	}

	return nil
}
