package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-reflect"

	"github.com/x-research-team/dispatch-framework/pipeline/result"
)

// Provider is the contract every stage of a compiled chain satisfies: the
// terminal handler holder and every middleware wrapper around it.
type Provider[Q Request[R], R any] interface {
	// Dispatch executes the request and returns its Result.
	Dispatch(ctx context.Context, req Q) result.Result[R]

	// Register installs the handler for the request type. Registering a
	// second handler for the same request type fails.
	Register(handler Handler[Q, R]) error

	// Shutdown releases any resources held by the stage.
	Shutdown(ctx context.Context) error
}

// localProvider is the innermost stage: it holds the single handler
// registered for the request type Q.
type localProvider[Q Request[R], R any] struct {
	handler Handler[Q, R]
	mu      sync.RWMutex
	cfg     *config[Q, R]
}

// NewLocalProvider creates the terminal provider for a chain.
func NewLocalProvider[Q Request[R], R any](cfg *config[Q, R]) (*localProvider[Q, R], error) {
	return &localProvider[Q, R]{
		cfg: cfg,
	}, nil
}

// Dispatch invokes the registered handler. A missing handler yields the
// Pipeline.HandlerMissing catalog error so dispatch never panics for it.
func (p *localProvider[Q, R]) Dispatch(ctx context.Context, req Q) result.Result[R] {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.handler == nil {
		return result.Err[R](ErrHandlerMissing.New(requestTypeName[Q, R]()))
	}

	return p.handler(ctx, req)
}

// Register installs the handler, failing fast on a duplicate registration.
func (p *localProvider[Q, R]) Register(handler Handler[Q, R]) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handler != nil {
		return fmt.Errorf("handler for request '%s' is already registered", requestTypeName[Q, R]())
	}

	p.handler = handler
	return nil
}

// Shutdown is a no-op for the local provider.
func (p *localProvider[Q, R]) Shutdown(ctx context.Context) error {
	return nil
}

// requestTypeName returns the concrete type name of Q for diagnostics.
func requestTypeName[Q Request[R], R any]() string {
	return reflect.TypeOf((*Q)(nil)).Elem().String()
}
