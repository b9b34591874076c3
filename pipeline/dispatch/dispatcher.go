package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/x-research-team/dispatch-framework/pipeline/result"
)

// IDispatcher is the strongly typed entry point for one request type. It
// resolves the compiled chain and invokes it; it performs no business logic
// of its own.
type IDispatcher[Q Request[R], R any] interface {
	Dispatch(ctx context.Context, req Q) result.Result[R]
	Register(handler Handler[Q, R]) error
	Shutdown(ctx context.Context) error
}

// dispatcherImpl owns the compiled chain for one request type. The chain is
// composed exactly once, here, and reused for the process lifetime.
type dispatcherImpl[Q Request[R], R any] struct {
	provider Provider[Q, R]
	cfg      *config[Q, R]
}

// NewDispatcher composes the chain for the request type Q and returns a
// ready dispatcher. The built-in logging and context-setup middlewares wrap
// outermost, then the configured middlewares in registration order, then the
// built-in timing middleware directly around the handler. Composition order
// is fixed here and independent of request content.
func NewDispatcher[Q Request[R], R any](opts ...Option[Q, R]) (IDispatcher[Q, R], error) {
	cfg := &config[Q, R]{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	provider, err := NewLocalProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create the local provider: %w", err)
	}

	allMiddlewares := []Middleware[Q, R]{
		NewLoggingMiddleware[Q, R](cfg.logger),
		NewTracingMiddleware[Q, R](cfg.tracerProvider, cfg.propagator),
	}
	allMiddlewares = append(allMiddlewares, cfg.middlewares...)
	allMiddlewares = append(allMiddlewares, NewMetricsMiddleware[Q, R](cfg.meterProvider))
	wrappedProvider := applyMiddlewares(provider, allMiddlewares...)

	return &dispatcherImpl[Q, R]{
		provider: wrappedProvider,
		cfg:      cfg,
	}, nil
}

// Register installs the handler for the request type. Must happen before the
// first Dispatch; a second registration for the same request type fails.
func (d *dispatcherImpl[Q, R]) Register(handler Handler[Q, R]) error {
	return d.provider.Register(handler)
}

// Dispatch runs the request through the compiled chain. This is the single
// place a panic may cross into Result space: anything that escapes the chain
// is converted into the Pipeline.Unexpected catalog error, so dispatch never
// panics for its callers.
func (d *dispatcherImpl[Q, R]) Dispatch(ctx context.Context, req Q) (res result.Result[R]) {
	defer func() {
		if rec := recover(); rec != nil {
			res = result.Err[R](ErrUnexpected.New(fmt.Sprint(rec)))
		}
	}()

	return d.provider.Dispatch(ctx, req)
}

// Shutdown releases the chain's resources.
func (d *dispatcherImpl[Q, R]) Shutdown(ctx context.Context) error {
	return d.provider.Shutdown(ctx)
}
