package event

import (
	"context"
	"log/slog"
	"sync"

	"github.com/x-research-team/dispatch-framework/pipeline/dispatch"
	"github.com/x-research-team/dispatch-framework/pipeline/result"
)

// Recorder accumulates the domain events a handler raises while it runs.
// Events are held until the handler's Result is known.
type Recorder struct {
	events []Event
	mu     sync.Mutex
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) drain() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events
	r.events = nil
	return events
}

type recorderKey struct{}

// WithRecorder derives a context carrying a fresh recorder.
func WithRecorder(ctx context.Context) (context.Context, *Recorder) {
	rec := &Recorder{}
	return context.WithValue(ctx, recorderKey{}, rec), rec
}

// Record stages a domain event for publication after the current request
// succeeds. Outside a recorded dispatch it is a no-op.
func Record(ctx context.Context, e Event) {
	if rec, ok := ctx.Value(recorderKey{}).(*Recorder); ok {
		rec.add(e)
	}
}

// Publisher adapts a typed bus to the untyped publish function the dispatch
// middleware uses. Events of other types are skipped.
func Publisher[T Event](bus IBus[T]) func(context.Context, Event) error {
	return func(ctx context.Context, e Event) error {
		typed, ok := e.(T)
		if !ok {
			return nil
		}
		return bus.Publish(ctx, typed)
	}
}

// publishMiddleware publishes recorded events after a successful Result.
type publishMiddleware[Q dispatch.Request[R], R any] struct {
	publish func(context.Context, Event) error
	logger  *slog.Logger
}

// NewPublishMiddleware creates the dispatch middleware that seeds a recorder
// into every request context and publishes the collected events only when
// the inner Result is successful. A failed Result discards them.
func NewPublishMiddleware[Q dispatch.Request[R], R any](publish func(context.Context, Event) error, logger *slog.Logger) dispatch.Middleware[Q, R] {
	if logger == nil {
		logger = slog.Default()
	}
	return &publishMiddleware[Q, R]{
		publish: publish,
		logger:  logger,
	}
}

// Wrap wraps the next stage with event recording.
func (m *publishMiddleware[Q, R]) Wrap(next dispatch.Provider[Q, R]) dispatch.Provider[Q, R] {
	return &publishProvider[Q, R]{
		next:    next,
		publish: m.publish,
		logger:  m.logger,
	}
}

// publishProvider is the chain stage produced by the publish middleware.
type publishProvider[Q dispatch.Request[R], R any] struct {
	next    dispatch.Provider[Q, R]
	publish func(context.Context, Event) error
	logger  *slog.Logger
}

// Dispatch records events raised by the inner stages and publishes them on
// success. Publish failures are logged; the handler's Result is returned
// unchanged either way.
func (p *publishProvider[Q, R]) Dispatch(ctx context.Context, req Q) result.Result[R] {
	ctx, rec := WithRecorder(ctx)

	res := p.next.Dispatch(ctx, req)
	if res.IsOK() {
		for _, e := range rec.drain() {
			if err := p.publish(ctx, e); err != nil {
				p.logger.Error("failed to publish recorded event",
					slog.String("topic", e.Topic()),
					slog.Any("error", err),
				)
			}
		}
	}
	return res
}

// Register delegates to the next stage.
func (p *publishProvider[Q, R]) Register(handler dispatch.Handler[Q, R]) error {
	return p.next.Register(handler)
}

// Shutdown delegates to the next stage.
func (p *publishProvider[Q, R]) Shutdown(ctx context.Context) error {
	return p.next.Shutdown(ctx)
}
