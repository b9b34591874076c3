// Package compensate provides the compensating-action wrapper of the
// pipeline. The middleware seeds a fresh compensation stack into the context
// of every dispatch; while the handler runs it stages undo actions with
// Push. When the inner stage fails (or a panic unwinds through the chain),
// staged actions run in reverse order. On success the stack is discarded.
package compensate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/x-research-team/dispatch-framework/pipeline/dispatch"
	"github.com/x-research-team/dispatch-framework/pipeline/result"
)

// Action undoes one unit of partially applied work.
type Action func(ctx context.Context) error

// stack accumulates the compensations staged during one dispatch.
type stack struct {
	actions []Action
	mu      sync.Mutex
}

func (s *stack) push(action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
}

// unwind runs the staged actions in reverse order. An action's failure is
// logged and does not stop the remaining actions, nor does it mask the
// failure that triggered the unwind.
func (s *stack) unwind(ctx context.Context, logger *slog.Logger) {
	s.mu.Lock()
	actions := s.actions
	s.actions = nil
	s.mu.Unlock()

	for i := len(actions) - 1; i >= 0; i-- {
		if err := actions[i](ctx); err != nil {
			logger.Error("compensating action failed",
				slog.Int("step", i+1),
				slog.Any("error", err),
			)
		}
	}
}

type ctxKey struct{}

// Push stages a compensating action for the current dispatch. Outside a
// compensated chain it is a no-op.
func Push(ctx context.Context, action Action) {
	if st, ok := ctx.Value(ctxKey{}).(*stack); ok {
		st.push(action)
	}
}

// middleware wraps the inner stages with the compensation stack.
type middleware[Q dispatch.Request[R], R any] struct {
	logger *slog.Logger
}

// NewMiddleware creates the compensating-action middleware.
func NewMiddleware[Q dispatch.Request[R], R any](logger *slog.Logger) dispatch.Middleware[Q, R] {
	if logger == nil {
		logger = slog.Default()
	}
	return &middleware[Q, R]{
		logger: logger,
	}
}

// Wrap wraps the next stage with compensation handling.
func (m *middleware[Q, R]) Wrap(next dispatch.Provider[Q, R]) dispatch.Provider[Q, R] {
	return &compensateProvider[Q, R]{
		next:   next,
		logger: m.logger,
	}
}

// compensateProvider is the chain stage produced by the compensation
// middleware.
type compensateProvider[Q dispatch.Request[R], R any] struct {
	next   dispatch.Provider[Q, R]
	logger *slog.Logger
}

// Dispatch seeds a fresh stack, delegates inward, and unwinds staged actions
// when the inner Result is a failure. A panic unwinds the stack too and then
// continues to the dispatcher boundary.
func (p *compensateProvider[Q, R]) Dispatch(ctx context.Context, req Q) result.Result[R] {
	st := &stack{}
	ctx = context.WithValue(ctx, ctxKey{}, st)

	defer func() {
		if rec := recover(); rec != nil {
			st.unwind(ctx, p.logger)
			panic(rec)
		}
	}()

	res := p.next.Dispatch(ctx, req)
	if res.IsErr() {
		st.unwind(ctx, p.logger)
	}
	return res
}

// Register delegates to the next stage.
func (p *compensateProvider[Q, R]) Register(handler dispatch.Handler[Q, R]) error {
	return p.next.Register(handler)
}

// Shutdown delegates to the next stage.
func (p *compensateProvider[Q, R]) Shutdown(ctx context.Context) error {
	return p.next.Shutdown(ctx)
}
