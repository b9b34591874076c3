// Package notify surfaces pipeline failures to the user. The notification
// middleware, not the handler, owns presentation: on a failed Result it
// localizes the catalog error and hands the message to the notifier, then
// returns the Result unchanged. Handlers never touch presentation concerns.
package notify

import (
	"context"

	"github.com/x-research-team/dispatch-framework/pipeline/dispatch"
	"github.com/x-research-team/dispatch-framework/pipeline/result"
)

// Notifier surfaces a failure message to the user.
type Notifier interface {
	Failure(ctx context.Context, message string)
}

// Localizer turns a catalog error into a display string.
type Localizer interface {
	Localize(err *result.Error) string
}

// middleware notifies on failed Results.
type middleware[Q dispatch.Request[R], R any] struct {
	notifier  Notifier
	localizer Localizer
}

// NewMiddleware creates the notification middleware. A nil notifier yields a
// no-op middleware; a nil localizer falls back to the error's own text.
func NewMiddleware[Q dispatch.Request[R], R any](notifier Notifier, localizer Localizer) dispatch.Middleware[Q, R] {
	if notifier == nil {
		return dispatch.MiddlewareFunc[Q, R](func(next dispatch.Provider[Q, R]) dispatch.Provider[Q, R] {
			return next
		})
	}
	return &middleware[Q, R]{
		notifier:  notifier,
		localizer: localizer,
	}
}

// Wrap wraps the next stage with failure notification.
func (m *middleware[Q, R]) Wrap(next dispatch.Provider[Q, R]) dispatch.Provider[Q, R] {
	return &notifyProvider[Q, R]{
		next:      next,
		notifier:  m.notifier,
		localizer: m.localizer,
	}
}

// notifyProvider is the chain stage produced by the notification middleware.
type notifyProvider[Q dispatch.Request[R], R any] struct {
	next      dispatch.Provider[Q, R]
	notifier  Notifier
	localizer Localizer
}

// Dispatch delegates inward and, on a failed Result, surfaces the localized
// message. The Result is returned unchanged either way.
func (p *notifyProvider[Q, R]) Dispatch(ctx context.Context, req Q) result.Result[R] {
	res := p.next.Dispatch(ctx, req)
	if res.IsErr() {
		p.notifier.Failure(ctx, p.localize(res.Err()))
	}
	return res
}

func (p *notifyProvider[Q, R]) localize(err *result.Error) string {
	if p.localizer == nil {
		return err.Error()
	}
	return p.localizer.Localize(err)
}

// Register delegates to the next stage.
func (p *notifyProvider[Q, R]) Register(handler dispatch.Handler[Q, R]) error {
	return p.next.Register(handler)
}

// Shutdown delegates to the next stage.
func (p *notifyProvider[Q, R]) Shutdown(ctx context.Context) error {
	return p.next.Shutdown(ctx)
}
