package compensate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-research-team/dispatch-framework/pipeline/compensate"
	"github.com/x-research-team/dispatch-framework/pipeline/dispatch"
	"github.com/x-research-team/dispatch-framework/pipeline/result"
)

type undoableCommand struct {
	dispatch.Command
}

func (undoableCommand) DisplayName() string { return "Undoable Command" }

// handlerProvider runs a handler function as the innermost stage.
type handlerProvider struct {
	fn func(ctx context.Context) result.Result[string]
}

func (p *handlerProvider) Dispatch(ctx context.Context, req undoableCommand) result.Result[string] {
	return p.fn(ctx)
}

func (p *handlerProvider) Register(handler dispatch.Handler[undoableCommand, string]) error {
	return nil
}

func (p *handlerProvider) Shutdown(ctx context.Context) error { return nil }

func wrap(fn func(ctx context.Context) result.Result[string]) dispatch.Provider[undoableCommand, string] {
	return compensate.NewMiddleware[undoableCommand, string](nil).Wrap(&handlerProvider{fn: fn})
}

// Staged actions run in reverse order when the inner Result is a failure.
func TestMiddleware_UnwindsOnFailure(t *testing.T) {
	t.Parallel()

	var undone []string
	failure := result.NewError("ResetStyles.Failed")
	wrapped := wrap(func(ctx context.Context) result.Result[string] {
		compensate.Push(ctx, func(ctx context.Context) error {
			undone = append(undone, "first")
			return nil
		})
		compensate.Push(ctx, func(ctx context.Context) error {
			undone = append(undone, "second")
			return nil
		})
		return result.Err[string](failure)
	})

	res := wrapped.Dispatch(context.Background(), undoableCommand{})

	require.True(t, res.IsErr(), "the failure must pass through unchanged")
	assert.Same(t, failure, res.Err())
	assert.Equal(t, []string{"second", "first"}, undone,
		"compensations must run in reverse staging order")
}

// Nothing is undone on success.
func TestMiddleware_DiscardsOnSuccess(t *testing.T) {
	t.Parallel()

	var undone []string
	wrapped := wrap(func(ctx context.Context) result.Result[string] {
		compensate.Push(ctx, func(ctx context.Context) error {
			undone = append(undone, "first")
			return nil
		})
		return result.Ok("applied")
	})

	res := wrapped.Dispatch(context.Background(), undoableCommand{})

	require.True(t, res.IsOK())
	assert.Empty(t, undone, "no compensation must run on success")
}

// A failing compensation does not stop the remaining ones and does not mask
// the original failure.
func TestMiddleware_UnwindContinuesPastFailures(t *testing.T) {
	t.Parallel()

	var undone []string
	failure := result.NewError("ResetStyles.Failed")
	wrapped := wrap(func(ctx context.Context) result.Result[string] {
		compensate.Push(ctx, func(ctx context.Context) error {
			undone = append(undone, "first")
			return nil
		})
		compensate.Push(ctx, func(ctx context.Context) error {
			return errors.New("undo broke")
		})
		return result.Err[string](failure)
	})

	res := wrapped.Dispatch(context.Background(), undoableCommand{})

	require.True(t, res.IsErr())
	assert.Same(t, failure, res.Err(), "a failed compensation must not replace the original failure")
	assert.Equal(t, []string{"first"}, undone,
		"the remaining compensations must still run")
}

// A panic unwinds the staged actions before continuing to the dispatcher
// boundary.
func TestMiddleware_UnwindsOnPanic(t *testing.T) {
	t.Parallel()

	var undone []string
	wrapped := wrap(func(ctx context.Context) result.Result[string] {
		compensate.Push(ctx, func(ctx context.Context) error {
			undone = append(undone, "first")
			return nil
		})
		panic("handler exploded")
	})

	assert.PanicsWithValue(t, "handler exploded", func() {
		wrapped.Dispatch(context.Background(), undoableCommand{})
	}, "the panic must continue past the compensation stage")
	assert.Equal(t, []string{"first"}, undone,
		"staged actions must be undone before the panic propagates")
}

// Push outside a compensated chain is a no-op.
func TestPush_OutsideChain(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		compensate.Push(context.Background(), func(ctx context.Context) error {
			t.Fatal("the action must never run")
			return nil
		})
	})
}

// Each dispatch gets its own stack: actions staged in one dispatch never leak
// into the next.
func TestMiddleware_FreshStackPerDispatch(t *testing.T) {
	t.Parallel()

	var undone []string
	calls := 0
	wrapped := wrap(func(ctx context.Context) result.Result[string] {
		calls++
		if calls == 1 {
			compensate.Push(ctx, func(ctx context.Context) error {
				undone = append(undone, "stale")
				return nil
			})
			return result.Ok("applied")
		}
		return result.Err[string](result.NewError("ResetStyles.Failed"))
	})

	require.True(t, wrapped.Dispatch(context.Background(), undoableCommand{}).IsOK())
	require.True(t, wrapped.Dispatch(context.Background(), undoableCommand{}).IsErr())

	assert.Empty(t, undone,
		"actions staged by a previous dispatch must never run for a later one")
}
