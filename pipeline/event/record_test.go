package event_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-research-team/dispatch-framework/pipeline/dispatch"
	"github.com/x-research-team/dispatch-framework/pipeline/event"
	"github.com/x-research-team/dispatch-framework/pipeline/result"
)

type recordedCommand struct {
	dispatch.Command
}

func (recordedCommand) DisplayName() string { return "Recorded Command" }

// recordingStub raises events through the recorder and returns a fixed
// Result.
type recordingStub struct {
	events []event.Event
	res    result.Result[string]
}

func (p *recordingStub) Dispatch(ctx context.Context, req recordedCommand) result.Result[string] {
	for _, e := range p.events {
		event.Record(ctx, e)
	}
	return p.res
}

func (p *recordingStub) Register(handler dispatch.Handler[recordedCommand, string]) error {
	return nil
}

func (p *recordingStub) Shutdown(ctx context.Context) error { return nil }

// Events recorded during a successful dispatch are published afterwards, in
// recording order.
func TestPublishMiddleware_PublishesOnSuccess(t *testing.T) {
	t.Parallel()

	var published []event.Event
	publish := func(ctx context.Context, e event.Event) error {
		published = append(published, e)
		return nil
	}

	wrapped := event.NewPublishMiddleware[recordedCommand, string](publish, nil).
		Wrap(&recordingStub{
			events: []event.Event{
				stylesReset{DocumentName: "a.docx"},
				stylesReset{DocumentName: "b.docx"},
			},
			res: result.Ok("applied"),
		})

	res := wrapped.Dispatch(context.Background(), recordedCommand{})

	require.True(t, res.IsOK())
	require.Len(t, published, 2, "every recorded event must be published")
	assert.Equal(t, "a.docx", published[0].(stylesReset).DocumentName)
	assert.Equal(t, "b.docx", published[1].(stylesReset).DocumentName)
}

// Events recorded during a failed dispatch are discarded.
func TestPublishMiddleware_DiscardsOnFailure(t *testing.T) {
	t.Parallel()

	var published []event.Event
	publish := func(ctx context.Context, e event.Event) error {
		published = append(published, e)
		return nil
	}

	wrapped := event.NewPublishMiddleware[recordedCommand, string](publish, nil).
		Wrap(&recordingStub{
			events: []event.Event{stylesReset{DocumentName: "a.docx"}},
			res:    result.Err[string](result.NewError("ResetStyles.Failed")),
		})

	res := wrapped.Dispatch(context.Background(), recordedCommand{})

	require.True(t, res.IsErr(), "the failure must pass through unchanged")
	assert.Empty(t, published, "no event must be published after a failure")
}

// Record outside a recorded dispatch is a no-op.
func TestRecord_OutsideDispatch(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		event.Record(context.Background(), stylesReset{DocumentName: "ignored.docx"})
	})
}

// The middleware seeds its own recorder per dispatch: events recorded on an
// outer context never leak into it.
func TestPublishMiddleware_FreshRecorderPerDispatch(t *testing.T) {
	t.Parallel()

	ctx, _ := event.WithRecorder(context.Background())
	event.Record(ctx, stylesReset{DocumentName: "outer.docx"})

	var published []event.Event
	wrapped := event.NewPublishMiddleware[recordedCommand, string](
		func(ctx context.Context, e event.Event) error {
			published = append(published, e)
			return nil
		}, nil).Wrap(&recordingStub{res: result.Ok("applied")})

	res := wrapped.Dispatch(ctx, recordedCommand{})

	require.True(t, res.IsOK())
	assert.Empty(t, published,
		"events recorded outside the middleware's own recorder must not leak in")
}

// Publisher adapts a typed bus and skips events of other types.
func TestPublisher_TypeRouting(t *testing.T) {
	t.Parallel()

	bus, err := event.NewBus[stylesReset]("document.styles.reset")
	require.NoError(t, err, "creating a bus must not fail")
	defer bus.Shutdown(context.Background())

	var received []stylesReset
	_, err = bus.Subscribe(func(ctx context.Context, e stylesReset) error {
		received = append(received, e)
		return nil
	})
	require.NoError(t, err, "subscribing must not fail")

	publish := event.Publisher[stylesReset](bus)

	require.NoError(t, publish(context.Background(), stylesReset{DocumentName: "typed.docx"}))
	require.NoError(t, publish(context.Background(), documentOpened{DocumentName: "other.docx"}),
		"an event of another type must be skipped, not fail")

	require.Len(t, received, 1, "only matching events must reach the bus")
	assert.Equal(t, "typed.docx", received[0].DocumentName)
}
