package dispatch_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/x-research-team/dispatch-framework/pipeline/dispatch"
	"github.com/x-research-team/dispatch-framework/pipeline/result"
)

// recordingMiddleware appends its name to a shared call log around the inner
// stage, so tests can assert the composed order of the chain.
type recordingMiddleware[Q dispatch.Request[R], R any] struct {
	name string
	log  *callLog
}

func (m *recordingMiddleware[Q, R]) Wrap(next dispatch.Provider[Q, R]) dispatch.Provider[Q, R] {
	return &recordingProvider[Q, R]{name: m.name, log: m.log, next: next}
}

type recordingProvider[Q dispatch.Request[R], R any] struct {
	name string
	log  *callLog
	next dispatch.Provider[Q, R]
}

func (p *recordingProvider[Q, R]) Dispatch(ctx context.Context, req Q) result.Result[R] {
	p.log.add(p.name + ":pre")
	res := p.next.Dispatch(ctx, req)
	p.log.add(p.name + ":post")
	return res
}

func (p *recordingProvider[Q, R]) Register(handler dispatch.Handler[Q, R]) error {
	return p.next.Register(handler)
}

func (p *recordingProvider[Q, R]) Shutdown(ctx context.Context) error {
	return p.next.Shutdown(ctx)
}

// callLog is a concurrency-safe ordered list of recorded entries.
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// Configured middlewares execute in registration order: the first registered
// wraps outermost, so its pre-action runs first and its post-action last.
func TestMiddleware_Order(t *testing.T) {
	t.Parallel()

	log := &callLog{}
	dispatcher, err := dispatch.NewDispatcher[testCommand, string](
		dispatch.WithMiddleware[testCommand, string](
			&recordingMiddleware[testCommand, string]{name: "first", log: log},
			&recordingMiddleware[testCommand, string]{name: "second", log: log},
		),
	)
	require.NoError(t, err, "creating a dispatcher must not fail")
	err = dispatcher.Register(func(ctx context.Context, cmd testCommand) result.Result[string] {
		log.add("handler")
		return result.Ok("done")
	})
	require.NoError(t, err, "registering a handler must not fail")

	res := dispatcher.Dispatch(context.Background(), testCommand{Value: "ordered"})

	require.True(t, res.IsOK(), "dispatch must succeed")
	assert.Equal(t,
		[]string{"first:pre", "second:pre", "handler", "second:post", "first:post"},
		log.all(),
		"pre-actions must run in registration order, post-actions in reverse")
}

// The composed order does not depend on request content: two dispatches with
// different payloads traverse the same chain.
func TestMiddleware_Order_Stable(t *testing.T) {
	t.Parallel()

	log := &callLog{}
	dispatcher, err := dispatch.NewDispatcher[testCommand, string](
		dispatch.WithMiddleware[testCommand, string](
			&recordingMiddleware[testCommand, string]{name: "only", log: log},
		),
	)
	require.NoError(t, err, "creating a dispatcher must not fail")
	require.NoError(t, dispatcher.Register(testCommandHandler))

	dispatcher.Dispatch(context.Background(), testCommand{Value: "a"})
	dispatcher.Dispatch(context.Background(), testCommand{Value: "b"})

	assert.Equal(t,
		[]string{"only:pre", "only:post", "only:pre", "only:post"},
		log.all(),
		"every dispatch must traverse the identical chain")
}

// A successful Result passes through the whole chain unchanged.
func TestMiddleware_SuccessPassthrough(t *testing.T) {
	t.Parallel()

	dispatcher, err := dispatch.NewDispatcher[testCommand, string](
		dispatch.WithMiddleware[testCommand, string](
			&recordingMiddleware[testCommand, string]{name: "outer", log: &callLog{}},
		),
	)
	require.NoError(t, err, "creating a dispatcher must not fail")
	require.NoError(t, dispatcher.Register(testCommandHandler))

	res := dispatcher.Dispatch(context.Background(), testCommand{Value: "payload"})

	require.True(t, res.IsOK(), "dispatch must succeed")
	assert.Equal(t, "processed: payload", res.Value(),
		"middlewares must not alter a successful result")
}

// captureHandler is a slog handler that records message strings in order.
type captureHandler struct {
	mu   sync.Mutex
	msgs []string
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, r.Message)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.msgs...)
}

// The logging middleware emits exactly one start line and one outcome line
// per dispatch, in that order.
func TestLoggingMiddleware_SuccessOutcome(t *testing.T) {
	t.Parallel()

	capture := &captureHandler{}
	dispatcher, err := dispatch.NewDispatcher[testCommand, string](
		dispatch.WithLogger[testCommand, string](slog.New(capture)),
	)
	require.NoError(t, err, "creating a dispatcher must not fail")
	require.NoError(t, dispatcher.Register(testCommandHandler))

	res := dispatcher.Dispatch(context.Background(), testCommand{Value: "logged"})

	require.True(t, res.IsOK(), "dispatch must succeed")
	msgs := capture.messages()
	require.Equal(t,
		[]string{"registering request handler", "dispatching request", "request succeeded"},
		msgs,
		"a successful dispatch must emit one start line followed by one success line")
}

// A failed Result is logged as an outcome line carrying the failure code.
func TestLoggingMiddleware_FailureOutcome(t *testing.T) {
	t.Parallel()

	capture := &captureHandler{}
	dispatcher, err := dispatch.NewDispatcher[testCommand, string](
		dispatch.WithLogger[testCommand, string](slog.New(capture)),
	)
	require.NoError(t, err, "creating a dispatcher must not fail")
	require.NoError(t, dispatcher.Register(func(ctx context.Context, cmd testCommand) result.Result[string] {
		return result.Err[string](result.NewError("ResetStyles.Failed"))
	}))

	res := dispatcher.Dispatch(context.Background(), testCommand{Value: "failing"})

	require.True(t, res.IsErr(), "dispatch must fail")
	assert.Contains(t, capture.messages(), "request failed",
		"a failed dispatch must emit a failure outcome line")
	assert.NotContains(t, capture.messages(), "request succeeded",
		"a failed dispatch must not emit a success line")
}

// The timing middleware records one counter increment and one duration sample
// per dispatch, attributed by request type and status.
func TestMetricsMiddleware_RecordsDispatch(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	dispatcher, err := dispatch.NewDispatcher[testCommand, string](
		dispatch.WithMeterProvider[testCommand, string](provider),
	)
	require.NoError(t, err, "creating a dispatcher must not fail")
	require.NoError(t, dispatcher.Register(testCommandHandler))

	res := dispatcher.Dispatch(context.Background(), testCommand{Value: "measured"})
	require.True(t, res.IsOK(), "dispatch must succeed")

	var collected metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &collected))
	require.Len(t, collected.ScopeMetrics, 1, "metrics must be collected under one scope")

	names := make([]string, 0, len(collected.ScopeMetrics[0].Metrics))
	for _, m := range collected.ScopeMetrics[0].Metrics {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "pipeline.dispatch.count",
		"each dispatch must increment the dispatch counter")
	assert.Contains(t, names, "pipeline.process.duration",
		"each dispatch must record a processing duration sample")
}

// The context-setup middleware opens one span per dispatch and records the
// failure on it when the Result is an error.
func TestTracingMiddleware_RecordsSpan(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	dispatcher, err := dispatch.NewDispatcher[testCommand, string](
		dispatch.WithTracerProvider[testCommand, string](provider),
	)
	require.NoError(t, err, "creating a dispatcher must not fail")
	require.NoError(t, dispatcher.Register(func(ctx context.Context, cmd testCommand) result.Result[string] {
		return result.Err[string](result.NewError("ResetStyles.Failed"))
	}))

	res := dispatcher.Dispatch(context.Background(), testCommand{Value: "traced"})
	require.True(t, res.IsErr(), "dispatch must fail")

	spans := recorder.Ended()
	require.Len(t, spans, 1, "one span must be recorded per dispatch")
	assert.Contains(t, spans[0].Name(), "testCommand",
		"the span name must carry the request type")
	require.Len(t, spans[0].Events(), 1, "the failure must be recorded on the span")
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}
