package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/goccy/go-reflect"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/x-research-team/dispatch-framework/pipeline/result"
)

const (
	instrumentationName    = "github.com/x-research-team/dispatch-framework/pipeline/dispatch"
	instrumentationVersion = "0.1.0"
	metricKeyPrefix        = "pipeline."
)

// Middleware is one cross-cutting behavior wrapped around an inner stage of
// the same request/result shape. Its position in the chain is fixed when the
// chain is composed and never changes afterwards. A middleware must return a
// successful Result unchanged; it may substitute its own failure only on a
// path it owns.
type Middleware[Q Request[R], R any] interface {
	Wrap(next Provider[Q, R]) Provider[Q, R]
}

// MiddlewareFunc adapts a plain function to the Middleware interface.
type MiddlewareFunc[Q Request[R], R any] func(next Provider[Q, R]) Provider[Q, R]

// Wrap implements Middleware.
func (f MiddlewareFunc[Q, R]) Wrap(next Provider[Q, R]) Provider[Q, R] {
	return f(next)
}

// loggingMiddleware emits one start line and one outcome line per dispatch.
// It is installed outermost so its pre-action runs first and its post-action
// runs last.
type loggingMiddleware[Q Request[R], R any] struct {
	logger *slog.Logger
}

// NewLoggingMiddleware creates the logging middleware. A nil logger yields a
// no-op middleware.
func NewLoggingMiddleware[Q Request[R], R any](logger *slog.Logger) Middleware[Q, R] {
	if logger == nil {
		return &noopMiddleware[Q, R]{}
	}
	return &loggingMiddleware[Q, R]{
		logger: logger,
	}
}

// Wrap wraps the next stage with logging.
func (m *loggingMiddleware[Q, R]) Wrap(next Provider[Q, R]) Provider[Q, R] {
	return &loggingProvider[Q, R]{
		next:   next,
		logger: m.logger,
	}
}

// loggingProvider is the chain stage produced by loggingMiddleware.
type loggingProvider[Q Request[R], R any] struct {
	next   Provider[Q, R]
	logger *slog.Logger
}

// Dispatch logs the start of the request, delegates inward, and logs the
// outcome. The Result is returned unchanged.
func (p *loggingProvider[Q, R]) Dispatch(ctx context.Context, req Q) result.Result[R] {
	reqType := requestTypeName[Q, R]()
	p.logger.Info("dispatching request",
		slog.String("request", reqType),
		slog.String("kind", req.RequestKind().String()),
		slog.String("display_name", req.DisplayName()),
	)

	start := time.Now()
	res := p.next.Dispatch(ctx, req)
	duration := time.Since(start)

	if res.IsErr() {
		p.logger.Error("request failed",
			slog.String("request", reqType),
			slog.String("display_name", req.DisplayName()),
			slog.String("code", res.Err().Code()),
			slog.Duration("duration", duration),
		)
	} else {
		p.logger.Info("request succeeded",
			slog.String("request", reqType),
			slog.String("display_name", req.DisplayName()),
			slog.Duration("duration", duration),
		)
	}

	return res
}

// Register logs handler registration before delegating.
func (p *loggingProvider[Q, R]) Register(handler Handler[Q, R]) (err error) {
	p.logger.Info("registering request handler",
		slog.String("request", requestTypeName[Q, R]()),
		slog.String("handler", handlerName(handler)),
	)
	defer func() {
		if err != nil {
			p.logger.Error("handler registration failed",
				slog.String("request", requestTypeName[Q, R]()),
				slog.Any("error", err),
			)
		}
	}()
	return p.next.Register(handler)
}

// Shutdown delegates to the next stage.
func (p *loggingProvider[Q, R]) Shutdown(ctx context.Context) error {
	return p.next.Shutdown(ctx)
}

// metricsMiddleware is the performance-timing decorator: it records a
// dispatch counter and a processing-duration histogram per request type.
type metricsMiddleware[Q Request[R], R any] struct {
	meter               metric.Meter
	dispatchCounter     metric.Int64Counter
	processDurationHist metric.Float64Histogram
}

// NewMetricsMiddleware creates the timing middleware. A nil provider yields
// a no-op middleware.
func NewMetricsMiddleware[Q Request[R], R any](provider metric.MeterProvider) Middleware[Q, R] {
	if provider == nil {
		return &noopMiddleware[Q, R]{}
	}

	meter := provider.Meter(instrumentationName)

	dispatchCounter, err := meter.Int64Counter(
		metricKeyPrefix+"dispatch.count",
		metric.WithDescription("Number of dispatched requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create the dispatch.count counter: %v", err))
	}

	processDurationHist, err := meter.Float64Histogram(
		metricKeyPrefix+"process.duration",
		metric.WithDescription("Request processing duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create the process.duration histogram: %v", err))
	}

	return &metricsMiddleware[Q, R]{
		meter:               meter,
		dispatchCounter:     dispatchCounter,
		processDurationHist: processDurationHist,
	}
}

// Wrap wraps the next stage with metrics collection.
func (m *metricsMiddleware[Q, R]) Wrap(next Provider[Q, R]) Provider[Q, R] {
	return &metricsProvider[Q, R]{
		next:                next,
		dispatchCounter:     m.dispatchCounter,
		processDurationHist: m.processDurationHist,
	}
}

// metricsProvider is the chain stage produced by metricsMiddleware.
type metricsProvider[Q Request[R], R any] struct {
	next                Provider[Q, R]
	dispatchCounter     metric.Int64Counter
	processDurationHist metric.Float64Histogram
}

// Dispatch times the inner stages and records the outcome.
func (p *metricsProvider[Q, R]) Dispatch(ctx context.Context, req Q) result.Result[R] {
	start := time.Now()
	res := p.next.Dispatch(ctx, req)
	duration := float64(time.Since(start).Milliseconds())

	status := "success"
	if res.IsErr() {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("request.type", requestTypeName[Q, R]()),
		attribute.String("request.kind", req.RequestKind().String()),
		attribute.String("status", status),
	)

	p.dispatchCounter.Add(ctx, 1, attrs)
	p.processDurationHist.Record(ctx, duration, attrs)

	return res
}

// Register delegates to the next stage.
func (p *metricsProvider[Q, R]) Register(handler Handler[Q, R]) error {
	return p.next.Register(handler)
}

// Shutdown delegates to the next stage.
func (p *metricsProvider[Q, R]) Shutdown(ctx context.Context) error {
	return p.next.Shutdown(ctx)
}

// tracingMiddleware is the context-setup decorator: it opens a span per
// dispatch and extracts propagation metadata carried by the request.
type tracingMiddleware[Q Request[R], R any] struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// NewTracingMiddleware creates the tracing middleware. A nil tracer provider
// yields a no-op middleware.
func NewTracingMiddleware[Q Request[R], R any](tp trace.TracerProvider, p propagation.TextMapPropagator) Middleware[Q, R] {
	if tp == nil {
		return &noopMiddleware[Q, R]{}
	}

	if p == nil {
		p = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	}

	return &tracingMiddleware[Q, R]{
		tracer: tp.Tracer(
			instrumentationName,
			trace.WithInstrumentationVersion(instrumentationVersion),
		),
		propagator: p,
	}
}

// Wrap wraps the next stage with span management.
func (m *tracingMiddleware[Q, R]) Wrap(next Provider[Q, R]) Provider[Q, R] {
	return &tracingProvider[Q, R]{
		next:       next,
		tracer:     m.tracer,
		propagator: m.propagator,
	}
}

// tracingProvider is the chain stage produced by tracingMiddleware.
type tracingProvider[Q Request[R], R any] struct {
	next       Provider[Q, R]
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// Dispatch opens a span around the inner stages and records a failed Result
// on it. The Result itself is returned unchanged.
func (p *tracingProvider[Q, R]) Dispatch(ctx context.Context, req Q) result.Result[R] {
	if md, ok := (any(req)).(Metadatable); ok {
		ctx = p.propagator.Extract(ctx, propagation.MapCarrier(md.Metadata()))
	}

	spanName := fmt.Sprintf("%s process", requestTypeName[Q, R]())
	ctx, span := p.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	res := p.next.Dispatch(ctx, req)
	if res.IsErr() {
		span.RecordError(res.Err())
	}
	return res
}

// Register delegates to the next stage.
func (p *tracingProvider[Q, R]) Register(handler Handler[Q, R]) error {
	return p.next.Register(handler)
}

// Shutdown delegates to the next stage.
func (p *tracingProvider[Q, R]) Shutdown(ctx context.Context) error {
	return p.next.Shutdown(ctx)
}

// applyMiddlewares folds the middleware list around the terminal provider.
// The fold runs right to left, so the first-listed middleware becomes the
// outermost wrapper: pre-actions run in list order, post-actions in reverse.
func applyMiddlewares[Q Request[R], R any](provider Provider[Q, R], middlewares ...Middleware[Q, R]) Provider[Q, R] {
	p := provider
	for i := len(middlewares) - 1; i >= 0; i-- {
		p = middlewares[i].Wrap(p)
	}
	return p
}

// noopMiddleware leaves the chain unchanged.
type noopMiddleware[Q Request[R], R any] struct{}

// Wrap returns the next stage as-is.
func (m *noopMiddleware[Q, R]) Wrap(next Provider[Q, R]) Provider[Q, R] {
	return next
}

// handlerName extracts a diagnostic name for a handler function.
func handlerName(handler any) string {
	v := reflect.ValueOf(handler)
	if v.Kind() == reflect.Func {
		if pc := v.Pointer(); pc != 0 {
			if f := runtime.FuncForPC(pc); f != nil {
				return f.Name()
			}
		}
	}
	return reflect.TypeOf(handler).String()
}
