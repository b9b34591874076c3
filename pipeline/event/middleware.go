package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/x-research-team/dispatch-framework/pipeline/event"
	metricKeyPrefix     = "events."
)

// loggingBusMiddleware logs publish failures and subscription lifecycle.
type loggingBusMiddleware[T Event] struct {
	logger *slog.Logger
	topic  string
}

func newLoggingBusMiddleware[T Event](logger *slog.Logger, topic string) BusMiddleware[T] {
	if logger == nil {
		return &noopBusMiddleware[T]{}
	}
	return &loggingBusMiddleware[T]{logger: logger, topic: topic}
}

// Wrap wraps the provider with logging.
func (m *loggingBusMiddleware[T]) Wrap(next Provider[T]) Provider[T] {
	return &loggingBusProvider[T]{next: next, logger: m.logger, topic: m.topic}
}

type loggingBusProvider[T Event] struct {
	next   Provider[T]
	logger *slog.Logger
	topic  string
}

// Publish logs and publishes the event.
func (p *loggingBusProvider[T]) Publish(ctx context.Context, event T) error {
	p.logger.Debug("publishing event", slog.String("topic", p.topic))
	if err := p.next.Publish(ctx, event); err != nil {
		p.logger.Error("event publish failed",
			slog.String("topic", p.topic),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// Subscribe logs and registers the subscription.
func (p *loggingBusProvider[T]) Subscribe(handler Handler[T], opts ...SubscribeOption[T]) (func(), error) {
	p.logger.Info("subscribing event handler", slog.String("topic", p.topic))
	return p.next.Subscribe(handler, opts...)
}

// Shutdown delegates to the next provider.
func (p *loggingBusProvider[T]) Shutdown(ctx context.Context) error {
	return p.next.Shutdown(ctx)
}

// metricsBusMiddleware counts published events and times publish calls.
type metricsBusMiddleware[T Event] struct {
	publishCounter      metric.Int64Counter
	publishDurationHist metric.Float64Histogram
	topic               string
}

func newMetricsBusMiddleware[T Event](provider metric.MeterProvider, topic string) BusMiddleware[T] {
	if provider == nil {
		return &noopBusMiddleware[T]{}
	}

	meter := provider.Meter(instrumentationName)

	publishCounter, err := meter.Int64Counter(
		metricKeyPrefix+"publish.count",
		metric.WithDescription("Number of published events"),
		metric.WithUnit("{events}"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create the publish.count counter: %v", err))
	}

	publishDurationHist, err := meter.Float64Histogram(
		metricKeyPrefix+"publish.duration",
		metric.WithDescription("Event publish duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create the publish.duration histogram: %v", err))
	}

	return &metricsBusMiddleware[T]{
		publishCounter:      publishCounter,
		publishDurationHist: publishDurationHist,
		topic:               topic,
	}
}

// Wrap wraps the provider with metrics collection.
func (m *metricsBusMiddleware[T]) Wrap(next Provider[T]) Provider[T] {
	return &metricsBusProvider[T]{
		next:                next,
		publishCounter:      m.publishCounter,
		publishDurationHist: m.publishDurationHist,
		topic:               m.topic,
	}
}

type metricsBusProvider[T Event] struct {
	next                Provider[T]
	publishCounter      metric.Int64Counter
	publishDurationHist metric.Float64Histogram
	topic               string
}

// Publish times the publish call and records the outcome.
func (p *metricsBusProvider[T]) Publish(ctx context.Context, event T) error {
	start := time.Now()
	err := p.next.Publish(ctx, event)
	duration := float64(time.Since(start).Milliseconds())

	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("topic", p.topic),
		attribute.String("status", status),
	)

	p.publishCounter.Add(ctx, 1, attrs)
	p.publishDurationHist.Record(ctx, duration, attrs)

	return err
}

// Subscribe delegates to the next provider.
func (p *metricsBusProvider[T]) Subscribe(handler Handler[T], opts ...SubscribeOption[T]) (func(), error) {
	return p.next.Subscribe(handler, opts...)
}

// Shutdown delegates to the next provider.
func (p *metricsBusProvider[T]) Shutdown(ctx context.Context) error {
	return p.next.Shutdown(ctx)
}

// applyBusMiddlewares folds the middleware list around the provider, first
// listed outermost.
func applyBusMiddlewares[T Event](provider Provider[T], middlewares ...BusMiddleware[T]) Provider[T] {
	p := provider
	for i := len(middlewares) - 1; i >= 0; i-- {
		p = middlewares[i].Wrap(p)
	}
	return p
}

// noopBusMiddleware leaves the provider unchanged.
type noopBusMiddleware[T Event] struct{}

// Wrap returns the next provider as-is.
func (m *noopBusMiddleware[T]) Wrap(next Provider[T]) Provider[T] {
	return next
}
