package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/x-research-team/dispatch-framework/pipeline/event"
)

// RetransmitterOption configures a Retransmitter.
type RetransmitterOption[T event.Event] func(*Retransmitter[T])

// WithInterval sets the storage polling interval.
func WithInterval[T event.Event](interval time.Duration) RetransmitterOption[T] {
	return func(r *Retransmitter[T]) {
		r.interval = interval
	}
}

// WithLimit sets the maximum number of messages fetched per cycle.
func WithLimit[T event.Event](limit int) RetransmitterOption[T] {
	return func(r *Retransmitter[T]) {
		r.limit = limit
	}
}

// WithLogger sets the logger.
func WithLogger[T event.Event](logger *slog.Logger) RetransmitterOption[T] {
	return func(r *Retransmitter[T]) {
		r.logger = logger
	}
}

// Retransmitter is the background process that drains stored messages onto
// the real bus. It works with one concrete event type T and the storage the
// outbox middleware writes to.
type Retransmitter[T event.Event] struct {
	storage   Storage
	actualBus event.IBus[T]
	ticker    *time.Ticker
	done      chan struct{}
	interval  time.Duration
	limit     int
	logger    *slog.Logger
}

// NewRetransmitter creates a retransmitter over storage and bus.
func NewRetransmitter[T event.Event](storage Storage, actualBus event.IBus[T], opts ...RetransmitterOption[T]) *Retransmitter[T] {
	r := &Retransmitter[T]{
		storage:   storage,
		actualBus: actualBus,
		done:      make(chan struct{}),
		interval:  5 * time.Second,
		limit:     100,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start launches the background draining loop.
func (r *Retransmitter[T]) Start() {
	r.ticker = time.NewTicker(r.interval)
	go func() {
		r.logger.Info("outbox retransmitter started")
		for {
			select {
			case <-r.ticker.C:
				if err := r.processBatch(); err != nil {
					r.logger.Error("failed to process outbox batch", slog.Any("error", err))
				}
			case <-r.done:
				r.logger.Info("outbox retransmitter stopped")
				return
			}
		}
	}()
}

// processBatch runs one fetch-and-publish cycle.
func (r *Retransmitter[T]) processBatch() error {
	ctx := context.Background()
	messages, err := r.storage.Fetch(ctx, r.limit)
	if err != nil {
		return err
	}

	if len(messages) == 0 {
		return nil
	}

	processedIDs := make([]uuid.UUID, 0, len(messages))
	for _, msg := range messages {
		var evt T
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			r.logger.Error("failed to deserialize outbox message",
				slog.String("message_id", msg.ID.String()),
				slog.Any("error", err),
			)
			continue
		}

		if err := r.actualBus.Publish(ctx, evt); err != nil {
			r.logger.Error("failed to publish outbox message",
				slog.String("message_id", msg.ID.String()),
				slog.Any("error", err),
			)
			continue
		}

		processedIDs = append(processedIDs, msg.ID)
	}

	if len(processedIDs) > 0 {
		if err := r.storage.MarkProcessed(ctx, processedIDs...); err != nil {
			return err
		}
		r.logger.Info("retransmitted outbox messages", slog.Int("count", len(processedIDs)))
	}

	return nil
}

// Stop halts the draining loop.
func (r *Retransmitter[T]) Stop() {
	if r.ticker != nil {
		r.ticker.Stop()
	}
	close(r.done)
}
