package event

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// subscription holds one subscriber: the composed handler, its identifier
// used for unsubscribing, and its delivery options.
type subscription[T Event] struct {
	id           string
	handler      Handler[T]
	isAsync      bool
	errorHandler ErrorHandler[T]
}

// localProvider delivers events in-process. Synchronous subscribers run
// inline with Publish; asynchronous subscribers run on the worker pool.
type localProvider[T Event] struct {
	topic string
	subs  []*subscription[T]
	mu    sync.RWMutex
	pool  *workerPool[T]
	cfg   *config[T]
}

// newLocalProvider creates a local provider and starts its worker pool.
func newLocalProvider[T Event](topic string, cfg *config[T]) (*localProvider[T], error) {
	pool := newWorkerPool[T](cfg.workers, cfg.queueSize, cfg.logger)
	pool.run()

	return &localProvider[T]{
		topic: topic,
		pool:  pool,
		cfg:   cfg,
	}, nil
}

// Publish delivers the event to every current subscriber.
func (lp *localProvider[T]) Publish(ctx context.Context, event T) error {
	lp.mu.RLock()
	subs := make([]*subscription[T], len(lp.subs))
	copy(subs, lp.subs)
	lp.mu.RUnlock()

	for _, sub := range subs {
		if sub.isAsync {
			task := &task[T]{
				ctx:          ctx,
				event:        event,
				handler:      sub.handler,
				errorHandler: sub.errorHandler,
			}
			if !lp.pool.submit(task) {
				lp.cfg.logger.Warn("async task queue is full, delivering inline",
					slog.String("topic", lp.topic),
				)
				lp.deliver(ctx, event, sub)
			}
			continue
		}
		lp.deliver(ctx, event, sub)
	}

	return nil
}

// deliver invokes the handler and routes its error.
func (lp *localProvider[T]) deliver(ctx context.Context, event T, sub *subscription[T]) {
	if err := sub.handler(ctx, event); err != nil {
		if sub.errorHandler != nil {
			sub.errorHandler(err, event)
			return
		}
		lp.cfg.logger.Error("event handler failed",
			slog.String("topic", lp.topic),
			slog.Any("error", err),
		)
	}
}

// Subscribe applies the subscription options, folds the per-subscription
// middleware (first-listed outermost), and registers the subscriber.
func (lp *localProvider[T]) Subscribe(handler Handler[T], opts ...SubscribeOption[T]) (unsubscribe func(), err error) {
	subOpts := subscriptionOptions[T]{}
	for _, opt := range opts {
		opt(&subOpts)
	}

	finalHandler := handler
	for i := len(subOpts.middleware) - 1; i >= 0; i-- {
		finalHandler = subOpts.middleware[i](finalHandler)
	}

	sub := &subscription[T]{
		id:           uuid.NewString(),
		handler:      finalHandler,
		isAsync:      subOpts.isAsync,
		errorHandler: subOpts.errorHandler,
	}

	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.subs = append(lp.subs, sub)

	return func() {
		lp.mu.Lock()
		defer lp.mu.Unlock()

		for i, s := range lp.subs {
			if s.id == sub.id {
				lp.subs = append(lp.subs[:i], lp.subs[i+1:]...)
				break
			}
		}
	}, nil
}

// Shutdown stops the worker pool after draining queued tasks.
func (lp *localProvider[T]) Shutdown(ctx context.Context) error {
	lp.pool.stop()
	return nil
}
