package event

import (
	"log/slog"
	"sync"
)

// workerPool runs asynchronous subscriber deliveries on a fixed set of
// goroutines fed from a bounded queue.
type workerPool[T Event] struct {
	workers int
	tasks   chan *task[T]
	wg      sync.WaitGroup
	logger  *slog.Logger
	once    sync.Once
}

// newWorkerPool creates a pool. Non-positive sizes fall back to minimal
// defaults.
func newWorkerPool[T Event](workers, queueSize int, logger *slog.Logger) *workerPool[T] {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &workerPool[T]{
		workers: workers,
		tasks:   make(chan *task[T], queueSize),
		logger:  logger,
	}
}

// run starts the workers.
func (p *workerPool[T]) run() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop closes the queue, letting workers drain it, and waits for them.
func (p *workerPool[T]) stop() {
	p.once.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}

// submit enqueues a task without blocking; it reports false when the queue
// is full.
func (p *workerPool[T]) submit(t *task[T]) bool {
	select {
	case p.tasks <- t:
		return true
	default:
		return false
	}
}

// worker is the goroutine body: it delivers tasks until the queue closes.
func (p *workerPool[T]) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		if err := t.handler(t.ctx, t.event); err != nil {
			if t.errorHandler != nil {
				t.errorHandler(err, t.event)
				continue
			}
			p.logger.Error("async event handler failed",
				slog.String("topic", t.event.Topic()),
				slog.Any("error", err),
			)
		}
	}
}
