package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Worker drains the publisher outbox into a secondary store such as Kafka.
// After threshold consecutive failures the store is skipped for cooldown so
// an outage costs dropped events, not a growing backlog.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger

	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	failures  int
	openUntil time.Time
	now       func() time.Time
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithBreaker sets how many consecutive failures pause delivery and for how long.
func WithBreaker(threshold int, cooldown time.Duration) WorkerOption {
	return func(w *Worker) {
		if threshold > 0 {
			w.threshold = threshold
		}
		if cooldown > 0 {
			w.cooldown = cooldown
		}
	}
}

func NewWorker(store Store, inbox <-chan Event, opts ...WorkerOption) *Worker {
	w := &Worker{
		store:     store,
		inbox:     inbox,
		logger:    slog.Default(),
		threshold: 5,
		cooldown:  time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run delivers events until ctx is done or the inbox is closed.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.deliver(ctx, event)
		}
	}
}

func (w *Worker) deliver(ctx context.Context, event Event) {
	if !w.allow() {
		return
	}
	if err := w.store.Append(ctx, event); err != nil {
		w.recordFailure()
		w.logger.WarnContext(ctx, "audit delivery failed", "action", event.Action, "error", err)
		return
	}
	w.recordSuccess()
}

func (w *Worker) allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failures < w.threshold {
		return true
	}
	if w.now().After(w.openUntil) {
		// Half-open: let one event probe the store.
		w.failures = w.threshold - 1
		return true
	}
	return false
}

func (w *Worker) recordFailure() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures++
	if w.failures >= w.threshold {
		w.openUntil = w.now().Add(w.cooldown)
	}
}

func (w *Worker) recordSuccess() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures = 0
}
