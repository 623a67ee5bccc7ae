package audit

import (
	"context"
	"log/slog"

	"membership/pkg/requestcontext"
)

// Publisher records lifecycle events. The primary store is written
// synchronously; when an outbox is attached, events are also queued for a
// Worker to forward. A full outbox drops the event rather than block the
// wizard.
type Publisher struct {
	store  Store
	outbox chan<- Event
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithOutbox forwards every event to outbox as well.
func WithOutbox(outbox chan<- Event) Option {
	return func(p *Publisher) {
		p.outbox = outbox
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx).UTC()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if p.outbox != nil {
		select {
		case p.outbox <- event:
		default:
			p.logger.WarnContext(ctx, "audit outbox full, dropping event", "action", event.Action)
		}
	}
	return p.store.Append(ctx, event)
}

// Emitter is what domain services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
