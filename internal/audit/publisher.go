package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"parkspace/pkg/requestcontext"
)

// Publisher hands events to the background worker. Emit never blocks the
// calling operation: when the inbox is full the event is dropped and counted
// in the log rather than stalling a state transition.
type Publisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewPublisher(inbox chan<- Event, logger *slog.Logger) *Publisher {
	return &Publisher{inbox: inbox, logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"lot_id", event.LotID,
		)
	}
}
