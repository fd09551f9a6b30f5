// Package audit streams committed engine writes to an operational sink.
//
// The ownership and status ledgers are the system of record; audit events are
// emitted after commit and a failed Emit never undoes a write.
package audit

import (
	"context"
	"log/slog"

	"provenance/pkg/requestcontext"
)

// Publisher accepts audit events.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to a structured logger.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	attrs := []any{
		"action", event.Action,
		"actor_id", event.ActorID,
		"timestamp", event.Timestamp,
	}
	if event.AccountID != nil {
		attrs = append(attrs, "account_id", *event.AccountID)
	}
	if event.AssetID != nil {
		attrs = append(attrs, "asset_id", *event.AssetID)
	}
	if event.DealID != nil {
		attrs = append(attrs, "deal_id", *event.DealID)
	}
	if event.Serial != "" {
		attrs = append(attrs, "serial", event.Serial)
	}
	if event.From != "" || event.To != "" {
		attrs = append(attrs, "from", event.From, "to", event.To)
	}
	if event.Reason != "" {
		attrs = append(attrs, "reason", event.Reason)
	}
	if event.RequestID != "" {
		attrs = append(attrs, "request_id", event.RequestID)
	}
	p.logger.InfoContext(ctx, "audit event", attrs...)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}

// Emitter stamps events with request metadata and logs publisher failures
// instead of returning them. Services hold one and call it after commit.
type Emitter struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewEmitter wraps publisher. A nil publisher makes Emit a no-op.
func NewEmitter(publisher Publisher, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{publisher: publisher, logger: logger}
}

func (e *Emitter) Emit(ctx context.Context, event Event) {
	if e == nil || e.publisher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if err := e.publisher.Emit(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}
