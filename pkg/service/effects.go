package service

import (
	"context"
	"time"

	"github.com/example/shopfront/pkg/events"
	"github.com/example/shopfront/pkg/repository"
	"go.uber.org/zap"
)

const effectTimeout = 3 * time.Second

// Effects runs the post-commit work of a mutation: the audit entry and the
// domain event. Failures are logged and never reach the caller.
type Effects struct {
	audit     repository.AuditLog
	publisher events.Publisher
	logger    *zap.Logger
}

func NewEffects(audit repository.AuditLog, publisher events.Publisher, logger *zap.Logger) *Effects {
	if audit == nil {
		audit = repository.NopAuditLog{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Effects{audit: audit, publisher: publisher, logger: logger}
}

func (e *Effects) Record(ctx context.Context, entry *repository.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), effectTimeout)
	defer cancel()

	if err := e.audit.Record(ctx, entry); err != nil {
		e.logger.Warn("Failed to write audit entry",
			zap.String("action", entry.Action),
			zap.String("entity", entry.Entity),
			zap.Uint("entity_id", entry.EntityID),
			zap.Error(err))
	}
}

func (e *Effects) Publish(ctx context.Context, event events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), effectTimeout)
	defer cancel()

	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.Warn("Failed to publish event",
			zap.String("type", event.Type),
			zap.Uint("order_id", event.OrderID),
			zap.Error(err))
	}
}
