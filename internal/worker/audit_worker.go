package worker

import (
	"context"
	"fmt"
	"time"

	"txview/internal/amqp"
	"txview/internal/log"
	"txview/internal/store"
)

// Consumer delivers approval.changed messages to a handler until ctx is done.
type Consumer interface {
	ConsumeApprovalChanges(ctx context.Context, handler func(context.Context, *amqp.ApprovalChangedMessage) error) error
}

// AuditWorker records every published approval change in the audit trail.
type AuditWorker struct {
	recorder store.ApprovalEventRecorder
	logger   *log.Logger
	now      func() time.Time
}

func NewAuditWorker(recorder store.ApprovalEventRecorder, logger *log.Logger) *AuditWorker {
	return &AuditWorker{
		recorder: recorder,
		logger:   log.OrDefault(logger, log.ComponentWorker),
		now:      time.Now,
	}
}

// HandleApprovalChanged stores one message. Messages without a timestamp are
// recorded at the time they are handled.
func (w *AuditWorker) HandleApprovalChanged(ctx context.Context, msg *amqp.ApprovalChangedMessage) error {
	if msg == nil || msg.TransactionID == "" {
		return amqp.ErrMissingTransactionID
	}

	at := msg.Timestamp
	if at.IsZero() {
		at = w.now()
	}

	if err := w.recorder.RecordApprovalEvent(ctx, msg.TransactionID, msg.Approved, at); err != nil {
		return fmt.Errorf("record approval event: %w", err)
	}

	w.logger.InfoContext(ctx, "Approval change recorded",
		log.FieldOperation, log.OpConsume,
		log.FieldTransactionID, msg.TransactionID,
		log.FieldApproved, msg.Approved)
	return nil
}

// Run consumes until ctx is cancelled.
func (w *AuditWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Audit worker started")
	err := consumer.ConsumeApprovalChanges(ctx, w.HandleApprovalChanged)
	w.logger.InfoContext(ctx, "Audit worker stopped", "reason", err)
	return err
}
