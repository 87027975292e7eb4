package services

import (
	"context"
	"errors"
	"fmt"

	"txview/internal/log"
	"txview/internal/store"
)

// Publisher announces stored approval changes.
type Publisher interface {
	PublishApprovalChanged(ctx context.Context, transactionID string, approved bool) error
}

// ApprovalService stores approvals first, then publishes an approval.changed
// event. Publishing is best effort: the stored approval stands either way.
type ApprovalService struct {
	writer    store.ApprovalWriter
	publisher Publisher
	closers   []func() error
	logger    *log.Logger
	events    *log.StructuredLogger
}

// NewApprovalService wraps writer. publisher may be nil, in which case no
// events are published.
func NewApprovalService(writer store.ApprovalWriter, publisher Publisher, logger *log.Logger) *ApprovalService {
	logger = log.OrDefault(logger, log.ComponentApproval)
	return &ApprovalService{
		writer:    writer,
		publisher: publisher,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
	}
}

// OnClose registers fn to run when the service is closed.
func (s *ApprovalService) OnClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// SetApproval implements store.ApprovalWriter
func (s *ApprovalService) SetApproval(ctx context.Context, transactionID string, approved bool) error {
	if err := s.writer.SetApproval(ctx, transactionID, approved); err != nil {
		return fmt.Errorf("save approval: %w", err)
	}
	s.events.LogApprovalChanged(ctx, transactionID, approved)

	if err := s.publish(ctx, transactionID, approved); err != nil {
		s.events.LogError(ctx, "Failed to publish approval change", err, log.OpPublish,
			log.NewFields().WithApproval(transactionID, approved))
	}
	return nil
}

func (s *ApprovalService) publish(ctx context.Context, transactionID string, approved bool) error {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping approval event",
			log.FieldTransactionID, transactionID)
		return nil
	}
	return s.publisher.PublishApprovalChanged(ctx, transactionID, approved)
}

// Close runs the registered closers in reverse order.
func (s *ApprovalService) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close approval service: %w", err)
	}
	return nil
}
