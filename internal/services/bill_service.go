package services

import (
	"context"
	"fmt"

	"billed/internal/bills"
	"billed/internal/core"
	"billed/internal/log"
)

// Publisher announces persisted bills to the export worker.
type Publisher interface {
	PublishBillSubmitted(ctx context.Context, billID, email string) error
}

// BillService saves bills in the repository first, then publishes a
// bill.submitted message. A failed publish never fails the save; the
// worker's sweep picks the bill up later.
type BillService struct {
	repo      bills.Service
	publisher Publisher
	logger    *log.Logger
}

var _ bills.Service = (*BillService)(nil)

// NewBillService accepts a nil publisher when messaging is disabled.
func NewBillService(repo bills.Service, publisher Publisher, logger *log.Logger) *BillService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &BillService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentBackend),
	}
}

func (s *BillService) List(ctx context.Context, email string) ([]core.Bill, error) {
	return s.repo.List(ctx, email)
}

func (s *BillService) CreateOrUpdate(ctx context.Context, b core.Bill, receipt core.Receipt) (core.Bill, error) {
	saved, err := s.repo.CreateOrUpdate(ctx, b, receipt)
	if err != nil {
		return core.Bill{}, fmt.Errorf("save bill: %w", err)
	}

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping bill submitted message",
			log.FieldBillID, saved.ID)
		return saved, nil
	}
	if err := s.publisher.PublishBillSubmitted(ctx, saved.ID, saved.Email); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish bill submitted message",
			log.FieldBillID, saved.ID,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err)
	}
	return saved, nil
}
