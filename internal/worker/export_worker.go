package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billed/internal/amqp"
	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/sheets"
	"billed/internal/storage"
)

// Store is the part of the SQLite repository the worker needs.
type Store interface {
	GetBill(ctx context.Context, id string) (core.Bill, error)
	ExportStatus(ctx context.Context, id string) (string, error)
	PendingExports(ctx context.Context, limit int) ([]core.Bill, error)
	MarkExported(ctx context.Context, id string) error
	MarkExportError(ctx context.Context, id string) error
}

// ExportWorker copies submitted bills from SQLite to the accounting ledger.
type ExportWorker struct {
	store     Store
	exporter  sheets.BillExporter
	batchSize int
	logger    *log.Logger
}

func NewExportWorker(store Store, exporter sheets.BillExporter, batchSize int, logger *log.Logger) *ExportWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		store:     store,
		exporter:  exporter,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSubmitted exports the bill named by msg. A returned error requeues
// the message; unknown or already exported bills are acknowledged.
func (w *ExportWorker) HandleSubmitted(ctx context.Context, msg *amqp.BillSubmittedMessage) error {
	status, err := w.store.ExportStatus(ctx, msg.BillID)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.WarnContext(ctx, "Bill from message not found, skipping", log.FieldBillID, msg.BillID)
		return nil
	}
	if err != nil {
		return err
	}
	if status == storage.ExportExported {
		w.logger.DebugContext(ctx, "Bill already exported", log.FieldBillID, msg.BillID)
		return nil
	}

	b, err := w.store.GetBill(ctx, msg.BillID)
	if err != nil {
		return fmt.Errorf("load bill: %w", err)
	}
	if _, err := w.exporter.ExportBill(ctx, b); err != nil {
		return fmt.Errorf("export bill %s: %w", b.ID, err)
	}
	return w.store.MarkExported(ctx, b.ID)
}

// ProcessPending exports one batch of bills still pending, typically those
// whose message was lost. A failing bill is marked as export error so it
// does not block the next batches. It returns how many bills were exported.
func (w *ExportWorker) ProcessPending(ctx context.Context) (int, error) {
	pending, err := w.store.PendingExports(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending exports: %w", err)
	}

	exported := 0
	for _, b := range pending {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		if _, err := w.exporter.ExportBill(ctx, b); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export pending bill",
				log.FieldBillID, b.ID, log.FieldOperation, log.OpExport, log.FieldError, err)
			if merr := w.store.MarkExportError(ctx, b.ID); merr != nil {
				w.logger.ErrorContext(ctx, "Failed to mark export error", log.FieldBillID, b.ID, log.FieldError, merr)
			}
			continue
		}
		if err := w.store.MarkExported(ctx, b.ID); err != nil {
			return exported, fmt.Errorf("mark bill %s exported: %w", b.ID, err)
		}
		exported++
	}

	if len(pending) > 0 {
		w.logger.InfoContext(ctx, "Processed pending exports", "found", len(pending), "exported", exported)
	}
	return exported, nil
}

// RunSweep calls ProcessPending every interval until ctx ends.
func (w *ExportWorker) RunSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Pending export sweep failed", log.FieldError, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
