package sheets

import (
	"context"

	"billed/internal/core"
)

// BillExporter writes submitted bills to the accounting ledger.
type BillExporter interface {
	ExportBill(ctx context.Context, b core.Bill) (rowRef string, err error)
}
