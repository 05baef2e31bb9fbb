package bills

import (
	"context"

	"billed/internal/core"
)

// Ports for the remote bills service.
type (
	// Service persists and lists bills. List with an empty email returns every bill.
	Service interface {
		List(ctx context.Context, email string) ([]core.Bill, error)
		CreateOrUpdate(ctx context.Context, bill core.Bill, receipt core.Receipt) (core.Bill, error)
	}

	// ReceiptReader serves the receipt image behind a bill's FileURL.
	ReceiptReader interface {
		GetReceipt(ctx context.Context, id string) (core.Receipt, error)
	}
)

// RouteBills is where a finished submission navigates to.
const RouteBills = "/bills"

// ReceiptURL is the path a stored receipt is served from.
func ReceiptURL(id string) string {
	return "/receipts/" + id
}
