package bills

import (
	"context"
	"sync"

	"billed/internal/core"
)

type fakeService struct {
	mu        sync.Mutex
	listed    []core.Bill
	listErr   error
	createErr error
	calls     int
	lastBill  core.Bill
	lastFile  core.Receipt
	lastEmail string
}

func (f *fakeService) List(_ context.Context, email string) ([]core.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastEmail = email
	return f.listed, f.listErr
}

func (f *fakeService) CreateOrUpdate(_ context.Context, b core.Bill, r core.Receipt) (core.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastBill = b
	f.lastFile = r
	if f.createErr != nil {
		return core.Bill{}, f.createErr
	}
	b.ID = "bill-1"
	b.FileURL = ReceiptURL("r-1")
	return b, nil
}

func (f *fakeService) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
