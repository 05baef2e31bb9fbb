// Package memory is an in-process bills service for development and tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"billed/internal/bills"
	"billed/internal/core"
)

type Store struct {
	mu       sync.Mutex
	bills    []core.Bill
	receipts map[string]core.Receipt
}

var (
	_ bills.Service       = (*Store)(nil)
	_ bills.ReceiptReader = (*Store)(nil)
)

func New(seed ...core.Bill) *Store {
	return &Store{
		bills:    append([]core.Bill(nil), seed...),
		receipts: make(map[string]core.Receipt),
	}
}

// List returns the bills of email, or all of them when email is empty.
func (s *Store) List(_ context.Context, email string) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Bill, 0, len(s.bills))
	for _, b := range s.bills {
		if email == "" || strings.EqualFold(b.Email, email) {
			out = append(out, b)
		}
	}
	return out, nil
}

// CreateOrUpdate stores the receipt and inserts the bill, or replaces it when its ID is known.
func (s *Store) CreateOrUpdate(_ context.Context, b core.Bill, r core.Receipt) (core.Bill, error) {
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !r.Empty() {
		key := uuid.NewString()
		s.receipts[key] = r
		b.FileURL = bills.ReceiptURL(key)
		b.FileName = r.Name
	}
	if b.ID != "" {
		for i := range s.bills {
			if s.bills[i].ID == b.ID {
				s.bills[i] = b
				return b, nil
			}
		}
	} else {
		b.ID = uuid.NewString()
	}
	s.bills = append(s.bills, b)
	return b, nil
}

func (s *Store) GetReceipt(_ context.Context, id string) (core.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.receipts[id]
	if !ok {
		return core.Receipt{}, fmt.Errorf("receipt %s: %w", id, core.ErrNotFound)
	}
	return r, nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bills)
}
