package backend

import (
	"context"
	"time"

	"billed/internal/bills"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult is what the web server needs from a backend.
type BackendResult struct {
	Service bills.Service
	// Receipts is nil when receipts live on the remote API and are linked directly.
	Receipts bills.ReceiptReader
	// Ready reports whether the backend can serve requests; nil means always ready.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Remote API specific
	BillsAPIURL     string
	BillsAPITimeout time.Duration
}

type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	APIBackend    BackendType = "api"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, APIBackend:
		return true
	default:
		return false
	}
}
