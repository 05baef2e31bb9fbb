package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"billed/internal/bills"
	"billed/internal/core"

	_ "modernc.org/sqlite"
)

const (
	ExportPending  = "pending"
	ExportExported = "exported"
	ExportError    = "error"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var (
	_ bills.Service       = (*SQLiteRepository)(nil)
	_ bills.ReceiptReader = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between the web server's goroutines.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateOrUpdate implements bills.Service. The receipt and the bill are
// written in one transaction; a bill without ID gets a new one.
func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, b core.Bill, receipt core.Receipt) (core.Bill, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	var receiptID string
	if !receipt.Empty() {
		receiptID = uuid.NewString()
		b.FileURL = bills.ReceiptURL(receiptID)
		b.FileName = receipt.Name
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Bill{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.UpsertBill(ctx, toRow(b)); err != nil {
		return core.Bill{}, fmt.Errorf("upsert bill: %w", err)
	}
	if receiptID != "" {
		if err := q.InsertReceipt(ctx, ReceiptRow{
			ID:          receiptID,
			BillID:      b.ID,
			FileName:    receipt.Name,
			ContentType: receipt.ContentType,
			Data:        receipt.Data,
		}); err != nil {
			return core.Bill{}, fmt.Errorf("insert receipt: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return core.Bill{}, fmt.Errorf("commit bill: %w", err)
	}

	slog.InfoContext(ctx, "Bill saved to SQLite",
		"bill_id", b.ID,
		"employee_email", b.Email,
		"amount_cents", b.Amount.Cents,
		"file_name", b.FileName)

	return b, nil
}

// List implements bills.Service.
func (r *SQLiteRepository) List(ctx context.Context, email string) ([]core.Bill, error) {
	rows, err := r.queries.ListBills(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	// Malformed rows are skipped, as the api backend does with bad records.
	out := make([]core.Bill, 0, len(rows))
	for _, row := range rows {
		b, err := fromRow(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed bill row", "bill_id", row.ID, "error", err)
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// GetBill returns a single bill by ID.
func (r *SQLiteRepository) GetBill(ctx context.Context, id string) (core.Bill, error) {
	row, err := r.queries.GetBill(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, fmt.Errorf("bill %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	return fromRow(row)
}

// GetReceipt implements bills.ReceiptReader.
func (r *SQLiteRepository) GetReceipt(ctx context.Context, id string) (core.Receipt, error) {
	row, err := r.queries.GetReceipt(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Receipt{}, fmt.Errorf("receipt %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Receipt{}, fmt.Errorf("get receipt: %w", err)
	}
	return core.Receipt{Name: row.FileName, ContentType: row.ContentType, Data: row.Data}, nil
}

// PendingExports returns up to limit bills not yet exported to the ledger, oldest first.
func (r *SQLiteRepository) PendingExports(ctx context.Context, limit int) ([]core.Bill, error) {
	rows, err := r.queries.ListPendingExports(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending exports: %w", err)
	}
	// A malformed row must not stall the sweep.
	out := make([]core.Bill, 0, len(rows))
	for _, row := range rows {
		b, err := fromRow(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed bill row", "bill_id", row.ID, "error", err)
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// ExportStatus reports where the bill stands in the ledger export.
func (r *SQLiteRepository) ExportStatus(ctx context.Context, id string) (string, error) {
	status, err := r.queries.GetExportStatus(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("bill %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get export status: %w", err)
	}
	return status, nil
}

// MarkExported marks a bill as written to the ledger.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id string) error {
	return r.setExportStatus(ctx, id, ExportExported)
}

// MarkExportError takes a bill out of the pending sweep after a failed export.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id string) error {
	if err := r.setExportStatus(ctx, id, ExportError); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Bill marked with export error", "bill_id", id)
	return nil
}

func (r *SQLiteRepository) setExportStatus(ctx context.Context, id, status string) error {
	n, err := r.queries.SetExportStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("set export status %s: %w", status, err)
	}
	if n == 0 {
		return fmt.Errorf("bill %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func toRow(b core.Bill) BillRow {
	return BillRow{
		ID:          b.ID,
		Email:       b.Email,
		Type:        b.Type,
		Name:        b.Name,
		Date:        b.Date.Format(core.DateLayout),
		AmountCents: b.Amount.Cents,
		VAT:         b.VAT,
		Pct:         int64(b.Pct),
		Commentary:  b.Commentary,
		FileURL:     b.FileURL,
		FileName:    b.FileName,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
	}
}

func fromRow(row BillRow) (core.Bill, error) {
	date, err := core.ParseBillDate(row.Date)
	if err != nil {
		return core.Bill{}, fmt.Errorf("bill %s: parse date %q: %w", row.ID, row.Date, err)
	}
	return core.Bill{
		ID:         row.ID,
		Email:      row.Email,
		Type:       row.Type,
		Name:       row.Name,
		Date:       date,
		Amount:     core.Money{Cents: row.AmountCents},
		VAT:        row.VAT,
		Pct:        int(row.Pct),
		Commentary: row.Commentary,
		FileURL:    row.FileURL,
		FileName:   row.FileName,
		Status:     core.BillStatus(row.Status),
		CreatedAt:  row.CreatedAt,
	}, nil
}
