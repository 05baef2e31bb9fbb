package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// BillRow is a row of the bills table.
type BillRow struct {
	ID           string
	Email        string
	Type         string
	Name         string
	Date         string
	AmountCents  int64
	VAT          string
	Pct          int64
	Commentary   string
	FileURL      string
	FileName     string
	Status       string
	ExportStatus string
	CreatedAt    time.Time
}

const billColumns = `id, email, type, name, date, amount_cents, vat, pct, commentary, file_url, file_name, status, export_status, created_at`

func scanBill(row interface{ Scan(...interface{}) error }) (BillRow, error) {
	var b BillRow
	err := row.Scan(&b.ID, &b.Email, &b.Type, &b.Name, &b.Date, &b.AmountCents, &b.VAT, &b.Pct,
		&b.Commentary, &b.FileURL, &b.FileName, &b.Status, &b.ExportStatus, &b.CreatedAt)
	return b, err
}

const upsertBill = `INSERT INTO bills (` + billColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?)
ON CONFLICT (id) DO UPDATE SET
    type = excluded.type,
    name = excluded.name,
    date = excluded.date,
    amount_cents = excluded.amount_cents,
    vat = excluded.vat,
    pct = excluded.pct,
    commentary = excluded.commentary,
    file_url = excluded.file_url,
    file_name = excluded.file_name,
    status = excluded.status,
    export_status = 'pending',
    updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertBill(ctx context.Context, b BillRow) error {
	_, err := q.db.ExecContext(ctx, upsertBill,
		b.ID, b.Email, b.Type, b.Name, b.Date, b.AmountCents, b.VAT, b.Pct,
		b.Commentary, b.FileURL, b.FileName, b.Status, b.CreatedAt)
	return err
}

func (q *Queries) GetBill(ctx context.Context, id string) (BillRow, error) {
	return scanBill(q.db.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id))
}

func (q *Queries) ListBills(ctx context.Context, email string) ([]BillRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE (? = '' OR lower(email) = lower(?)) ORDER BY date DESC, created_at DESC`,
		email, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BillRow
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (q *Queries) ListPendingExports(ctx context.Context, limit int64) ([]BillRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE export_status = 'pending' ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BillRow
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (q *Queries) GetExportStatus(ctx context.Context, id string) (string, error) {
	var status string
	err := q.db.QueryRowContext(ctx, `SELECT export_status FROM bills WHERE id = ?`, id).Scan(&status)
	return status, err
}

func (q *Queries) SetExportStatus(ctx context.Context, id, status string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE bills SET export_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReceiptRow is a row of the receipts table.
type ReceiptRow struct {
	ID          string
	BillID      string
	FileName    string
	ContentType string
	Data        []byte
}

func (q *Queries) InsertReceipt(ctx context.Context, r ReceiptRow) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO receipts (id, bill_id, file_name, content_type, data) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.BillID, r.FileName, r.ContentType, r.Data)
	return err
}

func (q *Queries) GetReceipt(ctx context.Context, id string) (ReceiptRow, error) {
	var r ReceiptRow
	err := q.db.QueryRowContext(ctx,
		`SELECT id, bill_id, file_name, content_type, data FROM receipts WHERE id = ?`, id).
		Scan(&r.ID, &r.BillID, &r.FileName, &r.ContentType, &r.Data)
	return r, err
}
