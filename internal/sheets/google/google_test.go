package google

import (
	"context"
	"testing"
	"time"

	"billed/internal/core"
)

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Notes de frais", 2024, "2024 Notes de frais"},
		{"  Notes de frais ", 2024, "2024 Notes de frais"},
		{"2023 Notes de frais", 2024, "2023 Notes de frais"},
		{"", 2024, ""},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestBillRow(t *testing.T) {
	b := core.Bill{
		ID:       "b-1",
		Email:    "employee@test.tld",
		Type:     core.TypeHotel,
		Name:     "Hôtel Lyon",
		Date:     time.Date(2004, 4, 4, 0, 0, 0, 0, time.UTC),
		Amount:   core.Money{Cents: 34850},
		VAT:      "70",
		Pct:      20,
		FileName: "facture.png",
		Status:   core.StatusAccepted,
	}
	row := billRow(b)
	if len(row) != len(Header) {
		t.Fatalf("row has %d cells, header %d", len(row), len(Header))
	}
	if row[0] != "2004-04-04" {
		t.Errorf("date cell = %v", row[0])
	}
	if row[4] != 348.5 {
		t.Errorf("amount cell = %v, want 348.5", row[4])
	}
	if row[7] != "Accepté" {
		t.Errorf("status cell = %v", row[7])
	}
	if row[10] != "b-1" {
		t.Errorf("reference cell = %v", row[10])
	}
}

func TestNewRequiresSettings(t *testing.T) {
	if _, err := New(context.Background(), Options{}, nil); err == nil {
		t.Error("expected error without spreadsheet id")
	}
	if _, err := New(context.Background(), Options{SpreadsheetID: "id"}, nil); err == nil {
		t.Error("expected error without credentials")
	}
	if _, err := New(context.Background(), Options{SpreadsheetID: "id", ServiceAccountFile: "/does/not/exist.json"}, nil); err == nil {
		t.Error("expected error for an unreadable credentials file")
	}
}

func TestExportWithoutService(t *testing.T) {
	c := &Client{}
	if _, err := c.ExportBill(context.Background(), core.Bill{}); err == nil {
		t.Error("expected error when the service is not initialized")
	}
}
