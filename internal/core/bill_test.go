package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBill() Bill {
	return Bill{
		Email:    "employee@test.tld",
		Type:     TypeHotel,
		Name:     "Hôtel du centre",
		Date:     time.Date(2004, 4, 4, 0, 0, 0, 0, time.UTC),
		Amount:   Money{Cents: 40000},
		VAT:      "80",
		Pct:      DefaultPct,
		FileName: "preview-facture.jpg",
		Status:   StatusPending,
	}
}

func TestBillValidate(t *testing.T) {
	require.NoError(t, validBill().Validate())

	tests := []struct {
		name   string
		mutate func(*Bill)
	}{
		{"zero amount", func(b *Bill) { b.Amount = Money{} }},
		{"missing email", func(b *Bill) { b.Email = "" }},
		{"malformed email", func(b *Bill) { b.Email = "a" }},
		{"unknown type", func(b *Bill) { b.Type = "Voyage" }},
		{"zero date", func(b *Bill) { b.Date = time.Time{} }},
		{"pct above 100", func(b *Bill) { b.Pct = 120 }},
		{"negative pct", func(b *Bill) { b.Pct = -1 }},
		{"missing file", func(b *Bill) { b.FileName = "" }},
		{"text receipt", func(b *Bill) { b.FileName = "image.txt" }},
		{"unknown status", func(b *Bill) { b.Status = "draft" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBill()
			tt.mutate(&b)
			assert.Error(t, b.Validate())
		})
	}
}

func TestBillAcceptsSignInEmail(t *testing.T) {
	b := validBill()
	b.Email = "a@a"
	require.True(t, Session{Type: UserEmployee, Email: b.Email}.Valid())
	assert.NoError(t, b.Validate())
}

func TestUserEmailRule(t *testing.T) {
	for _, email := range []string{"a@a", "employee@test.tld"} {
		assert.True(t, IsUserEmail(email), email)
	}
	for _, email := range []string{"", "a", "employee.test.tld"} {
		assert.False(t, IsUserEmail(email), email)
	}
}

func TestBillStatusLabel(t *testing.T) {
	assert.Equal(t, "En attente", StatusPending.Label())
	assert.Equal(t, "Accepté", StatusAccepted.Label())
	assert.Equal(t, "Refusé", StatusRefused.Label())
	assert.Equal(t, "other", BillStatus("other").Label())
}

func TestFormatBillDate(t *testing.T) {
	assert.Equal(t, "4 Avr. 04", FormatBillDate(time.Date(2004, 4, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "31 Déc. 23", FormatBillDate(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", FormatBillDate(time.Time{}))
}

func TestRemoteError(t *testing.T) {
	notFound := &RemoteError{StatusCode: 404}
	assert.Equal(t, "Erreur 404", notFound.Error())
	assert.Equal(t, ClassClient, notFound.Class())

	down := &RemoteError{StatusCode: 500}
	assert.Equal(t, "Erreur 500", down.Error())
	assert.Equal(t, ClassServer, down.Class())

	custom := &RemoteError{StatusCode: 503, Message: "maintenance"}
	assert.Equal(t, "Erreur 503: maintenance", custom.Error())

	re, ok := IsRemote(fmt.Errorf("list bills: %w", notFound))
	require.True(t, ok)
	assert.Equal(t, 404, re.StatusCode)
}

func TestSessionValid(t *testing.T) {
	assert.True(t, Session{Type: UserEmployee, Email: "a@a"}.Valid())
	assert.True(t, Session{Type: UserAdmin, Email: "admin@test.tld"}.Valid())
	assert.False(t, Session{Type: "Guest", Email: "a@a"}.Valid())
	assert.False(t, Session{Type: UserEmployee}.Valid())
	assert.False(t, Session{Type: UserEmployee, Email: "a"}.Valid())
}
