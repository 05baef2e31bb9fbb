package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billed/internal/core"
)

func sampleBill(email string) core.Bill {
	return core.Bill{
		Email:    email,
		Type:     core.TypeTransports,
		Name:     "Taxi",
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:   core.Money{Cents: 2500},
		Pct:      20,
		FileName: "taxi.png",
		Status:   core.StatusPending,
	}
}

func TestStoreCreateAndList(t *testing.T) {
	ctx := context.Background()
	s := New()

	saved, err := s.CreateOrUpdate(ctx, sampleBill("a@test.tld"), core.Receipt{Name: "taxi.png", ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.True(t, strings.HasPrefix(saved.FileURL, "/receipts/"))

	_, err = s.CreateOrUpdate(ctx, sampleBill("b@test.tld"), core.Receipt{Name: "taxi.png", Data: []byte("png")})
	require.NoError(t, err)

	mine, err := s.List(ctx, "a@test.tld")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	key := strings.TrimPrefix(saved.FileURL, "/receipts/")
	r, err := s.GetReceipt(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "image/png", r.ContentType)
}

func TestStoreUpdateReplacesExisting(t *testing.T) {
	ctx := context.Background()
	s := New()
	saved, err := s.CreateOrUpdate(ctx, sampleBill("a@test.tld"), core.Receipt{Name: "taxi.png", Data: []byte("x")})
	require.NoError(t, err)

	saved.Status = core.StatusAccepted
	_, err = s.CreateOrUpdate(ctx, saved, core.Receipt{})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Len())
	list, _ := s.List(ctx, "")
	assert.Equal(t, core.StatusAccepted, list[0].Status)
	assert.Equal(t, saved.FileURL, list[0].FileURL)
}

func TestStoreRejectsInvalidBill(t *testing.T) {
	b := sampleBill("a@test.tld")
	b.Amount = core.Money{}
	_, err := New().CreateOrUpdate(context.Background(), b, core.Receipt{Name: "taxi.png"})
	assert.Error(t, err)
}

func TestStoreMissingReceipt(t *testing.T) {
	_, err := New().GetReceipt(context.Background(), "nope")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}
