package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billed/internal/bills/memory"
	"billed/internal/core"
	"billed/internal/log"
)

type fakePublisher struct {
	published []string
	err       error
}

func (p *fakePublisher) PublishBillSubmitted(_ context.Context, billID, _ string) error {
	p.published = append(p.published, billID)
	return p.err
}

type failingRepo struct{ memory.Store }

func (*failingRepo) CreateOrUpdate(context.Context, core.Bill, core.Receipt) (core.Bill, error) {
	return core.Bill{}, &core.RemoteError{StatusCode: 500}
}

func validBill() core.Bill {
	return core.Bill{
		Email:    "employee@test.tld",
		Type:     core.TypeIT,
		Name:     "Clavier",
		Date:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Amount:   core.Money{Cents: 8900},
		Pct:      20,
		FileName: "clavier.jpeg",
		Status:   core.StatusPending,
	}
}

func discard() *log.Logger { return log.New(log.Config{Output: io.Discard}) }

func TestCreatePublishesAfterSave(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewBillService(store, pub, discard())

	saved, err := svc.CreateOrUpdate(context.Background(), validBill(), core.Receipt{Name: "clavier.jpeg", ContentType: "image/jpeg", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, []string{saved.ID}, pub.published)
	assert.Equal(t, 1, store.Len())
}

func TestPublishFailureDoesNotFailSave(t *testing.T) {
	store := memory.New()
	svc := NewBillService(store, &fakePublisher{err: errors.New("broker down")}, discard())

	_, err := svc.CreateOrUpdate(context.Background(), validBill(), core.Receipt{Name: "clavier.jpeg", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestSaveFailureSkipsPublish(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewBillService(&failingRepo{}, pub, discard())

	_, err := svc.CreateOrUpdate(context.Background(), validBill(), core.Receipt{})
	require.Error(t, err)
	_, remote := core.IsRemote(err)
	assert.True(t, remote, "remote error stays matchable through the wrap")
	assert.Empty(t, pub.published)
}

func TestNilPublisher(t *testing.T) {
	svc := NewBillService(memory.New(), nil, discard())
	_, err := svc.CreateOrUpdate(context.Background(), validBill(), core.Receipt{Name: "clavier.jpeg", Data: []byte{1}})
	require.NoError(t, err)

	list, err := svc.List(context.Background(), "employee@test.tld")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
