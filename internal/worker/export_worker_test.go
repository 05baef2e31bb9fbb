package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billed/internal/amqp"
	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/storage"
)

type fakeStore struct {
	mu     sync.Mutex
	bills  map[string]core.Bill
	status map[string]string
}

func newFakeStore(ids ...string) *fakeStore {
	s := &fakeStore{bills: map[string]core.Bill{}, status: map[string]string{}}
	for _, id := range ids {
		s.bills[id] = core.Bill{ID: id, Email: "employee@test.tld", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
		s.status[id] = storage.ExportPending
	}
	return s
}

func (s *fakeStore) GetBill(_ context.Context, id string) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bills[id]
	if !ok {
		return core.Bill{}, core.ErrNotFound
	}
	return b, nil
}

func (s *fakeStore) ExportStatus(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.status[id]
	if !ok {
		return "", core.ErrNotFound
	}
	return st, nil
}

func (s *fakeStore) PendingExports(_ context.Context, limit int) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Bill
	for id, st := range s.status {
		if st == storage.ExportPending && len(out) < limit {
			out = append(out, s.bills[id])
		}
	}
	return out, nil
}

func (s *fakeStore) MarkExported(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[id] = storage.ExportExported
	return nil
}

func (s *fakeStore) MarkExportError(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[id] = storage.ExportError
	return nil
}

type fakeExporter struct {
	mu       sync.Mutex
	exported []string
	failFor  map[string]bool
}

func (e *fakeExporter) ExportBill(_ context.Context, b core.Bill) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failFor[b.ID] {
		return "", errors.New("quota exceeded")
	}
	e.exported = append(e.exported, b.ID)
	return "2024 Notes de frais!A2:K2", nil
}

func newWorker(store Store, exp *fakeExporter, batch int) *ExportWorker {
	return NewExportWorker(store, exp, batch, log.New(log.Config{Output: io.Discard}))
}

func TestHandleSubmitted(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore("b-1")
	exp := &fakeExporter{}
	w := newWorker(store, exp, 10)

	require.NoError(t, w.HandleSubmitted(ctx, amqp.NewBillSubmittedMessage("b-1", "employee@test.tld")))
	assert.Equal(t, []string{"b-1"}, exp.exported)
	assert.Equal(t, storage.ExportExported, store.status["b-1"])

	// A redelivered message does not export twice.
	require.NoError(t, w.HandleSubmitted(ctx, amqp.NewBillSubmittedMessage("b-1", "employee@test.tld")))
	assert.Len(t, exp.exported, 1)
}

func TestHandleSubmittedUnknownBillIsAcked(t *testing.T) {
	w := newWorker(newFakeStore(), &fakeExporter{}, 10)
	assert.NoError(t, w.HandleSubmitted(context.Background(), amqp.NewBillSubmittedMessage("missing", "")))
}

func TestHandleSubmittedExportFailureRequeues(t *testing.T) {
	store := newFakeStore("b-1")
	w := newWorker(store, &fakeExporter{failFor: map[string]bool{"b-1": true}}, 10)

	err := w.HandleSubmitted(context.Background(), amqp.NewBillSubmittedMessage("b-1", ""))
	require.Error(t, err)
	assert.Equal(t, storage.ExportPending, store.status["b-1"], "left for the sweep")
}

func TestProcessPending(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore("b-1", "b-2", "b-3")
	exp := &fakeExporter{failFor: map[string]bool{"b-2": true}}
	w := newWorker(store, exp, 10)

	n, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, storage.ExportError, store.status["b-2"])
	assert.Equal(t, storage.ExportExported, store.status["b-1"])
	assert.Equal(t, storage.ExportExported, store.status["b-3"])

	n, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing left")
}

func TestProcessPendingRespectsBatchSize(t *testing.T) {
	store := newFakeStore("b-1", "b-2", "b-3")
	w := newWorker(store, &fakeExporter{}, 2)

	n, err := w.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRunSweepStopsWithContext(t *testing.T) {
	store := newFakeStore("b-1")
	exp := &fakeExporter{}
	w := newWorker(store, exp, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.RunSweep(ctx, time.Hour) }()

	require.Eventually(t, func() bool {
		exp.mu.Lock()
		defer exp.mu.Unlock()
		return len(exp.exported) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop")
	}
}
