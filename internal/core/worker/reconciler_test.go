package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	pending      int
	reconciled   int
	reconcileErr error
	stuck        int64
	countErr     error
}

func (f *fakeStore) ReconcileNext(_ context.Context, _ time.Duration, _ int) (bool, error) {
	if f.reconcileErr != nil {
		return false, f.reconcileErr
	}
	if f.pending == 0 {
		return false, nil
	}
	f.pending--
	f.reconciled++
	return true, nil
}

func (f *fakeStore) CountStuckPublishing(_ context.Context, _ time.Duration) (int64, error) {
	return f.stuck, f.countErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce_DrainsAllPending(t *testing.T) {
	store := &fakeStore{pending: 3}

	runOnce(context.Background(), store, discardLogger())

	assert.Equal(t, 3, store.reconciled)
	assert.Equal(t, 0, store.pending)
}

func TestRunOnce_NothingToDo(t *testing.T) {
	store := &fakeStore{}

	runOnce(context.Background(), store, discardLogger())

	assert.Equal(t, 0, store.reconciled)
}

func TestRunOnce_StopsOnError(t *testing.T) {
	store := &fakeStore{pending: 3, reconcileErr: errors.New("db down")}

	runOnce(context.Background(), store, discardLogger())

	assert.Equal(t, 0, store.reconciled)
	assert.Equal(t, 3, store.pending)
}

func TestRunOnce_ReportsStuckIntents(t *testing.T) {
	// Intents with unknown publish outcome are only counted, never
	// re-driven.
	store := &fakeStore{stuck: 2}

	runOnce(context.Background(), store, discardLogger())

	assert.Equal(t, 0, store.reconciled)
}

func TestStartReconciler_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &fakeStore{}

	StartReconciler(ctx, store, discardLogger())
	cancel()

	// Nothing to assert beyond not hanging; give the goroutine a beat
	// to observe cancellation.
	time.Sleep(10 * time.Millisecond)
}
