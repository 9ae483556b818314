package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payflowhq/payflow/internal/adapter/storage"
	"github.com/payflowhq/payflow/internal/core/domain"
	"github.com/payflowhq/payflow/internal/core/security"
)

// Runs only against a real database. Apply db/schema.sql first, then:
//
//	TEST_DATABASE_URL=postgres://... go test ./internal/adapter/storage/
func testPool(t *testing.T) *storage.AccountRepository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping DB integration test")
	}

	pool, err := storage.ConnectDB(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return storage.NewAccountRepository(pool)
}

func TestAccountRoundTrip(t *testing.T) {
	repo := testPool(t)
	ctx := context.Background()

	created, err := repo.CreateAccount(ctx, "integration test", domain.USD, security.HashPIN("1234"), 100_00)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	got, err := repo.GetAccount(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, int64(100_00), got.Balance)
	assert.True(t, security.VerifyPIN("1234", got.PINHash))
}

func TestGetAccount_NotFound(t *testing.T) {
	repo := testPool(t)

	_, err := repo.GetAccount(context.Background(), uuid.New())
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)
}

func TestJournalThroughReconcile(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping DB integration test")
	}

	ctx := context.Background()
	pool, err := storage.ConnectDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	attempts := storage.NewAttemptRepository(pool)

	// Drain any backlog left by earlier runs so the assertions below
	// only see this test's row.
	for {
		did, err := attempts.ReconcileNext(ctx, 0, 5)
		require.NoError(t, err)
		if !did {
			break
		}
	}

	intent := domain.Intent{
		TransactionID: "it-" + uuid.NewString(),
		SenderID:      uuid.New(),
		ReceiverID:    uuid.New(),
		Amount:        50_00,
	}
	require.NoError(t, attempts.JournalIntent(ctx, intent))
	require.NoError(t, attempts.MarkIntent(ctx, intent.TransactionID, domain.IntentPublished))

	// A freshly published intent is inside the grace period, so the
	// reconciler must leave it alone.
	did, err := attempts.ReconcileNext(ctx, time.Minute, 5)
	require.NoError(t, err)
	assert.False(t, did)

	// With no grace it gets picked up and its record re-driven.
	did, err = attempts.ReconcileNext(ctx, 0, 5)
	require.NoError(t, err)
	assert.True(t, did)

	// Idempotent: running the record write again must not fail.
	require.NoError(t, attempts.RecordAttempt(ctx, domain.TransactionAttempt{
		TransactionID: intent.TransactionID,
		SenderID:      intent.SenderID,
		Status:        domain.AttemptInitiated,
		Debit:         true,
		Code:          200,
	}))
}
