package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payflowhq/payflow/internal/core/domain"
)

// AttemptRepository owns the intent journal and the transaction
// attempt records. The journal is written before the publish attempt;
// the attempt record only after a confirmed publish.
type AttemptRepository struct {
	db *pgxpool.Pool
}

func NewAttemptRepository(db *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// JournalIntent writes the durable journal row in state "publishing".
// Resubmission of the same transactionId resets the existing row: the
// gateway deliberately does not de-duplicate, downstream consumers do.
func (r *AttemptRepository) JournalIntent(ctx context.Context, intent domain.Intent) error {
	query := `
		INSERT INTO payment_intents (transaction_id, sender_id, receiver_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (transaction_id) DO UPDATE
		SET sender_id = EXCLUDED.sender_id,
		    receiver_id = EXCLUDED.receiver_id,
		    amount = EXCLUDED.amount,
		    status = EXCLUDED.status,
		    attempts = 0,
		    created_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		intent.TransactionID, intent.SenderID, intent.ReceiverID, intent.Amount, domain.IntentPublishing)
	if err != nil {
		return fmt.Errorf("failed to journal intent: %w", err)
	}
	return nil
}

// MarkIntent transitions the journal row. Used for "published" after a
// confirmed publish and "failed" after a rejected one.
func (r *AttemptRepository) MarkIntent(ctx context.Context, transactionID, status string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE payment_intents SET status = $2 WHERE transaction_id = $1`,
		transactionID, status)
	if err != nil {
		return fmt.Errorf("failed to mark intent %s: %w", status, err)
	}
	return nil
}

// RecordAttempt upserts the attempt record and, in the same database
// transaction, moves the journal row to "recorded". The upsert is
// keyed by transactionId so the reconciler can re-drive it safely.
func (r *AttemptRepository) RecordAttempt(ctx context.Context, attempt domain.TransactionAttempt) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := recordAttemptTx(ctx, tx, attempt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func recordAttemptTx(ctx context.Context, tx pgx.Tx, attempt domain.TransactionAttempt) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transaction_attempts (transaction_id, sender_id, status, debit, code)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (transaction_id) DO UPDATE
		SET sender_id = EXCLUDED.sender_id,
		    status = EXCLUDED.status,
		    debit = EXCLUDED.debit,
		    code = EXCLUDED.code`,
		attempt.TransactionID, attempt.SenderID, attempt.Status, attempt.Debit, attempt.Code)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE payment_intents SET status = $2 WHERE transaction_id = $1`,
		attempt.TransactionID, domain.IntentRecorded)
	return err
}

// ReconcileNext claims one journal row stuck in "published" past the
// grace period and re-drives its attempt record write. Returns false
// when there was nothing to do. SKIP LOCKED keeps concurrent
// reconcilers from fighting over the same row.
func (r *AttemptRepository) ReconcileNext(ctx context.Context, grace time.Duration, maxAttempts int) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT transaction_id, sender_id, attempts
		FROM payment_intents
		WHERE status = $1 AND created_at <= NOW() - make_interval(secs => $2)
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`
	var intent domain.Intent
	err = tx.QueryRow(ctx, query, domain.IntentPublished, grace.Seconds()).
		Scan(&intent.TransactionID, &intent.SenderID, &intent.Attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if intent.Attempts >= maxAttempts {
		_, err = tx.Exec(ctx,
			`UPDATE payment_intents SET status = $2 WHERE transaction_id = $1`,
			intent.TransactionID, domain.IntentFailed)
		if err != nil {
			return false, err
		}
		if err := tx.Commit(ctx); err != nil {
			return false, err
		}
		return true, fmt.Errorf("intent %s exceeded %d record attempts, marked failed", intent.TransactionID, maxAttempts)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE payment_intents SET attempts = attempts + 1 WHERE transaction_id = $1`,
		intent.TransactionID); err != nil {
		return false, err
	}

	attempt := domain.TransactionAttempt{
		TransactionID: intent.TransactionID,
		SenderID:      intent.SenderID,
		Status:        domain.AttemptInitiated,
		Debit:         true,
		Code:          http.StatusOK,
	}
	if err := recordAttemptTx(ctx, tx, attempt); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

// CountStuckPublishing reports journal rows whose publish outcome is
// unknown (crash between journal and confirm). They are never
// re-published automatically; operators reconcile them by hand.
func (r *AttemptRepository) CountStuckPublishing(ctx context.Context, grace time.Duration) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM payment_intents WHERE status = $1 AND created_at <= NOW() - make_interval(secs => $2)`,
		domain.IntentPublishing, grace.Seconds()).Scan(&n)
	return n, err
}
