package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payflowhq/payflow/internal/core/domain"
)

// ErrAccountNotFound is returned for a point read that matched no row.
var ErrAccountNotFound = errors.New("account not found")

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreateAccount provisions an account with its PIN digest and opening
// balance. This is the only write path to balance in this service;
// settlement owns every mutation after that.
func (r *AccountRepository) CreateAccount(ctx context.Context, ownerName string, currency domain.Currency, pinHash string, openingBalance int64) (*domain.Account, error) {
	query := `
		INSERT INTO accounts (owner_name, currency, pin_hash, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING id, owner_name, pin_hash, balance, currency, created_at
	`
	var acc domain.Account
	err := r.db.QueryRow(ctx, query, ownerName, currency, pinHash, openingBalance).Scan(
		&acc.ID, &acc.OwnerName, &acc.PINHash, &acc.Balance, &acc.Currency, &acc.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return &acc, nil
}

// GetAccount performs the point read used by the resolver. No locking:
// the snapshot is authoritative only at read time.
func (r *AccountRepository) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT id, owner_name, pin_hash, balance, currency, created_at FROM accounts WHERE id = $1`
	var acc domain.Account
	err := r.db.QueryRow(ctx, query, id).Scan(
		&acc.ID, &acc.OwnerName, &acc.PINHash, &acc.Balance, &acc.Currency, &acc.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// SaveAPIKey stores the hashed key for an account.
func (r *AccountRepository) SaveAPIKey(ctx context.Context, accountID uuid.UUID, keyHash string, keyPrefix string) error {
	query := `INSERT INTO api_keys (account_id, key_hash, key_prefix) VALUES ($1, $2, $3)`

	_, err := r.db.Exec(ctx, query, accountID, keyHash, keyPrefix)
	if err != nil {
		return fmt.Errorf("failed to save api key: %w", err)
	}
	return nil
}
