package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is a snapshot of an account record as of the read. The
// gateway only ever reads it; balances are mutated downstream at
// settlement time.
type Account struct {
	ID        uuid.UUID `json:"id"`
	OwnerName string    `json:"owner_name"`
	PINHash   string    `json:"-"`
	Balance   int64     `json:"balance"` // minor units (cents)
	Currency  Currency  `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// AttemptInitiated is the only status this gateway ever writes; the
// settlement pipeline owns everything after the handoff.
const AttemptInitiated = "initiated"

// TransactionAttempt is the local bookkeeping record written after a
// successful handoff. It is never read back by the gateway.
type TransactionAttempt struct {
	TransactionID string
	SenderID      uuid.UUID
	Status        string
	Debit         bool
	Code          int
	CreatedAt     time.Time
}

// Intent journal states. An intent moves publishing → published →
// recorded on the happy path, or publishing → failed when the
// settlement channel rejects the publish.
const (
	IntentPublishing = "publishing"
	IntentPublished  = "published"
	IntentRecorded   = "recorded"
	IntentFailed     = "failed"
)

// Intent is the journal row written before the publish attempt. Rows
// stuck in "published" are re-driven by the reconciler.
type Intent struct {
	TransactionID string
	SenderID      uuid.UUID
	ReceiverID    uuid.UUID
	Amount        int64
	Status        string
	Attempts      int
	CreatedAt     time.Time
}
