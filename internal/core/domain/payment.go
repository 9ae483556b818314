package domain

import (
	"net/http"

	"github.com/google/uuid"
)

// Error codes returned to callers. Callers must branch on ErrorCode,
// not on Code: Code mirrors HTTP status classes and is informational.
const (
	ErrCodeNone            = 0
	ErrCodeAccountNotFound = 1
	ErrCodePinMismatch     = 2
	ErrCodeInsufficient    = 3
	ErrCodeInternal        = 4
)

// PaymentRequest is the validated inbound transfer request. Amount is
// in minor units; TransactionID is the caller-supplied idempotency
// token handed through to downstream consumers.
type PaymentRequest struct {
	SenderID      uuid.UUID
	ReceiverID    uuid.UUID
	Amount        int64
	PIN           string
	TransactionID string
}

// IntentMessage is the payload published to the settlement channel.
// Its JSON shape is the wire contract with the downstream consumer.
type IntentMessage struct {
	SenderID      uuid.UUID `json:"senderId"`
	ReceiverID    uuid.UUID `json:"receiverId"`
	Amount        int64     `json:"amount"` // minor units
	TransactionID string    `json:"transactionId"`
}

// Result is the caller-facing outcome envelope. It is returned, never
// persisted.
type Result struct {
	Status    string `json:"status"`
	Code      int    `json:"code"`
	ErrorCode int    `json:"errorCode"`
}

// Accepted builds the success envelope.
func Accepted() Result {
	return Result{Status: "payment initiated", Code: http.StatusOK, ErrorCode: ErrCodeNone}
}

// Rejected builds the envelope for a failed admissibility check or an
// internal error. Codes 1-3 map to 400, code 4 to 500.
func Rejected(errorCode int) Result {
	switch errorCode {
	case ErrCodeAccountNotFound:
		return Result{Status: "account does not exist", Code: http.StatusBadRequest, ErrorCode: errorCode}
	case ErrCodePinMismatch:
		return Result{Status: "pin mismatch", Code: http.StatusBadRequest, ErrorCode: errorCode}
	case ErrCodeInsufficient:
		return Result{Status: "insufficient balance", Code: http.StatusBadRequest, ErrorCode: errorCode}
	default:
		return Result{Status: "error processing payment", Code: http.StatusInternalServerError, ErrorCode: ErrCodeInternal}
	}
}
