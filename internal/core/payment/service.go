// Package payment holds the admission core of the gateway: resolve the
// two accounts, run the ordered admissibility checks, and on success
// hand the intent to the settlement channel exactly once per request.
package payment

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/payflowhq/payflow/internal/core/domain"
	"github.com/payflowhq/payflow/internal/core/security"
)

// AccountStore is the read-only account lookup consumed by the
// resolver. A missing account surfaces as an error; the core does not
// distinguish store failures from not-found.
type AccountStore interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// AttemptStore is the journal plus the local attempt record.
type AttemptStore interface {
	JournalIntent(ctx context.Context, intent domain.Intent) error
	MarkIntent(ctx context.Context, transactionID, status string) error
	RecordAttempt(ctx context.Context, attempt domain.TransactionAttempt) error
}

// Publisher hands the serialized intent to the settlement channel and
// returns the broker's message id on acknowledgment.
type Publisher interface {
	Publish(ctx context.Context, body []byte) (string, error)
}

type Service struct {
	accounts  AccountStore
	attempts  AttemptStore
	publisher Publisher
	logger    *slog.Logger
}

func NewService(accounts AccountStore, attempts AttemptStore, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		accounts:  accounts,
		attempts:  attempts,
		publisher: publisher,
		logger:    logger,
	}
}

// Initiate runs one request through the full chain. The checks run in
// a fixed order and short-circuit: the order decides which errorCode a
// request with several defects receives.
func (s *Service) Initiate(ctx context.Context, req domain.PaymentRequest) domain.Result {
	sender, receiver, err := s.resolve(ctx, req.SenderID, req.ReceiverID)
	if err != nil {
		s.logger.Warn("account resolution failed",
			"sender_id", req.SenderID, "receiver_id", req.ReceiverID, "error", err)
		return domain.Rejected(domain.ErrCodeAccountNotFound)
	}
	_ = receiver // presence only; no receiver fields are used at this stage

	if !security.VerifyPIN(req.PIN, sender.PINHash) {
		s.logger.Warn("pin mismatch", "sender_id", req.SenderID)
		return domain.Rejected(domain.ErrCodePinMismatch)
	}

	// amount == balance is admissible.
	if req.Amount > sender.Balance {
		s.logger.Info("insufficient balance",
			"sender_id", req.SenderID, "amount", req.Amount, "balance", sender.Balance)
		return domain.Rejected(domain.ErrCodeInsufficient)
	}

	return s.initiate(ctx, req)
}

// resolve issues the two point reads concurrently; the lookups are
// independent. Either failing collapses the pair.
func (s *Service) resolve(ctx context.Context, senderID, receiverID uuid.UUID) (*domain.Account, *domain.Account, error) {
	var sender, receiver *domain.Account

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sender, err = s.accounts.GetAccount(gctx, senderID)
		return err
	})
	g.Go(func() (err error) {
		receiver, err = s.accounts.GetAccount(gctx, receiverID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return sender, receiver, nil
}

// initiate owns the side effects: journal, publish, record. Journal or
// publish failure is an infrastructure error (errorCode 4) and leaves
// no attempt record. A record failure after a confirmed publish still
// returns success; the journal row stays "published" and the
// reconciler re-drives the write.
func (s *Service) initiate(ctx context.Context, req domain.PaymentRequest) domain.Result {
	intent := domain.Intent{
		TransactionID: req.TransactionID,
		SenderID:      req.SenderID,
		ReceiverID:    req.ReceiverID,
		Amount:        req.Amount,
	}
	if err := s.attempts.JournalIntent(ctx, intent); err != nil {
		s.logger.Error("failed to journal intent", "transaction_id", req.TransactionID, "error", err)
		return domain.Rejected(domain.ErrCodeInternal)
	}

	payload, err := json.Marshal(domain.IntentMessage{
		SenderID:      req.SenderID,
		ReceiverID:    req.ReceiverID,
		Amount:        req.Amount,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		s.logger.Error("failed to serialize intent", "transaction_id", req.TransactionID, "error", err)
		return domain.Rejected(domain.ErrCodeInternal)
	}

	messageID, err := s.publisher.Publish(ctx, payload)
	if err != nil {
		s.logger.Error("publish failed", "transaction_id", req.TransactionID, "error", err)
		if markErr := s.attempts.MarkIntent(ctx, req.TransactionID, domain.IntentFailed); markErr != nil {
			s.logger.Error("failed to mark intent failed", "transaction_id", req.TransactionID, "error", markErr)
		}
		return domain.Rejected(domain.ErrCodeInternal)
	}

	s.logger.Info("intent published",
		"transaction_id", req.TransactionID, "message_id", messageID, "amount", req.Amount)

	if err := s.attempts.MarkIntent(ctx, req.TransactionID, domain.IntentPublished); err != nil {
		// Still try the record write below; RecordAttempt moves the
		// journal row forward on its own.
		s.logger.Error("failed to mark intent published", "transaction_id", req.TransactionID, "error", err)
	}

	result := domain.Accepted()
	attempt := domain.TransactionAttempt{
		TransactionID: req.TransactionID,
		SenderID:      req.SenderID,
		Status:        domain.AttemptInitiated,
		Debit:         true,
		Code:          result.Code,
	}
	if err := s.attempts.RecordAttempt(ctx, attempt); err != nil {
		// The publish is the commitment point; the reconciler picks
		// this row up from the journal.
		s.logger.Error("failed to record attempt, leaving for reconciler",
			"transaction_id", req.TransactionID, "error", err)
	}

	return result
}
