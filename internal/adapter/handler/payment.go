package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/payflowhq/payflow/internal/core/domain"
)

// Initiator is the admission core behind the endpoint.
type Initiator interface {
	Initiate(ctx context.Context, req domain.PaymentRequest) domain.Result
}

type PaymentHandler struct {
	Service Initiator
}

// InitiatePaymentRequest is the inbound envelope. Amount is a decimal
// major-unit number; it must be exactly representable in minor units.
type InitiatePaymentRequest struct {
	Payment struct {
		SenderID      string          `json:"senderId"`
		ReceiverID    string          `json:"receiverId"`
		Amount        decimal.Decimal `json:"amount"`
		PIN           string          `json:"pin"`
		TransactionID string          `json:"transactionId"`
	} `json:"payment"`
}

// InitiatePayment handles POST /v1/payments. Malformed requests fail
// with a plain 400 before the admissibility chain runs, so error codes
// 1-4 always describe a well-formed request.
func (h *PaymentHandler) InitiatePayment(c *fiber.Ctx) error {
	var req InitiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Warn("invalid payment body", "error", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	p := req.Payment
	if p.SenderID == "" || p.ReceiverID == "" || p.PIN == "" || p.TransactionID == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "senderId, receiverId, amount, pin and transactionId are required"})
	}

	amount, err := domain.ToMinorUnits(p.Amount)
	if err != nil {
		slog.Warn("unrepresentable amount", "amount", p.Amount.String(), "error", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// An id that is not a valid account identifier cannot resolve to
	// an account, so it gets the resolver's rejection, not a 400.
	senderID, err := uuid.Parse(p.SenderID)
	if err != nil {
		res := domain.Rejected(domain.ErrCodeAccountNotFound)
		return c.Status(res.Code).JSON(res)
	}
	receiverID, err := uuid.Parse(p.ReceiverID)
	if err != nil {
		res := domain.Rejected(domain.ErrCodeAccountNotFound)
		return c.Status(res.Code).JSON(res)
	}

	res := h.Service.Initiate(c.Context(), domain.PaymentRequest{
		SenderID:      senderID,
		ReceiverID:    receiverID,
		Amount:        amount,
		PIN:           p.PIN,
		TransactionID: p.TransactionID,
	})

	return c.Status(res.Code).JSON(res)
}
