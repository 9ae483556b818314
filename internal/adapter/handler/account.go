package handler

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/payflowhq/payflow/internal/adapter/storage"
	"github.com/payflowhq/payflow/internal/core/domain"
	"github.com/payflowhq/payflow/internal/core/security"
)

type AccountHandler struct {
	Repo *storage.AccountRepository
}

// CreateAccountRequest provisions an account. The opening balance is
// the only balance write this service ever performs; everything after
// that belongs to settlement.
type CreateAccountRequest struct {
	OwnerName      string          `json:"owner_name"`
	Currency       string          `json:"currency"`
	PIN            string          `json:"pin"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	var req CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Warn("invalid account body", "error", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.OwnerName == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Owner Name is required"})
	}
	if len(req.PIN) < 4 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "PIN must be at least 4 digits"})
	}

	validCurrencies := map[string]bool{string(domain.USD): true, string(domain.TZS): true}
	if !validCurrencies[req.Currency] {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid currency. Use USD or TZS"})
	}

	var opening int64
	if !req.OpeningBalance.IsZero() {
		var err error
		opening, err = domain.ToMinorUnits(req.OpeningBalance)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	account, err := h.Repo.CreateAccount(c.Context(),
		req.OwnerName, domain.Currency(req.Currency), security.HashPIN(req.PIN), opening)
	if err != nil {
		slog.Error("failed to create account", "error", err, "owner", req.OwnerName)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Could not create account"})
	}

	slog.Info("account created", "id", account.ID, "owner", req.OwnerName)

	return c.Status(http.StatusCreated).JSON(account)
}

func (h *AccountHandler) GenerateKey(c *fiber.Ctx) error {
	accountUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid Account ID format"})
	}

	realKey, keyHash, err := security.GenerateAPIKey()
	if err != nil {
		slog.Error("crypto error generating key", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Crypto error"})
	}

	if err := h.Repo.SaveAPIKey(c.Context(), accountUUID, keyHash, "pf_live_"); err != nil {
		slog.Error("failed to save api key", "error", err, "account_id", accountUUID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save key"})
	}

	slog.Info("api key generated", "account_id", accountUUID)

	// The real key is shown once only.
	return c.JSON(fiber.Map{
		"api_key": realKey,
		"warning": "Save this now! We won't show it again.",
	})
}
