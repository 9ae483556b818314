package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payflowhq/payflow/internal/core/security"
)

// Protected authenticates the caller by API key. Only the SHA256 hash
// of a key is ever stored or compared.
func Protected(db *pgxpool.Pool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization") // "Bearer pf_live_..."
		if authHeader == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Missing API Key"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid Header Format"})
		}
		hashedKey := security.HashAPIKey(parts[1])

		var accountID string
		err := db.QueryRow(c.Context(), "SELECT account_id FROM api_keys WHERE key_hash = $1", hashedKey).Scan(&accountID)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid API Key"})
		}

		// Handlers can see who is calling.
		c.Locals("caller_account_id", accountID)

		return c.Next()
	}
}
