package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/veilpay/veilpay/internal/account"
	"github.com/veilpay/veilpay/internal/auth"
	"github.com/veilpay/veilpay/internal/config"
	"github.com/veilpay/veilpay/internal/token"
)

// BearerAuth validates access tokens, checks the token version against the
// stored account, and resolves the caller's ledger address for downstream
// wrap coordinator handlers.
func BearerAuth(cfg config.Config, repo account.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		claims, err := auth.ParseAndVerifyHS256(tokenStr, []byte(cfg.JWTSecret))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		sub, _ := claims["sub"].(string)
		verFloat, _ := claims["ver"].(float64)
		ver := int(verFloat)

		acct, err := repo.FindByID(c.UserContext(), sub)
		if err != nil || acct.TokenVersion != ver {
			return fiber.NewError(http.StatusUnauthorized, "token invalidated")
		}

		c.Locals("account_id", sub)
		c.Locals(token.CallerAddressLocal, acct.Address.Hex())
		return c.Next()
	}
}
