package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/veilpay/veilpay/internal/account"
)

// Handler exposes registration and token endpoints.
type Handler struct {
	accounts *account.Service
	tokens   *Service
}

// NewHandler constructs the auth handler.
func NewHandler(accounts *account.Service, tokens *Service) *Handler {
	return &Handler{accounts: accounts, tokens: tokens}
}

type credentialsRequest struct {
	Address    string `json:"address"`
	Passphrase string `json:"passphrase"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register creates an account bound to a ledger address.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acct, err := h.accounts.Register(c.UserContext(), account.Credentials{
		Address:    req.Address,
		Passphrase: req.Passphrase,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"account_id": acct.ID,
		"address":    acct.Address.Hex(),
		"created_at": acct.CreatedAt,
	})
}

// Login verifies credentials and issues a token pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acct, err := h.accounts.Authenticate(c.UserContext(), account.Credentials{
		Address:    req.Address,
		Passphrase: req.Passphrase,
	})
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
	}
	pair, err := h.tokens.Login(acct)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(pair)
}

// Refresh exchanges a refresh token for a fresh access token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	access, expiresIn, err := h.tokens.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"access_token": access,
		"expires_in":   expiresIn,
	})
}

// Logout invalidates all outstanding tokens for the authenticated account.
func (h *Handler) Logout(c *fiber.Ctx) error {
	accountID, _ := c.Locals("account_id").(string)
	if accountID == "" {
		return c.SendStatus(http.StatusUnauthorized)
	}
	if err := h.tokens.Logout(c.UserContext(), accountID); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}
