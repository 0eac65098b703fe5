package token

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"

	"github.com/veilpay/veilpay/internal/confidential"
	"github.com/veilpay/veilpay/internal/ledger"
)

// CallerAddressLocal is the fiber locals key under which the auth middleware
// stores the caller's ledger address.
const CallerAddressLocal = "caller_address"

// Handler exposes the wrap coordinator over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a token handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RequestWrap creates a pending entropy-backed wrap request.
func (h *Handler) RequestWrap(c *fiber.Ctx) error {
	caller, err := callerAddress(c)
	if err != nil {
		return err
	}

	var req WrapRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	requestID, err := h.service.RequestWrap(c.UserContext(), caller, common.HexToHash(req.Tag), req.PaidFee)
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(http.StatusCreated).JSON(WrapRequestResponse{RequestID: requestID})
}

// CompleteWrap consumes a fulfilled wrap request.
func (h *Handler) CompleteWrap(c *fiber.Ctx) error {
	caller, err := callerAddress(c)
	if err != nil {
		return err
	}
	requestID, err := strconv.ParseUint(c.Params("requestId"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request id")
	}

	var req CompleteWrapRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.CompleteWrap(c.UserContext(), caller, requestID, req.Ciphertext, req.Proof)
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(http.StatusOK).JSON(CompleteWrapResponse{
		RequestID:     res.RequestID,
		MintedAmount:  res.Minted,
		PublicBalance: res.PublicBalance,
		Handle:        res.Handle.Hex(),
	})
}

// Unwrap applies the direct public-to-confidential transition.
func (h *Handler) Unwrap(c *fiber.Ctx) error {
	caller, err := callerAddress(c)
	if err != nil {
		return err
	}

	var req UnwrapRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Unwrap(c.UserContext(), caller, req.Amount, req.Ciphertext, req.Proof)
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(http.StatusOK).JSON(UnwrapResponse{
		PublicAmount:  res.PublicAmount,
		PublicBalance: res.PublicBalance,
		Handle:        res.Handle.Hex(),
	})
}

// Info returns the token's construction-time metadata and request counter.
func (h *Handler) Info(c *fiber.Ctx) error {
	count, err := h.service.RequestCount(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(InfoResponse{
		Name:          h.service.Name(),
		Symbol:        h.service.Symbol(),
		EntropyOracle: h.service.Oracle().Hex(),
		RequestCount:  count,
	})
}

// PendingRequest reports a pending wrap request and its fulfillment status.
func (h *Handler) PendingRequest(c *fiber.Ctx) error {
	requestID, err := strconv.ParseUint(c.Params("requestId"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request id")
	}

	pw, fulfilled, err := h.service.PendingRequest(c.UserContext(), requestID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(http.StatusOK).JSON(PendingRequestResponse{
		RequestID: pw.RequestID,
		Requester: pw.Requester.Hex(),
		Fulfilled: fulfilled,
		CreatedAt: pw.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// MyBalance returns the authenticated caller's dual balance.
func (h *Handler) MyBalance(c *fiber.Ctx) error {
	caller, err := callerAddress(c)
	if err != nil {
		return err
	}

	acct, err := h.service.AccountBalance(c.UserContext(), caller)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	resp := BalanceResponse{
		Address:       acct.Address.Hex(),
		PublicBalance: acct.PublicBalance,
	}
	if !acct.Confidential.IsZero() {
		resp.ConfidentialHandle = acct.Confidential.Hex()
	}
	return c.Status(http.StatusOK).JSON(resp)
}

func callerAddress(c *fiber.Ctx) (common.Address, error) {
	raw, _ := c.Locals(CallerAddressLocal).(string)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fiber.NewError(http.StatusUnauthorized, "caller address unresolved")
	}
	return common.HexToAddress(raw), nil
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, ErrInsufficientFee):
		return fiber.NewError(http.StatusPaymentRequired, "insufficient entropy fee")
	case errors.Is(err, ErrEntropyNotReady):
		return fiber.NewError(http.StatusConflict, "entropy not yet fulfilled")
	case errors.Is(err, ledger.ErrUnknownRequest):
		return fiber.NewError(http.StatusNotFound, "unknown wrap request")
	case errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, "amount must be positive")
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return fiber.NewError(http.StatusBadRequest, "insufficient public balance")
	case errors.Is(err, confidential.ErrInvalidProof):
		return fiber.NewError(http.StatusBadRequest, "invalid ciphertext proof")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
