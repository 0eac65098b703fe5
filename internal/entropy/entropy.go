package entropy

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrFeeTooLow occurs when a request carries less than the quoted fee.
	ErrFeeTooLow = errors.New("entropy fee too low")

	// ErrUnknownRequestID indicates an identifier the source never issued.
	ErrUnknownRequestID = errors.New("unknown entropy request id")
)

// Source is the external entropy oracle consumed by the wrap coordinator.
// Request identifiers are unique for the lifetime of the source; fulfillment
// is asynchronous and observed by polling IsFulfilled.
type Source interface {
	// Fee quotes the current price of one entropy request.
	Fee(ctx context.Context) (int64, error)

	// Request submits a caller-chosen correlation tag together with the fee
	// payment and returns a fresh request identifier.
	Request(ctx context.Context, tag common.Hash, payment int64) (uint64, error)

	// IsFulfilled reports whether randomness was delivered for the request.
	IsFulfilled(ctx context.Context, requestID uint64) (bool, error)
}
