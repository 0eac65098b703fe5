package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veilpay/veilpay/internal/confidential"
)

var (
	// ErrInsufficientBalance occurs when an unwrap would drive a public
	// balance below zero. The balance is left untouched.
	ErrInsufficientBalance = errors.New("insufficient public balance")

	// ErrUnknownRequest indicates a wrap request identifier that is not
	// pending for the given caller: never created, already consumed, or owned
	// by someone else. The three cases are deliberately indistinguishable.
	ErrUnknownRequest = errors.New("unknown wrap request")

	// ErrDuplicateRequest indicates the entropy source handed out an
	// identifier that is already pending, which would break correlation.
	ErrDuplicateRequest = errors.New("duplicate wrap request")
)

// Account is the per-address dual balance record.
type Account struct {
	Address       common.Address
	PublicBalance int64
	Confidential  confidential.Handle
}

// PendingWrap correlates an entropy request identifier with the address that
// created it. Entries are consumed exactly once, by ApplyWrap.
type PendingWrap struct {
	RequestID uint64
	Requester common.Address
	CreatedAt time.Time
}

// CombineFunc folds an imported encrypted value into the current confidential
// balance. It runs inside the store's critical section so the read-combine-
// write of the handle is atomic with the rest of the transition.
type CombineFunc func(current confidential.Handle) (confidential.Handle, error)

// Ledger defines the contract implemented by balance-store backends.
type Ledger interface {
	EnsureAccount(ctx context.Context, addr common.Address) error
	Account(ctx context.Context, addr common.Address) (Account, error)

	// RequestCount returns the number of wrap requests ever created. The
	// counter is informational; correlation uses entropy request identifiers.
	RequestCount(ctx context.Context) (uint64, error)

	// CreatePendingWrap records a pending entry and increments the counter.
	CreatePendingWrap(ctx context.Context, requestID uint64, requester common.Address) error

	// PendingWrap looks up a pending entry, failing with ErrUnknownRequest
	// when none exists.
	PendingWrap(ctx context.Context, requestID uint64) (PendingWrap, error)

	// ApplyWrap atomically consumes the pending entry owned by caller, folds
	// the wrapped value into the confidential balance via combine, and
	// credits the public balance by mintAmount. Fails with ErrUnknownRequest
	// when the entry is missing or owned by another address; in that case
	// nothing is mutated. Returns the new public balance.
	ApplyWrap(ctx context.Context, requestID uint64, caller common.Address, mintAmount int64, combine CombineFunc) (int64, error)

	// ApplyUnwrap atomically debits the public balance by publicAmount and
	// folds the encrypted amount into the confidential balance. Fails with
	// ErrInsufficientBalance, mutating nothing, when the balance is too low.
	// Returns the new public balance.
	ApplyUnwrap(ctx context.Context, caller common.Address, publicAmount int64, combine CombineFunc) (int64, error)
}
