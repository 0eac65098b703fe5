package confidential

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInvalidProof occurs when an external ciphertext's proof does not bind
	// the claimed ciphertext to its owner.
	ErrInvalidProof = errors.New("invalid ciphertext proof")

	// ErrUnknownValue indicates a handle that the engine has never issued.
	ErrUnknownValue = errors.New("unknown encrypted value")

	// ErrAccessDenied indicates an operand was never granted for ledger use.
	// Importing a value does not make it combinable; Allow must be called first.
	ErrAccessDenied = errors.New("encrypted value access not granted")
)

// Handle identifies an encrypted value held by the engine. The ledger and the
// wrap coordinator only ever see handles; the underlying scalar stays inside
// the engine and is only combined additively.
type Handle common.Hash

// Hex returns the 0x-prefixed hex encoding of the handle.
func (h Handle) Hex() string { return common.Hash(h).Hex() }

// IsZero reports whether the handle is the empty value, used for accounts
// that have never held a confidential balance.
func (h Handle) IsZero() bool { return h == Handle{} }

// HexToHandle parses a 0x-prefixed hex string into a Handle.
func HexToHandle(s string) Handle { return Handle(common.HexToHash(s)) }

// Engine is the confidentiality layer consumed by the wrap coordinator.
type Engine interface {
	// ImportExternal verifies that proof binds ciphertext to owner and, on
	// success, registers the encrypted value and returns its handle.
	ImportExternal(ctx context.Context, ciphertext, proof []byte, owner common.Address) (Handle, error)

	// Allow grants this service access to a previously imported value.
	// Combining a value that was never allowed fails with ErrAccessDenied.
	Allow(ctx context.Context, h Handle) error

	// Add homomorphically adds two encrypted values and returns a fresh handle.
	Add(ctx context.Context, a, b Handle) (Handle, error)
}
