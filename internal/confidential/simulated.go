package confidential

import (
	"context"
	"crypto/subtle"
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// proofDomain separates import proofs from any other keccak usage. It plays
// the role of the verifying contract identity, which is constant for a single
// deployment of this service.
var proofDomain = []byte("veilpay/confidential/v1")

// SimulatedEngine is an in-process stand-in for an external confidential
// compute service. Values are kept in engine-private state keyed by handle;
// callers only observe handles and can only request additive combination.
type SimulatedEngine struct {
	mu      sync.RWMutex
	next    uint64
	values  map[Handle]*big.Int
	allowed map[Handle]bool
}

// NewSimulatedEngine builds an empty simulated engine.
func NewSimulatedEngine() *SimulatedEngine {
	return &SimulatedEngine{
		values:  make(map[Handle]*big.Int),
		allowed: make(map[Handle]bool),
	}
}

// Prove produces the proof accepted by SimulatedEngine.ImportExternal for the
// given ciphertext and owner. Exposed so clients and tests can build valid
// import payloads.
func Prove(ciphertext []byte, owner common.Address) []byte {
	return crypto.Keccak256(proofDomain, ciphertext, owner.Bytes())
}

// ImportExternal checks the proof and registers the encrypted value under a
// fresh handle. The returned handle is not combinable until Allow is called.
func (e *SimulatedEngine) ImportExternal(_ context.Context, ciphertext, proof []byte, owner common.Address) (Handle, error) {
	expected := Prove(ciphertext, owner)
	if subtle.ConstantTimeCompare(proof, expected) != 1 {
		return Handle{}, ErrInvalidProof
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	h := e.freshHandle(ciphertext, owner)
	e.values[h] = new(big.Int).SetBytes(ciphertext)
	return h, nil
}

// Allow marks the value as usable in additive combinations.
func (e *SimulatedEngine) Allow(_ context.Context, h Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.values[h]; !ok {
		return ErrUnknownValue
	}
	e.allowed[h] = true
	return nil
}

// Add combines two allowed values and returns a fresh allowed handle for the sum.
func (e *SimulatedEngine) Add(_ context.Context, a, b Handle) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	va, ok := e.values[a]
	if !ok {
		return Handle{}, ErrUnknownValue
	}
	vb, ok := e.values[b]
	if !ok {
		return Handle{}, ErrUnknownValue
	}
	if !e.allowed[a] || !e.allowed[b] {
		return Handle{}, ErrAccessDenied
	}

	sum := new(big.Int).Add(va, vb)
	h := e.freshHandle(sum.Bytes(), common.Address{})
	e.values[h] = sum
	e.allowed[h] = true
	return h, nil
}

// Reveal decrypts a value. Test helper only; the coordinator never calls it.
func (e *SimulatedEngine) Reveal(h Handle) (*big.Int, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.values[h]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(v), true
}

// freshHandle derives a unique handle. The counter keeps handles distinct even
// when the same ciphertext is imported twice. Callers must hold e.mu.
func (e *SimulatedEngine) freshHandle(material []byte, owner common.Address) Handle {
	e.next++
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], e.next)
	return Handle(crypto.Keccak256Hash(proofDomain, seq[:], material, owner.Bytes()))
}
