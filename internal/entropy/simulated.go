package entropy

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// SimulatedSource is an in-process entropy oracle. Identifiers are issued
// monotonically starting at 1 and fulfillment is driven explicitly through
// Fulfill, which keeps the request/fulfill handshake observable in tests and
// local development.
type SimulatedSource struct {
	mu        sync.Mutex
	fee       int64
	next      uint64
	issued    map[uint64]common.Hash
	fulfilled map[uint64]bool
}

// NewSimulatedSource builds a source quoting the given fee.
func NewSimulatedSource(fee int64) *SimulatedSource {
	return &SimulatedSource{
		fee:       fee,
		issued:    make(map[uint64]common.Hash),
		fulfilled: make(map[uint64]bool),
	}
}

// Fee returns the configured fee.
func (s *SimulatedSource) Fee(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fee, nil
}

// Request issues the next identifier, rejecting underpayment.
func (s *SimulatedSource) Request(_ context.Context, tag common.Hash, payment int64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payment < s.fee {
		return 0, ErrFeeTooLow
	}
	s.next++
	s.issued[s.next] = tag
	return s.next, nil
}

// IsFulfilled reports fulfillment status for an issued identifier.
func (s *SimulatedSource) IsFulfilled(_ context.Context, requestID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issued[requestID]; !ok {
		return false, ErrUnknownRequestID
	}
	return s.fulfilled[requestID], nil
}

// Fulfill marks an issued request as fulfilled.
func (s *SimulatedSource) Fulfill(requestID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issued[requestID]; !ok {
		return ErrUnknownRequestID
	}
	s.fulfilled[requestID] = true
	return nil
}

// FulfillAll marks every outstanding request as fulfilled. Used by the dev
// wiring so a single-binary deployment can exercise the full wrap handshake.
func (s *SimulatedSource) FulfillAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.issued {
		s.fulfilled[id] = true
	}
}

// SetFee updates the quoted fee.
func (s *SimulatedSource) SetFee(fee int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fee = fee
}
