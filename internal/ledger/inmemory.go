package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type inMemoryLedger struct {
	mu           sync.RWMutex
	accounts     map[common.Address]Account
	pending      map[uint64]PendingWrap
	requestCount uint64
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and local development without Postgres.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		accounts: make(map[common.Address]Account),
		pending:  make(map[uint64]PendingWrap),
	}
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, addr common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.accounts[addr]; !exists {
		l.accounts[addr] = Account{Address: addr}
	}
	return nil
}

func (l *inMemoryLedger) Account(_ context.Context, addr common.Address) (Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acct, exists := l.accounts[addr]
	if !exists {
		return Account{Address: addr}, nil
	}
	return acct, nil
}

func (l *inMemoryLedger) RequestCount(_ context.Context) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.requestCount, nil
}

func (l *inMemoryLedger) CreatePendingWrap(_ context.Context, requestID uint64, requester common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.pending[requestID]; exists {
		return ErrDuplicateRequest
	}

	l.pending[requestID] = PendingWrap{
		RequestID: requestID,
		Requester: requester,
		CreatedAt: time.Now().UTC(),
	}
	l.requestCount++
	return nil
}

func (l *inMemoryLedger) PendingWrap(_ context.Context, requestID uint64) (PendingWrap, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pw, exists := l.pending[requestID]
	if !exists {
		return PendingWrap{}, ErrUnknownRequest
	}
	return pw, nil
}

func (l *inMemoryLedger) ApplyWrap(_ context.Context, requestID uint64, caller common.Address, mintAmount int64, combine CombineFunc) (int64, error) {
	if mintAmount < 0 {
		return 0, fmt.Errorf("mint amount must not be negative")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pw, exists := l.pending[requestID]
	if !exists || pw.Requester != caller {
		return 0, ErrUnknownRequest
	}

	acct := l.accounts[caller]
	acct.Address = caller

	newHandle, err := combine(acct.Confidential)
	if err != nil {
		return 0, err
	}

	acct.Confidential = newHandle
	acct.PublicBalance += mintAmount
	l.accounts[caller] = acct
	delete(l.pending, requestID)

	return acct.PublicBalance, nil
}

func (l *inMemoryLedger) ApplyUnwrap(_ context.Context, caller common.Address, publicAmount int64, combine CombineFunc) (int64, error) {
	if publicAmount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, exists := l.accounts[caller]
	if !exists || acct.PublicBalance < publicAmount {
		return 0, ErrInsufficientBalance
	}

	newHandle, err := combine(acct.Confidential)
	if err != nil {
		return 0, err
	}

	acct.Confidential = newHandle
	acct.PublicBalance -= publicAmount
	l.accounts[caller] = acct

	return acct.PublicBalance, nil
}
