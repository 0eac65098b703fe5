package account

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[common.Address]Account
}

// NewMemoryRepository builds an in-memory account store for testing and dev.
func NewMemoryRepository() Repository {
	return &memoryRepository{accounts: make(map[common.Address]Account)}
}

func (r *memoryRepository) Create(_ context.Context, acct Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[acct.Address]; exists {
		return errors.New("account exists")
	}
	r.accounts[acct.Address] = acct
	return nil
}

func (r *memoryRepository) FindByAddress(_ context.Context, addr common.Address) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.accounts[addr]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, acct := range r.accounts {
		if acct.ID == id {
			return acct, nil
		}
	}
	return Account{}, ErrNotFound
}

func (r *memoryRepository) UpdateTokenVersion(_ context.Context, id string, version int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for addr, acct := range r.accounts {
		if acct.ID == id {
			acct.TokenVersion = version
			r.accounts[addr] = acct
			return nil
		}
	}
	return ErrNotFound
}
