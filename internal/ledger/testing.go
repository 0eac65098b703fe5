package ledger

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/veilpay/veilpay/internal/confidential"
)

// SeedPublicBalance is a test helper that seeds a public balance when using
// the in-memory ledger.
func SeedPublicBalance(l Ledger, addr common.Address, amount int64) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		acct := mem.accounts[addr]
		acct.Address = addr
		acct.PublicBalance = amount
		mem.accounts[addr] = acct
	}
}

// SeedConfidentialHandle is a test helper that installs a confidential
// balance handle when using the in-memory ledger.
func SeedConfidentialHandle(l Ledger, addr common.Address, h confidential.Handle) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		acct := mem.accounts[addr]
		acct.Address = addr
		acct.Confidential = h
		mem.accounts[addr] = acct
	}
}
