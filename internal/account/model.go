package account

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Account represents a registered API user bound to a ledger address. The
// address is the caller identity for every wrap coordinator operation.
type Account struct {
	ID           string
	Address      common.Address
	PassHash     []byte
	TokenVersion int
	CreatedAt    time.Time
}

// Credentials carries the registration/login request payload.
type Credentials struct {
	Address    string
	Passphrase string
}
