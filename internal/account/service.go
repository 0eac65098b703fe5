package account

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPassphraseLen = 8

// Service manages account lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new account service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates an account bound to the supplied ledger address and stores
// a hashed passphrase.
func (s *Service) Register(ctx context.Context, creds Credentials) (Account, error) {
	if !common.IsHexAddress(creds.Address) {
		return Account{}, errors.New("address must be a valid hex address")
	}
	if len(creds.Passphrase) < minPassphraseLen {
		return Account{}, errors.New("passphrase must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Passphrase), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	acct := Account{
		ID:        uuid.New().String(),
		Address:   common.HexToAddress(creds.Address),
		PassHash:  hash,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, acct); err != nil {
		return Account{}, err
	}

	return acct, nil
}

// Authenticate verifies the passphrase for the address.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (Account, error) {
	if !common.IsHexAddress(creds.Address) {
		return Account{}, errors.New("address must be a valid hex address")
	}

	acct, err := s.repo.FindByAddress(ctx, common.HexToAddress(creds.Address))
	if err != nil {
		return Account{}, err
	}

	if err := bcrypt.CompareHashAndPassword(acct.PassHash, []byte(creds.Passphrase)); err != nil {
		return Account{}, errors.New("invalid passphrase")
	}

	return acct, nil
}
