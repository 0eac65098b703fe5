package account

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no account matches the lookup.
var ErrNotFound = errors.New("account not found")

// Repository persists registered accounts.
type Repository interface {
	Create(ctx context.Context, acct Account) error
	FindByAddress(ctx context.Context, addr common.Address) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
	UpdateTokenVersion(ctx context.Context, id string, version int) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account.
func (r *PostgresRepository) Create(ctx context.Context, acct Account) error {
	acctID, err := uuid.Parse(acct.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO api_accounts (id, address, pass_hash, token_version, created_at)
        VALUES ($1, $2, $3, $4, $5)`,
		acctID, acct.Address.Hex(), acct.PassHash, acct.TokenVersion, acct.CreatedAt.UTC())
	return err
}

// FindByAddress fetches an account by its ledger address.
func (r *PostgresRepository) FindByAddress(ctx context.Context, addr common.Address) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT id, address, pass_hash, token_version, created_at
        FROM api_accounts WHERE address = $1`, addr.Hex())
	return scanAccount(row)
}

// FindByID fetches an account by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Account, error) {
	acctID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, address, pass_hash, token_version, created_at
        FROM api_accounts WHERE id = $1`, acctID)
	return scanAccount(row)
}

// UpdateTokenVersion stores a new token version, invalidating older tokens.
func (r *PostgresRepository) UpdateTokenVersion(ctx context.Context, id string, version int) error {
	acctID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE api_accounts SET token_version = $1 WHERE id = $2`, version, acctID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var (
		id        uuid.UUID
		address   string
		createdAt time.Time
		acct      Account
	)
	if err := row.Scan(&id, &address, &acct.PassHash, &acct.TokenVersion, &createdAt); err != nil {
		return Account{}, err
	}
	acct.ID = id.String()
	acct.Address = common.HexToAddress(address)
	acct.CreatedAt = createdAt.UTC()
	return acct, nil
}
