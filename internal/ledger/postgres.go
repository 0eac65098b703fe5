package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veilpay/veilpay/internal/confidential"
)

const requestCounterName = "wrap_requests"

// PostgresLedger persists balances and pending wrap requests in PostgreSQL.
//
// Expected schema:
//
//	token_accounts (address TEXT PRIMARY KEY,
//	                public_balance BIGINT NOT NULL DEFAULT 0,
//	                confidential_handle TEXT NOT NULL DEFAULT '')
//	pending_wraps  (request_id BIGINT PRIMARY KEY,
//	                requester TEXT NOT NULL,
//	                created_at TIMESTAMPTZ NOT NULL)
//	counters       (name TEXT PRIMARY KEY, value BIGINT NOT NULL)
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// EnsureAccount guarantees a balance row exists for the address.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, addr common.Address) error {
	_, err := l.db.Exec(ctx, `INSERT INTO token_accounts (address, public_balance, confidential_handle)
        VALUES ($1, 0, '') ON CONFLICT (address) DO NOTHING`, addr.Hex())
	return err
}

// Account returns the dual balance record for the address. Addresses without
// a row read as empty accounts, matching the contract-style ledger model.
func (l *PostgresLedger) Account(ctx context.Context, addr common.Address) (Account, error) {
	row := l.db.QueryRow(ctx, `SELECT public_balance, confidential_handle
        FROM token_accounts WHERE address = $1`, addr.Hex())

	acct := Account{Address: addr}
	var handle string
	if err := row.Scan(&acct.PublicBalance, &handle); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return acct, nil
		}
		return Account{}, err
	}
	if handle != "" {
		acct.Confidential = confidential.HexToHandle(handle)
	}
	return acct, nil
}

// RequestCount returns the total number of wrap requests ever created.
func (l *PostgresLedger) RequestCount(ctx context.Context) (uint64, error) {
	var count int64
	err := l.db.QueryRow(ctx, `SELECT value FROM counters WHERE name = $1`, requestCounterName).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return uint64(count), nil
}

// CreatePendingWrap records a pending request entry and bumps the counter.
func (l *PostgresLedger) CreatePendingWrap(ctx context.Context, requestID uint64, requester common.Address) error {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	cmd, err := tx.Exec(ctx, `INSERT INTO pending_wraps (request_id, requester, created_at)
        VALUES ($1, $2, $3) ON CONFLICT (request_id) DO NOTHING`,
		int64(requestID), requester.Hex(), time.Now().UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDuplicateRequest
	}

	if _, err := tx.Exec(ctx, `INSERT INTO counters (name, value) VALUES ($1, 1)
        ON CONFLICT (name) DO UPDATE SET value = counters.value + 1`, requestCounterName); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// PendingWrap fetches a pending request entry.
func (l *PostgresLedger) PendingWrap(ctx context.Context, requestID uint64) (PendingWrap, error) {
	row := l.db.QueryRow(ctx, `SELECT requester, created_at FROM pending_wraps
        WHERE request_id = $1`, int64(requestID))

	pw := PendingWrap{RequestID: requestID}
	var requester string
	if err := row.Scan(&requester, &pw.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PendingWrap{}, ErrUnknownRequest
		}
		return PendingWrap{}, err
	}
	pw.Requester = common.HexToAddress(requester)
	pw.CreatedAt = pw.CreatedAt.UTC()
	return pw, nil
}

// ApplyWrap consumes the pending entry and credits both balances in one
// transaction, holding the pending row and the account row locked so a
// concurrent replay of the same request identifier cannot slip through.
func (l *PostgresLedger) ApplyWrap(ctx context.Context, requestID uint64, caller common.Address, mintAmount int64, combine CombineFunc) (int64, error) {
	if mintAmount < 0 {
		return 0, fmt.Errorf("mint amount must not be negative")
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var requester string
	err = tx.QueryRow(ctx, `SELECT requester FROM pending_wraps
        WHERE request_id = $1 FOR UPDATE`, int64(requestID)).Scan(&requester)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUnknownRequest
	}
	if err != nil {
		return 0, err
	}
	if common.HexToAddress(requester) != caller {
		return 0, ErrUnknownRequest
	}

	balance, handle, err := lockAccount(ctx, tx, caller)
	if err != nil {
		return 0, err
	}

	newHandle, err := combine(handle)
	if err != nil {
		return 0, err
	}

	balance += mintAmount
	if _, err := tx.Exec(ctx, `UPDATE token_accounts
        SET public_balance = $1, confidential_handle = $2 WHERE address = $3`,
		balance, newHandle.Hex(), caller.Hex()); err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pending_wraps WHERE request_id = $1`, int64(requestID)); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

// ApplyUnwrap debits the public balance and folds the encrypted amount into
// the confidential balance in one transaction.
func (l *PostgresLedger) ApplyUnwrap(ctx context.Context, caller common.Address, publicAmount int64, combine CombineFunc) (int64, error) {
	if publicAmount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	balance, handle, err := lockAccount(ctx, tx, caller)
	if err != nil {
		return 0, err
	}
	if balance < publicAmount {
		return 0, ErrInsufficientBalance
	}

	newHandle, err := combine(handle)
	if err != nil {
		return 0, err
	}

	balance -= publicAmount
	if _, err := tx.Exec(ctx, `UPDATE token_accounts
        SET public_balance = $1, confidential_handle = $2 WHERE address = $3`,
		balance, newHandle.Hex(), caller.Hex()); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

func lockAccount(ctx context.Context, tx pgx.Tx, addr common.Address) (int64, confidential.Handle, error) {
	var (
		balance int64
		handle  string
	)
	err := tx.QueryRow(ctx, `SELECT public_balance, confidential_handle
        FROM token_accounts WHERE address = $1 FOR UPDATE`, addr.Hex()).Scan(&balance, &handle)
	if errors.Is(err, pgx.ErrNoRows) {
		// First touch of this address inside a mutation: create the row so it
		// participates in the same transaction.
		if _, err := tx.Exec(ctx, `INSERT INTO token_accounts (address, public_balance, confidential_handle)
            VALUES ($1, 0, '')`, addr.Hex()); err != nil {
			return 0, confidential.Handle{}, err
		}
		return 0, confidential.Handle{}, nil
	}
	if err != nil {
		return 0, confidential.Handle{}, err
	}
	if handle == "" {
		return balance, confidential.Handle{}, nil
	}
	return balance, confidential.HexToHandle(handle), nil
}
