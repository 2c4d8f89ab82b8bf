package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mobilewallet/bankd/internal/domain"
)

const accountColumns = `id, bank_id, account_number, balance, created_at`

// InitialBalance is credited to newly linked accounts.
const InitialBalance int64 = 10000 * 100

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, accountNumber,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByNumber: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetByNumber: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

// Create links a new account under the given bank with the standard
// initial balance.
func (r *AccountRepository) Create(ctx context.Context, bankID int64, accountNumber string) (*domain.Account, error) {
	a := &domain.Account{
		BankID:        bankID,
		AccountNumber: accountNumber,
		Balance:       InitialBalance,
		CreatedAt:     time.Now().UTC(),
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO accounts (bank_id, account_number, balance, created_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		a.BankID, a.AccountNumber, a.Balance, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return a, nil
}

// ApplyDelta shifts an account balance by delta cents as a single
// relative update. Concurrent deltas against the same account serialize
// inside the database; there is no read-then-write window.
func (r *AccountRepository) ApplyDelta(ctx context.Context, tx *sql.Tx, accountNumber string, delta int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + $1 WHERE account_number = $2`,
		delta, accountNumber,
	)
	if err != nil {
		return fmt.Errorf("ApplyDelta: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ApplyDelta: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("ApplyDelta: %w", domain.ErrAccountNotFound)
	}
	return nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(&a.ID, &a.BankID, &a.AccountNumber, &a.Balance, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
