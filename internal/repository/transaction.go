package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/mobilewallet/bankd/internal/domain"
)

const transactionColumns = `id, from_id, payment_id, amount, status, message, created_at, realized_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE payment_id = $1`, paymentID,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByPaymentID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByPaymentID: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	return r.list(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE from_id = $1 ORDER BY created_at DESC`,
		accountID,
	)
}

func (r *TransactionRepository) ListByAccountAndStatus(ctx context.Context, accountID int64, status domain.TxStatus) ([]domain.Transaction, error) {
	return r.list(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE from_id = $1 AND status = $2 ORDER BY created_at DESC`,
		accountID, status,
	)
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}
	return txns, nil
}

// Insert writes a transaction and all its destination legs in one
// statement set. The caller owns the enclosing sql.Tx. Two concurrent
// first sightings of the same payment race here; the loser hits the
// payment_id unique index and gets ErrAlreadyProcessed.
func (r *TransactionRepository) Insert(ctx context.Context, tx *sql.Tx, t *domain.Transaction, legs []domain.DestinationLeg) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO transactions (from_id, payment_id, amount, status, message, created_at, realized_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		t.FromID, t.PaymentID, t.Amount, t.Status, t.Message, t.CreatedAt, t.RealizedAt,
	).Scan(&t.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Insert: %w", domain.ErrAlreadyProcessed)
		}
		return fmt.Errorf("Insert: %w", err)
	}

	for i := range legs {
		legs[i].TransactionID = t.ID
		err := tx.QueryRowContext(ctx,
			`INSERT INTO transaction_legs (transaction_id, to_id, amount, message)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			legs[i].TransactionID, legs[i].ToID, legs[i].Amount, legs[i].Message,
		).Scan(&legs[i].ID)
		if err != nil {
			return fmt.Errorf("Insert: leg: %w", err)
		}
	}
	return nil
}

// UpdateStatusIf advances a transaction's status only when its current
// persisted status equals from. Zero rows affected means another
// delivery or callback got there first; the caller receives
// ErrAlreadyProcessed and must not apply side effects. A zero
// realizedAt leaves the column NULL; only terminal transitions carry a
// realization time.
func (r *TransactionRepository) UpdateStatusIf(ctx context.Context, tx *sql.Tx, paymentID string, from, to domain.TxStatus, realizedAt time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET status = $1, realized_at = $2
		WHERE payment_id = $3 AND status = $4`,
		to, sql.NullTime{Time: realizedAt, Valid: !realizedAt.IsZero()}, paymentID, from,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatusIf: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatusIf: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStatusIf: %w", domain.ErrAlreadyProcessed)
	}
	return nil
}

func (r *TransactionRepository) LegsByTransactionID(ctx context.Context, transactionID int64) ([]domain.DestinationLeg, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, transaction_id, to_id, amount, message
		FROM transaction_legs WHERE transaction_id = $1 ORDER BY id`,
		transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("LegsByTransactionID: %w", err)
	}
	defer rows.Close()

	var legs []domain.DestinationLeg
	for rows.Next() {
		var l domain.DestinationLeg
		if err := rows.Scan(&l.ID, &l.TransactionID, &l.ToID, &l.Amount, &l.Message); err != nil {
			return nil, fmt.Errorf("LegsByTransactionID: scan: %w", err)
		}
		legs = append(legs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LegsByTransactionID: rows: %w", err)
	}
	return legs, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var realizedAt sql.NullTime
	err := s.Scan(&t.ID, &t.FromID, &t.PaymentID, &t.Amount, &t.Status, &t.Message, &t.CreatedAt, &realizedAt)
	if err != nil {
		return nil, err
	}
	if realizedAt.Valid {
		t.RealizedAt = &realizedAt.Time
	}
	return &t, nil
}
