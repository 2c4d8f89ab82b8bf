package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mobilewallet/bankd/internal/domain"
)

const bankColumns = `id, bic, short_name, name`

type BankRepository struct {
	db *sql.DB
}

func NewBankRepository(db *sql.DB) *BankRepository {
	return &BankRepository{db: db}
}

func (r *BankRepository) GetByID(ctx context.Context, id int64) (*domain.Bank, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bankColumns+` FROM banks WHERE id = $1`, id,
	)
	b, err := scanBank(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrBankNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return b, nil
}

func (r *BankRepository) GetByBIC(ctx context.Context, bic string) (*domain.Bank, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bankColumns+` FROM banks WHERE bic = $1`, bic,
	)
	b, err := scanBank(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByBIC: %w", domain.ErrBankNotFound)
		}
		return nil, fmt.Errorf("GetByBIC: %w", err)
	}
	return b, nil
}

func (r *BankRepository) List(ctx context.Context) ([]domain.Bank, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bankColumns+` FROM banks ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var banks []domain.Bank
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		banks = append(banks, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return banks, nil
}

func scanBank(s scanner) (*domain.Bank, error) {
	var b domain.Bank
	if err := s.Scan(&b.ID, &b.BIC, &b.ShortName, &b.Name); err != nil {
		return nil, err
	}
	return &b, nil
}
