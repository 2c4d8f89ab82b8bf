package engine

import (
	"context"
	"fmt"

	"github.com/mobilewallet/bankd/internal/domain"
	"github.com/mobilewallet/bankd/internal/wire"
)

// PublishBalance answers a balance query on the account's response
// subtree. Stateless read; the identity confirmation, when required,
// happened upstream.
func (e *Engine) PublishBalance(ctx context.Context, accountNumber string) error {
	acct, err := e.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		return fmt.Errorf("PublishBalance: %w", err)
	}
	bank, err := e.banks.GetByID(ctx, acct.BankID)
	if err != nil {
		return fmt.Errorf("PublishBalance: %w", err)
	}

	resp := wire.BalanceResponse{
		BankID:        bank.BIC,
		AccountNumber: accountNumber,
		Balance:       domain.EurosFromCents(acct.Balance),
		Currency:      domain.Currency,
		Message:       "balance",
		Time:          e.clock.Now().Format(wire.TimeFormat),
	}
	if err := e.notifier.Balance(ctx, resp); err != nil {
		return fmt.Errorf("PublishBalance: %w", err)
	}
	return nil
}

// PublishHistory answers a history query: every past transaction of
// the account, each inflated with its destination legs.
func (e *Engine) PublishHistory(ctx context.Context, accountNumber string) error {
	acct, err := e.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		return fmt.Errorf("PublishHistory: %w", err)
	}
	bank, err := e.banks.GetByID(ctx, acct.BankID)
	if err != nil {
		return fmt.Errorf("PublishHistory: %w", err)
	}

	txns, err := e.txns.ListByAccount(ctx, acct.ID)
	if err != nil {
		return fmt.Errorf("PublishHistory: %w", err)
	}

	orders := make([]wire.PaymentSummary, 0, len(txns))
	for _, t := range txns {
		destinations, err := e.destinationsForTransaction(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("PublishHistory: %w", err)
		}
		orders = append(orders, wire.PaymentSummary{
			PaymentID:           t.PaymentID,
			Status:              string(t.Status),
			Amount:              domain.EurosFromCents(t.Amount),
			Currency:            domain.Currency,
			TimeSent:            t.CreatedAt.Format(wire.TimeFormat),
			Message:             t.Message,
			PaymentDestinations: destinations,
		})
	}

	resp := wire.HistoryResponse{
		BankID:        bank.BIC,
		AccountNumber: accountNumber,
		Message:       "history",
		PaymentOrders: orders,
	}
	if err := e.notifier.History(ctx, resp); err != nil {
		return fmt.Errorf("PublishHistory: %w", err)
	}
	return nil
}
