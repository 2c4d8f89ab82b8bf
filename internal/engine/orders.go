package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/mobilewallet/bankd/internal/authz"
	"github.com/mobilewallet/bankd/internal/domain"
	"github.com/mobilewallet/bankd/internal/logging"
	"github.com/mobilewallet/bankd/internal/wire"
)

// RecordRequested persists a freshly delivered payment order in the
// requested state, before any authorization round-trip. It reports
// whether this delivery was the first sighting; a duplicate must not
// trigger another authorization call.
func (e *Engine) RecordRequested(ctx context.Context, order wire.PaymentOrder) (bool, error) {
	applied, err := e.ApplyOrderStatus(ctx, order, domain.StatusRequested)
	if err != nil {
		return false, fmt.Errorf("RecordRequested: %w", err)
	}
	return applied, nil
}

// ProcessOrder validates a payment order and moves it to pending. The
// funds check runs first: an order the source account cannot cover is
// answered with a rejection payload straight away; pending is never
// persisted and no authorization call is made for it. Covered orders
// go pending and the transaction authorization is issued; the final
// received/rejected decision arrives later through the confirmation
// gateway or the authorization continuation.
func (e *Engine) ProcessOrder(ctx context.Context, order wire.PaymentOrder) error {
	log := logging.FromContext(ctx)

	total := order.TotalAmount()
	totalCents := domain.CentsFromEuros(total)

	src, err := e.accounts.GetByNumber(ctx, order.SourceAccount)
	if err != nil {
		return fmt.Errorf("ProcessOrder: %w", err)
	}

	if src.Balance < totalCents {
		log.Info("insufficient funds",
			"payment_id", order.PaymentID,
			"account", order.SourceAccount,
			"balance_cents", src.Balance,
			"amount_cents", totalCents,
		)
		if err := e.rejectRequested(ctx, order.PaymentID); err != nil {
			return fmt.Errorf("ProcessOrder: %w", err)
		}
		rejection := wire.OrderRejection{
			OrderID: order.PaymentID,
			Balance: domain.EurosFromCents(src.Balance),
			Success: 0,
			Message: "Not enough money",
		}
		if err := e.notifier.OrderRejection(ctx, rejection); err != nil {
			return fmt.Errorf("ProcessOrder: %w", err)
		}
		return nil
	}

	applied, err := e.ApplyOrderStatus(ctx, order, domain.StatusPending)
	if err != nil {
		return fmt.Errorf("ProcessOrder: %w", err)
	}
	if !applied {
		return nil
	}

	e.awaitTransactionAuthorization(ctx, order.SourceAccount, order.PaymentID, total)
	return nil
}

// ProcessRequestedForAccount resumes every requested order of one
// account. The confirmation gateway calls this when the account
// holder's identity confirmation for a transaction action arrives.
func (e *Engine) ProcessRequestedForAccount(ctx context.Context, accountNumber string) error {
	src, err := e.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		return fmt.Errorf("ProcessRequestedForAccount: %w", err)
	}

	requested, err := e.txns.ListByAccountAndStatus(ctx, src.ID, domain.StatusRequested)
	if err != nil {
		return fmt.Errorf("ProcessRequestedForAccount: %w", err)
	}

	for _, t := range requested {
		order, err := e.orderFromTransaction(ctx, &t, src, accountNumber)
		if err != nil {
			return fmt.Errorf("ProcessRequestedForAccount: %w", err)
		}
		if err := e.ProcessOrder(ctx, *order); err != nil {
			return fmt.Errorf("ProcessRequestedForAccount: %w", err)
		}
	}
	return nil
}

// RejectPayment drives a payment to rejected from whatever
// non-terminal state it is in. A payment something else already
// finalized is left alone.
func (e *Engine) RejectPayment(ctx context.Context, paymentID string) error {
	err := e.ApplyStatusByPaymentID(ctx, paymentID, domain.StatusRejected)
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("RejectPayment: %w", err)
	}
	return nil
}

// rejectRequested drives a requested-state row to rejected. Orders the
// engine never recorded (confirmation mode off) have no row to reject;
// that is not an error.
func (e *Engine) rejectRequested(ctx context.Context, paymentID string) error {
	t, err := e.txns.GetByPaymentID(ctx, paymentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("rejectRequested: %w", err)
	}
	if t.Status != domain.StatusRequested {
		return nil
	}
	if err := e.transition(ctx, t, domain.StatusRejected); err != nil && !errors.Is(err, domain.ErrAlreadyProcessed) {
		return fmt.Errorf("rejectRequested: %w", err)
	}
	return nil
}

// awaitTransactionAuthorization fires the transaction-specific
// authorization call and consumes its single continuation on a separate
// goroutine. Anything short of an explicit success rejects the payment;
// a continuation arriving after the transaction already reached a
// terminal state is absorbed by the idempotency guard.
func (e *Engine) awaitTransactionAuthorization(ctx context.Context, accountNumber, paymentID string, amount float64) {
	results := e.authz.ConfirmTransaction(ctx, accountNumber, paymentID, amount)

	go func() {
		res := <-results
		e.metrics.authzResult(string(authz.ActionTransaction), res.Outcome.String())

		// The delivery callback that issued the call may be long gone.
		bg := context.WithoutCancel(ctx)
		log := logging.FromContext(bg)

		if res.Outcome == authz.Success {
			log.Debug("transaction authorization confirmed", "payment_id", paymentID)
			return
		}

		log.Error("transaction authorization did not succeed",
			"payment_id", paymentID,
			"outcome", res.Outcome.String(),
			"error", res.Err,
		)
		if err := e.ApplyStatusByPaymentID(bg, paymentID, domain.StatusRejected); err != nil &&
			!errors.Is(err, domain.ErrAlreadyProcessed) {
			log.Error("failed to reject payment", "payment_id", paymentID, "error", err)
		}
	}()
}

// orderFromTransaction inflates a persisted transaction back into the
// wire shape ProcessOrder consumes.
func (e *Engine) orderFromTransaction(ctx context.Context, t *domain.Transaction, src *domain.Account, accountNumber string) (*wire.PaymentOrder, error) {
	bank, err := e.banks.GetByID(ctx, src.BankID)
	if err != nil {
		return nil, fmt.Errorf("orderFromTransaction: %w", err)
	}
	destinations, err := e.destinationsForTransaction(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("orderFromTransaction: %w", err)
	}

	return &wire.PaymentOrder{
		PaymentID:           t.PaymentID,
		SourceAccount:       accountNumber,
		BankID:              bank.BIC,
		Currency:            domain.Currency,
		TimeSent:            t.CreatedAt.Format(wire.TimeFormat),
		Message:             t.Message,
		Amount:              domain.EurosFromCents(t.Amount),
		PaymentDestinations: destinations,
	}, nil
}
