package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mobilewallet/bankd/internal/domain"
	"github.com/mobilewallet/bankd/internal/logging"
	"github.com/mobilewallet/bankd/internal/wire"
)

// ApplyOrderStatus records the given status for the payment order's
// transaction, creating the row (with its legs) on first sighting and
// transitioning it otherwise. It reports whether the status was
// applied; a refused transition is not an error, it is the idempotency
// guard doing its job.
//
// Entering received mutates the ledger: source down by the order total,
// every destination leg up by its own amount, all inside one SQL
// transaction with the status update itself.
func (e *Engine) ApplyOrderStatus(ctx context.Context, order wire.PaymentOrder, status domain.TxStatus) (bool, error) {
	log := logging.FromContext(ctx)

	t, err := e.txns.GetByPaymentID(ctx, order.PaymentID)
	switch {
	case err == nil:
		if !domain.CanTransition(t.Status, status) {
			log.Warn("transaction already processed",
				"payment_id", order.PaymentID,
				"status", t.Status,
				"requested_status", status,
			)
			return false, nil
		}
		if err := e.transition(ctx, t, status); err != nil {
			if errors.Is(err, domain.ErrAlreadyProcessed) {
				log.Warn("transaction already processed",
					"payment_id", order.PaymentID,
					"requested_status", status,
				)
				return false, nil
			}
			return false, fmt.Errorf("ApplyOrderStatus: %w", err)
		}

	case errors.Is(err, domain.ErrNotFound):
		if err := e.insertWithStatus(ctx, order, status); err != nil {
			// A concurrent first sighting can beat us to the insert;
			// the unique index turns the loser into a duplicate.
			if errors.Is(err, domain.ErrAlreadyProcessed) {
				log.Warn("transaction already processed",
					"payment_id", order.PaymentID,
					"requested_status", status,
				)
				return false, nil
			}
			return false, fmt.Errorf("ApplyOrderStatus: %w", err)
		}

	default:
		return false, fmt.Errorf("ApplyOrderStatus: %w", err)
	}

	update := e.statusUpdateFromOrder(order, status)
	if err := e.notifier.StatusUpdate(ctx, update); err != nil {
		return true, fmt.Errorf("ApplyOrderStatus: %w", err)
	}
	return true, nil
}

// ApplyStatusByPaymentID transitions an already-recorded transaction,
// rebuilding the notification envelope from the ledger. Callers that
// race a duplicate delivery receive ErrAlreadyProcessed and must treat
// it as "someone else finished this".
func (e *Engine) ApplyStatusByPaymentID(ctx context.Context, paymentID string, status domain.TxStatus) error {
	log := logging.FromContext(ctx)

	t, err := e.txns.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("ApplyStatusByPaymentID: %w", err)
	}

	if !domain.CanTransition(t.Status, status) {
		log.Warn("transaction already processed",
			"payment_id", paymentID,
			"status", t.Status,
			"requested_status", status,
		)
		return fmt.Errorf("ApplyStatusByPaymentID: %w", domain.ErrAlreadyProcessed)
	}

	if err := e.transition(ctx, t, status); err != nil {
		return fmt.Errorf("ApplyStatusByPaymentID: %w", err)
	}

	update, err := e.statusUpdateFromTransaction(ctx, t, status)
	if err != nil {
		return fmt.Errorf("ApplyStatusByPaymentID: %w", err)
	}
	if err := e.notifier.StatusUpdate(ctx, *update); err != nil {
		return fmt.Errorf("ApplyStatusByPaymentID: %w", err)
	}
	return nil
}

// transition performs the compare-and-set status advance and, when the
// target is received, the balance deltas, in one SQL transaction. The
// CAS runs first: if another worker already moved the status, nothing
// in here has touched a balance.
func (e *Engine) transition(ctx context.Context, t *domain.Transaction, to domain.TxStatus) error {
	from := t.Status

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transition: begin tx: %w", err)
	}
	defer tx.Rollback()

	var realizedAt time.Time
	if to.IsTerminal() {
		realizedAt = e.clock.Now()
	}
	if err := e.txns.UpdateStatusIf(ctx, tx, t.PaymentID, from, to, realizedAt); err != nil {
		if errors.Is(err, domain.ErrAlreadyProcessed) {
			return domain.ErrAlreadyProcessed
		}
		return fmt.Errorf("transition: %w", err)
	}

	if to == domain.StatusReceived {
		legs, err := e.txns.LegsByTransactionID(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("transition: %w", err)
		}
		if err := e.applyLedgerMutation(ctx, tx, t, legs); err != nil {
			return fmt.Errorf("transition: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transition: commit: %w", err)
	}

	t.Status = to
	e.metrics.transition(string(from), string(to))
	logging.FromContext(ctx).Info("transaction status advanced",
		"payment_id", t.PaymentID,
		"from", from,
		"to", to,
	)
	return nil
}

// insertWithStatus creates the transaction row and its legs directly in
// the given status. This is the single-round-trip path: with
// confirmation mode off a terminal status can be the first thing the
// ledger ever hears about a payment.
func (e *Engine) insertWithStatus(ctx context.Context, order wire.PaymentOrder, status domain.TxStatus) error {
	src, err := e.accounts.GetByNumber(ctx, order.SourceAccount)
	if err != nil {
		return fmt.Errorf("insertWithStatus: source: %w", err)
	}

	now := e.clock.Now()
	t := &domain.Transaction{
		FromID:    src.ID,
		PaymentID: order.PaymentID,
		Amount:    domain.CentsFromEuros(order.TotalAmount()),
		Status:    status,
		Message:   order.Message,
		CreatedAt: now,
	}
	if status.IsTerminal() {
		t.RealizedAt = &now
	}

	legs := make([]domain.DestinationLeg, 0, len(order.PaymentDestinations))
	for _, d := range order.PaymentDestinations {
		dest, err := e.accounts.GetByNumber(ctx, d.DestinationAccount)
		if err != nil {
			return fmt.Errorf("insertWithStatus: destination %s: %w", d.DestinationAccount, err)
		}
		legs = append(legs, domain.DestinationLeg{
			ToID:    dest.ID,
			Amount:  domain.CentsFromEuros(d.Amount),
			Message: order.Message,
		})
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insertWithStatus: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := e.txns.Insert(ctx, tx, t, legs); err != nil {
		return fmt.Errorf("insertWithStatus: %w", err)
	}

	// The legs just went in on this still-open tx; reading them back
	// through the pooled connection would not see them. Use the slice
	// in hand.
	if status == domain.StatusReceived {
		if err := e.applyLedgerMutation(ctx, tx, t, legs); err != nil {
			return fmt.Errorf("insertWithStatus: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insertWithStatus: commit: %w", err)
	}

	e.metrics.transition("none", string(status))
	logging.FromContext(ctx).Info("transaction recorded",
		"payment_id", order.PaymentID,
		"status", status,
		"amount_cents", t.Amount,
	)
	return nil
}

// applyLedgerMutation moves the money: debit the source for the total,
// credit each destination leg. The caller supplies the legs; they may
// be uncommitted rows of the enclosing tx. Legs are independent; no
// per-leg ordering is guaranteed.
func (e *Engine) applyLedgerMutation(ctx context.Context, tx *sql.Tx, t *domain.Transaction, legs []domain.DestinationLeg) error {
	src, err := e.accounts.GetByID(ctx, t.FromID)
	if err != nil {
		return fmt.Errorf("applyLedgerMutation: source: %w", err)
	}
	if err := e.accounts.ApplyDelta(ctx, tx, src.AccountNumber, -t.Amount); err != nil {
		return fmt.Errorf("applyLedgerMutation: debit: %w", err)
	}

	for _, leg := range legs {
		dest, err := e.accounts.GetByID(ctx, leg.ToID)
		if err != nil {
			return fmt.Errorf("applyLedgerMutation: destination %d: %w", leg.ToID, err)
		}
		if err := e.accounts.ApplyDelta(ctx, tx, dest.AccountNumber, leg.Amount); err != nil {
			return fmt.Errorf("applyLedgerMutation: credit %s: %w", dest.AccountNumber, err)
		}
	}
	return nil
}

func (e *Engine) statusUpdateFromOrder(order wire.PaymentOrder, status domain.TxStatus) wire.StatusUpdate {
	return wire.StatusUpdate{
		PaymentID:           order.PaymentID,
		Status:              string(status),
		Amount:              order.TotalAmount(),
		BankID:              order.BankID,
		SourceAccount:       order.SourceAccount,
		Currency:            domain.Currency,
		TimeSent:            e.clock.Now().Format(wire.TimeFormat),
		Message:             order.Message,
		PaymentDestinations: order.PaymentDestinations,
	}
}

func (e *Engine) statusUpdateFromTransaction(ctx context.Context, t *domain.Transaction, status domain.TxStatus) (*wire.StatusUpdate, error) {
	src, err := e.accounts.GetByID(ctx, t.FromID)
	if err != nil {
		return nil, fmt.Errorf("statusUpdateFromTransaction: %w", err)
	}
	bank, err := e.banks.GetByID(ctx, src.BankID)
	if err != nil {
		return nil, fmt.Errorf("statusUpdateFromTransaction: %w", err)
	}
	destinations, err := e.destinationsForTransaction(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("statusUpdateFromTransaction: %w", err)
	}

	return &wire.StatusUpdate{
		PaymentID:           t.PaymentID,
		Status:              string(status),
		Amount:              domain.EurosFromCents(t.Amount),
		BankID:              bank.BIC,
		SourceAccount:       src.AccountNumber,
		Currency:            domain.Currency,
		TimeSent:            e.clock.Now().Format(wire.TimeFormat),
		Message:             t.Message,
		PaymentDestinations: destinations,
	}, nil
}

func (e *Engine) destinationsForTransaction(ctx context.Context, transactionID int64) ([]wire.Destination, error) {
	legs, err := e.txns.LegsByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("destinationsForTransaction: %w", err)
	}

	destinations := make([]wire.Destination, 0, len(legs))
	for _, leg := range legs {
		dest, err := e.accounts.GetByID(ctx, leg.ToID)
		if err != nil {
			return nil, fmt.Errorf("destinationsForTransaction: %w", err)
		}
		destinations = append(destinations, wire.Destination{
			DestinationAccount: dest.AccountNumber,
			Amount:             domain.EurosFromCents(leg.Amount),
		})
	}
	return destinations, nil
}
