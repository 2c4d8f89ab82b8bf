// Package engine is the message-driven transaction core: it owns the
// payment status state machine, the idempotency guard, the balance and
// history query handlers, and the authorization round-trips that gate
// ledger mutation.
package engine

import (
	"context"
	"database/sql"
	"time"

	"github.com/mobilewallet/bankd/internal/authz"
	"github.com/mobilewallet/bankd/internal/domain"
)

// Clock allows deterministic timestamps in tests.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Publisher pushes a serialized payload onto an outbound topic. The
// MQTT transport satisfies it in production; tests record frames.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

type bankRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Bank, error)
}

type accountRepo interface {
	GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	ApplyDelta(ctx context.Context, tx *sql.Tx, accountNumber string, delta int64) error
}

type transactionRepo interface {
	GetByPaymentID(ctx context.Context, paymentID string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error)
	ListByAccountAndStatus(ctx context.Context, accountID int64, status domain.TxStatus) ([]domain.Transaction, error)
	Insert(ctx context.Context, tx *sql.Tx, t *domain.Transaction, legs []domain.DestinationLeg) error
	UpdateStatusIf(ctx context.Context, tx *sql.Tx, paymentID string, from, to domain.TxStatus, realizedAt time.Time) error
	LegsByTransactionID(ctx context.Context, transactionID int64) ([]domain.DestinationLeg, error)
}

type transactionAuthorizer interface {
	ConfirmTransaction(ctx context.Context, accountNumber, paymentID string, amount float64) <-chan authz.Result
}

// Engine drives the hosted banks' side of the payment network. It is
// bank-agnostic: outbound topics derive the BIC from the account's
// bank, so one engine serves the whole fleet. All status writes funnel
// through the conditional-update guard; there is no unconditional
// status write anywhere.
type Engine struct {
	db       *sql.DB
	banks    bankRepo
	accounts accountRepo
	txns     transactionRepo
	authz    transactionAuthorizer
	notifier *Notifier
	clock    Clock
	metrics  *Metrics
}

func New(
	db *sql.DB,
	banks bankRepo,
	accounts accountRepo,
	txns transactionRepo,
	authorizer transactionAuthorizer,
	notifier *Notifier,
	clock Clock,
	metrics *Metrics,
) *Engine {
	return &Engine{
		db:       db,
		banks:    banks,
		accounts: accounts,
		txns:     txns,
		authz:    authorizer,
		notifier: notifier,
		clock:    clock,
		metrics:  metrics,
	}
}
