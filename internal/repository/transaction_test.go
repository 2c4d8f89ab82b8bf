package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilewallet/bankd/internal/domain"
	"github.com/mobilewallet/bankd/internal/testutil"
)

func TestTransactionRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	bank := testutil.SeedBank(t, db, testutil.TestBIC, "testbank", "Test Bank")
	src := testutil.SeedAccount(t, db, bank.ID, testutil.TestAccountNumber, 50_00)
	dst := testutil.SeedAccount(t, db, bank.ID, testutil.PeerAccountNumber, 0)

	txns := NewTransactionRepository(db)
	accounts := NewAccountRepository(db)

	insert := func(t *testing.T, paymentID string, status domain.TxStatus, amount int64) *domain.Transaction {
		t.Helper()
		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		defer tx.Rollback()

		txn := &domain.Transaction{
			FromID:    src.ID,
			PaymentID: paymentID,
			Amount:    amount,
			Status:    status,
			CreatedAt: time.Now().UTC(),
		}
		legs := []domain.DestinationLeg{{ToID: dst.ID, Amount: amount}}
		require.NoError(t, txns.Insert(ctx, tx, txn, legs))
		require.NoError(t, tx.Commit())
		return txn
	}

	t.Run("insert persists the transaction with its legs", func(t *testing.T) {
		txn := insert(t, "pay-ins", domain.StatusRequested, 10_00)
		require.NotZero(t, txn.ID)

		got, err := txns.GetByPaymentID(ctx, "pay-ins")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRequested, got.Status)
		assert.Equal(t, int64(10_00), got.Amount)
		assert.Nil(t, got.RealizedAt)

		legs, err := txns.LegsByTransactionID(ctx, got.ID)
		require.NoError(t, err)
		require.Len(t, legs, 1)
		assert.Equal(t, dst.ID, legs[0].ToID)
	})

	t.Run("duplicate payment id maps to already processed", func(t *testing.T) {
		insert(t, "pay-dup", domain.StatusRequested, 2_00)

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		defer tx.Rollback()

		txn := &domain.Transaction{
			FromID:    src.ID,
			PaymentID: "pay-dup",
			Amount:    2_00,
			Status:    domain.StatusRequested,
			CreatedAt: time.Now().UTC(),
		}
		err = txns.Insert(ctx, tx, txn, nil)
		assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	})

	t.Run("missing payment id maps to not found", func(t *testing.T) {
		_, err := txns.GetByPaymentID(ctx, "pay-ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("conditional status update refuses a stale expected state", func(t *testing.T) {
		insert(t, "pay-cas", domain.StatusPending, 5_00)
		now := time.Now().UTC()

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, txns.UpdateStatusIf(ctx, tx, "pay-cas", domain.StatusPending, domain.StatusReceived, now))
		require.NoError(t, tx.Commit())

		got, err := txns.GetByPaymentID(ctx, "pay-cas")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusReceived, got.Status)
		require.NotNil(t, got.RealizedAt)

		// Same expected state again: the row moved on, nothing matches.
		tx, err = db.BeginTx(ctx, nil)
		require.NoError(t, err)
		err = txns.UpdateStatusIf(ctx, tx, "pay-cas", domain.StatusPending, domain.StatusReceived, now)
		assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
		tx.Rollback()

		got, err = txns.GetByPaymentID(ctx, "pay-cas")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusReceived, got.Status)
	})

	t.Run("list by account and status filters", func(t *testing.T) {
		insert(t, "pay-req-1", domain.StatusRequested, 1_00)

		requested, err := txns.ListByAccountAndStatus(ctx, src.ID, domain.StatusRequested)
		require.NoError(t, err)
		for _, txn := range requested {
			assert.Equal(t, domain.StatusRequested, txn.Status)
		}
		assert.NotEmpty(t, requested)

		all, err := txns.ListByAccount(ctx, src.ID)
		require.NoError(t, err)
		assert.Greater(t, len(all), len(requested))
	})

	t.Run("apply delta moves balances relatively", func(t *testing.T) {
		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, accounts.ApplyDelta(ctx, tx, testutil.TestAccountNumber, -7_50))
		require.NoError(t, accounts.ApplyDelta(ctx, tx, testutil.PeerAccountNumber, 7_50))
		require.NoError(t, tx.Commit())

		assert.Equal(t, int64(42_50), testutil.GetBalance(t, db, testutil.TestAccountNumber))
		assert.Equal(t, int64(7_50), testutil.GetBalance(t, db, testutil.PeerAccountNumber))
	})

	t.Run("apply delta on unknown account fails the transaction", func(t *testing.T) {
		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		err = accounts.ApplyDelta(ctx, tx, "NL01BANK0000000000000099", 1)
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
		tx.Rollback()
	})
}
