package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/mobilewallet/bankd/internal/domain"
)

// Account numbers follow the 24 character IBAN shape the linker
// expects, with the BIC in characters 4..8.
const (
	TestBIC           = "BANK"
	TestAccountNumber = "NL01BANK0000000000000001"
	PeerAccountNumber = "NL01BANK0000000000000002"
)

func SeedBank(t *testing.T, db *sql.DB, bic, shortName, name string) *domain.Bank {
	t.Helper()

	b := &domain.Bank{BIC: bic, ShortName: shortName, Name: name}
	err := db.QueryRow(
		`INSERT INTO banks (bic, short_name, name) VALUES ($1, $2, $3) RETURNING id`,
		b.BIC, b.ShortName, b.Name,
	).Scan(&b.ID)
	if err != nil {
		t.Fatalf("seed bank %s: %v", bic, err)
	}
	return b
}

func SeedAccount(t *testing.T, db *sql.DB, bankID int64, accountNumber string, balance int64) *domain.Account {
	t.Helper()

	a := &domain.Account{
		BankID:        bankID,
		AccountNumber: accountNumber,
		Balance:       balance,
		CreatedAt:     time.Now().UTC(),
	}
	err := db.QueryRow(
		`INSERT INTO accounts (bank_id, account_number, balance, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		a.BankID, a.AccountNumber, a.Balance, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		t.Fatalf("seed account %s: %v", accountNumber, err)
	}
	return a
}

func GetBalance(t *testing.T, db *sql.DB, accountNumber string) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance FROM accounts WHERE account_number = $1`, accountNumber).Scan(&balance)
	if err != nil {
		t.Fatalf("get balance %s: %v", accountNumber, err)
	}
	return balance
}

func GetTransactionStatus(t *testing.T, db *sql.DB, paymentID string) domain.TxStatus {
	t.Helper()

	var status string
	err := db.QueryRow(`SELECT status FROM transactions WHERE payment_id = $1`, paymentID).Scan(&status)
	if err != nil {
		t.Fatalf("get transaction status %s: %v", paymentID, err)
	}
	return domain.TxStatus(status)
}

func CountTransactions(t *testing.T, db *sql.DB, paymentID string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE payment_id = $1`, paymentID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions %s: %v", paymentID, err)
	}
	return count
}
