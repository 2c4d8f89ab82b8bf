package domain

import "time"

// Balances and transaction amounts are held in euro cents. The wire
// format carries euros as JSON numbers; conversion happens at the wire
// boundary, never here.
type Account struct {
	ID            int64
	BankID        int64
	AccountNumber string
	Balance       int64
	CreatedAt     time.Time
}

type Bank struct {
	ID        int64
	BIC       string
	ShortName string
	Name      string
}
