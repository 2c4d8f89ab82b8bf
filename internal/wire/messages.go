package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TimeFormat is the timestamp layout used in every wire envelope.
const TimeFormat = "2006-01-02 15:04:05"

type BalanceRequest struct {
	AccountNumber string `json:"accountNumber"`
}

type BalanceResponse struct {
	BankID        string  `json:"bankId"`
	AccountNumber string  `json:"accountNumber"`
	Balance       float64 `json:"balance"`
	Currency      string  `json:"currency"`
	Message       string  `json:"message"`
	Time          string  `json:"time"`
}

type Destination struct {
	DestinationAccount string  `json:"destinationAccount"`
	Amount             float64 `json:"amount"`
}

type PaymentOrder struct {
	PaymentID           string        `json:"paymentId"`
	SourceAccount       string        `json:"sourceAccount"`
	BankID              string        `json:"bankId"`
	Currency            string        `json:"currency"`
	TimeSent            string        `json:"time_sent"`
	Message             string        `json:"message"`
	Amount              float64       `json:"amount"`
	PaymentDestinations []Destination `json:"paymentDestinations"`
}

// TotalAmount is the authoritative order total: the sum of the legs.
// The top-level amount field is informational only and is not trusted.
func (o PaymentOrder) TotalAmount() float64 {
	var total float64
	for _, d := range o.PaymentDestinations {
		total += d.Amount
	}
	return total
}

type StatusUpdate struct {
	PaymentID           string        `json:"paymentId"`
	Status              string        `json:"status"`
	Amount              float64       `json:"amount"`
	BankID              string        `json:"bankId"`
	SourceAccount       string        `json:"sourceAccount"`
	Currency            string        `json:"currency"`
	TimeSent            string        `json:"timeSent"`
	Message             string        `json:"message"`
	PaymentDestinations []Destination `json:"paymentDestinations"`
}

// OrderRejection is the short-circuit reply for an order the engine
// refuses before authorization (insufficient funds).
type OrderRejection struct {
	OrderID string  `json:"orderId"`
	Balance float64 `json:"balance"`
	Success int     `json:"success"`
	Message string  `json:"message"`
}

type PaymentSummary struct {
	PaymentID           string        `json:"paymentId"`
	Status              string        `json:"status"`
	Amount              float64       `json:"amount"`
	Currency            string        `json:"currency"`
	TimeSent            string        `json:"time_sent"`
	Message             string        `json:"message"`
	PaymentDestinations []Destination `json:"paymentDestinations"`
}

type HistoryResponse struct {
	BankID        string           `json:"bankId"`
	AccountNumber string           `json:"accountNumber"`
	Message       string           `json:"message"`
	PaymentOrders []PaymentSummary `json:"paymentOrders"`
}

// IsObject reports whether a payload looks like a single JSON object.
// Query handlers ignore arrays rather than erroring on them.
func IsObject(payload []byte) bool {
	trimmed := bytes.TrimLeft(payload, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] != '['
}

// Decode unmarshals a payload into v, folding any JSON error into a
// single malformed-message failure the router can log and drop on.
func Decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("wire.Decode: %w", err)
	}
	return nil
}
