package domain

import "time"

type TxStatus string

const (
	StatusRequested TxStatus = "requested"
	StatusPending   TxStatus = "pending"
	StatusReceived  TxStatus = "received"
	StatusRejected  TxStatus = "rejected"
	StatusExpired   TxStatus = "expired"
)

// Transaction is one logical payment order, keyed by its idempotency
// key PaymentID. At most one row exists per PaymentID and its status
// only advances along the transition table below.
type Transaction struct {
	ID         int64
	FromID     int64
	PaymentID  string
	Amount     int64
	Status     TxStatus
	Message    string
	CreatedAt  time.Time
	RealizedAt *time.Time
}

// DestinationLeg is one destination allocation of a payment order.
// Legs are written once, alongside their transaction, and never
// mutated; their amounts sum to the transaction amount.
type DestinationLeg struct {
	ID            int64
	TransactionID int64
	ToID          int64
	Amount        int64
	Message       string
}

// CanTransition reports whether a persisted status may advance to the
// requested one. Anything not listed is refused; in particular every
// terminal status (received, rejected, expired) is a dead end, which is
// the idempotency guard against duplicate delivery and replayed
// confirmation callbacks.
func CanTransition(from, to TxStatus) bool {
	switch from {
	case StatusRequested:
		return to == StatusPending || to == StatusRejected
	case StatusPending:
		return to == StatusReceived || to == StatusRejected || to == StatusExpired
	default:
		return false
	}
}

// IsTerminal reports whether a status admits no further transition.
func (s TxStatus) IsTerminal() bool {
	return s == StatusReceived || s == StatusRejected || s == StatusExpired
}

// Status strings exchanged with the confirmation gateway.
const (
	GatewayConfirmed = "CONFIRMED"
	GatewayRejected  = "REJECTED"
	GatewayError     = "ERROR"
	GatewayExpired   = "EXPIRED"
)

// FromGatewayStatus maps a gateway callback status onto the internal
// enum. Both REJECTED and ERROR collapse to rejected.
func FromGatewayStatus(s string) (TxStatus, bool) {
	switch s {
	case GatewayConfirmed:
		return StatusReceived, true
	case GatewayRejected, GatewayError:
		return StatusRejected, true
	case GatewayExpired:
		return StatusExpired, true
	default:
		return "", false
	}
}
