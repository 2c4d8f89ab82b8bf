package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsObject(t *testing.T) {
	assert.True(t, IsObject([]byte(`{"accountNumber":"x"}`)))
	assert.True(t, IsObject([]byte("  \n\t{\"a\":1}")))
	assert.False(t, IsObject([]byte(`[{"a":1}]`)))
	assert.False(t, IsObject([]byte("  [1,2]")))
	assert.False(t, IsObject(nil))
	assert.False(t, IsObject([]byte("   ")))
}

func TestTotalAmountSumsLegs(t *testing.T) {
	order := PaymentOrder{
		Amount: 999, // ignored
		PaymentDestinations: []Destination{
			{DestinationAccount: "a", Amount: 12.50},
			{DestinationAccount: "b", Amount: 7.25},
		},
	}
	assert.InDelta(t, 19.75, order.TotalAmount(), 1e-9)

	assert.Zero(t, PaymentOrder{Amount: 5}.TotalAmount())
}

func TestDecodePaymentOrder(t *testing.T) {
	payload := []byte(`{
		"paymentId": "pay-1",
		"sourceAccount": "NL01BANK0000000000000001",
		"bankId": "BANK",
		"currency": "EUR",
		"time_sent": "2026-01-02 10:30:00",
		"amount": 20,
		"paymentDestinations": [{"destinationAccount": "NL01PEER0000000000000002", "amount": 20}]
	}`)

	var order PaymentOrder
	require.NoError(t, Decode(payload, &order))
	assert.Equal(t, "pay-1", order.PaymentID)
	assert.Equal(t, "2026-01-02 10:30:00", order.TimeSent)
	require.Len(t, order.PaymentDestinations, 1)
	assert.InDelta(t, 20, order.PaymentDestinations[0].Amount, 1e-9)

	assert.Error(t, Decode([]byte(`{"paymentId":`), &order))
}
