package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to TxStatus }{
		{StatusRequested, StatusPending},
		{StatusRequested, StatusRejected},
		{StatusPending, StatusReceived},
		{StatusPending, StatusRejected},
		{StatusPending, StatusExpired},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	refused := []struct{ from, to TxStatus }{
		{StatusRequested, StatusReceived},
		{StatusRequested, StatusExpired},
		{StatusPending, StatusRequested},
		{StatusReceived, StatusRejected},
		{StatusReceived, StatusReceived},
		{StatusRejected, StatusPending},
		{StatusExpired, StatusReceived},
	}
	for _, tc := range refused {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusRequested.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusReceived.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
}

func TestFromGatewayStatus(t *testing.T) {
	cases := []struct {
		in   string
		want TxStatus
		ok   bool
	}{
		{GatewayConfirmed, StatusReceived, true},
		{GatewayRejected, StatusRejected, true},
		{GatewayError, StatusRejected, true},
		{GatewayExpired, StatusExpired, true},
		{"confirmed", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := FromGatewayStatus(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestMoneyConversion(t *testing.T) {
	assert.Equal(t, int64(1999), CentsFromEuros(19.99))
	assert.Equal(t, int64(2000), CentsFromEuros(20))
	assert.Equal(t, int64(0), CentsFromEuros(0))
	assert.InDelta(t, 19.99, EurosFromCents(1999), 1e-9)
}
