package domain

import "github.com/shopspring/decimal"

// The payment network quotes everything in this currency.
const Currency = "EUR"

// CentsFromEuros converts a wire amount (euros, arbitrary JSON number)
// into ledger cents. Going through decimal avoids the half-cent drift
// that naive float multiplication produces for values like 19.99.
func CentsFromEuros(euros float64) int64 {
	return decimal.NewFromFloat(euros).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// EurosFromCents converts ledger cents back into the euro amount
// carried on the wire.
func EurosFromCents(cents int64) float64 {
	f, _ := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).Float64()
	return f
}
