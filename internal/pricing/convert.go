package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Direction selects which side of the trade the amount is denominated in.
type Direction int

const (
	// Disposing means the user gives up the asset and receives quote currency.
	Disposing Direction = iota
	// Acquiring means the user pays quote currency and receives the asset.
	Acquiring
)

// String returns the direction name used in CLI flags and logs.
func (d Direction) String() string {
	if d == Acquiring {
		return "acquiring"
	}
	return "disposing"
}

// ParseDirection maps a flag value onto a Direction. Unknown values fall back
// to Disposing, the default trade direction.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "acquiring", "acquire", "buy":
		return Acquiring
	default:
		return Disposing
	}
}

// Result is the outcome of a single conversion quote.
//
// FeeQuote carries the fee expressed in quote-currency terms for the Disposing
// direction. In the Acquiring direction the fee is taken from the acquired
// asset and FeeQuote repeats the asset-unit fee without conversion; see the
// package tests for why that asymmetry is kept.
type Result struct {
	// Amount is the input amount after coercion, in the direction's unit.
	Amount decimal.Decimal
	// CounterAmount is what the user receives: quote currency when disposing,
	// asset units when acquiring.
	CounterAmount decimal.Decimal
	// FeeSource is the protocol fee in asset units.
	FeeSource decimal.Decimal
	// FeeQuote is the protocol fee for display purposes.
	FeeQuote decimal.Decimal
}

// Convert computes a quote for the given rate, protocol fee rate, amount, and
// direction. It is a pure function: no clock, no hidden state.
//
// Disposing: the fee is taken from the disposed asset before conversion.
// Acquiring: the gross asset amount is bought at the full rate and the fee is
// taken from the acquired asset.
func Convert(rate, feeRate, amount decimal.Decimal, dir Direction) Result {
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	if dir == Acquiring {
		if rate.Sign() <= 0 {
			return Result{Amount: amount}
		}
		gross := amount.Div(rate)
		fee := gross.Mul(feeRate)
		received := gross.Sub(fee)
		return Result{
			Amount:        amount,
			CounterAmount: received,
			FeeSource:     fee,
			FeeQuote:      fee,
		}
	}

	fee := amount.Mul(feeRate)
	net := amount.Sub(fee)
	return Result{
		Amount:        amount,
		CounterAmount: net.Mul(rate),
		FeeSource:     fee,
		FeeQuote:      fee.Mul(rate),
	}
}

// ParseAmount coerces raw user input into a non-negative decimal amount.
// Empty, non-numeric, and negative input all degrade to zero so a quote can
// always be rendered; the raw string stays with the caller for display.
func ParseAmount(raw string) decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil || amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
