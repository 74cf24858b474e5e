package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestConvertDisposing(t *testing.T) {
	res := Convert(dec("3.6725"), dec("0.005"), dec("1000"), Disposing)

	if !res.FeeSource.Equal(dec("5")) {
		t.Fatalf("fee should be 5, got %s", res.FeeSource)
	}
	if got := res.CounterAmount.Round(2); !got.Equal(dec("3654.14")) {
		t.Fatalf("quote received should round to 3654.14, got %s", got)
	}
	if !res.FeeQuote.Equal(dec("5").Mul(dec("3.6725"))) {
		t.Fatalf("disposing fee must be reported in quote terms, got %s", res.FeeQuote)
	}
}

func TestConvertDisposingIdentity(t *testing.T) {
	cases := []struct {
		rate, feeRate, amount string
	}{
		{"3.6725", "0.005", "1000"},
		{"22.5", "0", "1"},
		{"0.0001", "0.1", "123456.78"},
		{"150", "0.0075", "0.5"},
	}

	for _, tc := range cases {
		rate, feeRate, amount := dec(tc.rate), dec(tc.feeRate), dec(tc.amount)
		res := Convert(rate, feeRate, amount, Disposing)
		want := amount.Sub(amount.Mul(feeRate)).Mul(rate)
		if !res.CounterAmount.Equal(want) {
			t.Fatalf("rate=%s fee=%s amount=%s: got %s want %s",
				tc.rate, tc.feeRate, tc.amount, res.CounterAmount, want)
		}
	}
}

func TestConvertAcquiring(t *testing.T) {
	res := Convert(dec("2"), dec("0.01"), dec("100"), Acquiring)

	// gross = 100/2 = 50, fee = 0.5, received = 49.5
	if !res.CounterAmount.Equal(dec("49.5")) {
		t.Fatalf("asset received should be 49.5, got %s", res.CounterAmount)
	}
	if !res.FeeSource.Equal(dec("0.5")) {
		t.Fatalf("fee should be 0.5 asset units, got %s", res.FeeSource)
	}
	// The acquiring fee is taken from the acquired asset, so the display fee
	// stays in asset units rather than being converted back to quote currency.
	// The disposing direction multiplies by the rate instead; the difference
	// is deliberate product behaviour, not a bug.
	if !res.FeeQuote.Equal(res.FeeSource) {
		t.Fatalf("acquiring fee display must stay in asset units, got %s", res.FeeQuote)
	}
}

func TestConvertFeeFreeRoundTrip(t *testing.T) {
	rate := dec("3.6725")
	start := dec("42.5")

	disposed := Convert(rate, decimal.Zero, start, Disposing)
	back := Convert(rate, decimal.Zero, disposed.CounterAmount, Acquiring)

	diff := back.CounterAmount.Sub(start).Abs()
	tolerance := start.Mul(dec("0.000000001"))
	if diff.GreaterThan(tolerance) {
		t.Fatalf("fee-free round trip should recover %s, got %s", start, back.CounterAmount)
	}
}

func TestConvertZeroRateAcquiring(t *testing.T) {
	res := Convert(decimal.Zero, dec("0.005"), dec("100"), Acquiring)
	if !res.CounterAmount.IsZero() || !res.FeeSource.IsZero() {
		t.Fatalf("zero rate must yield a zero quote, got %+v", res)
	}
}

func TestConvertNegativeAmount(t *testing.T) {
	res := Convert(dec("2"), dec("0.005"), dec("-10"), Disposing)
	if !res.Amount.IsZero() || !res.CounterAmount.IsZero() {
		t.Fatalf("negative amount must degrade to a zero quote, got %+v", res)
	}
}

func TestParseAmountMalformed(t *testing.T) {
	for _, raw := range []string{"", ".", "-5", "abc", "  ", "1,000", "--3"} {
		if got := ParseAmount(raw); !got.IsZero() {
			t.Fatalf("ParseAmount(%q) should be zero, got %s", raw, got)
		}
	}
}

func TestParseAmountValid(t *testing.T) {
	cases := map[string]string{
		"1000":    "1000",
		" 12.5 ":  "12.5",
		"0":       "0",
		"0.00001": "0.00001",
	}
	for raw, want := range cases {
		if got := ParseAmount(raw); !got.Equal(dec(want)) {
			t.Fatalf("ParseAmount(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestParseDirection(t *testing.T) {
	if ParseDirection("acquiring") != Acquiring {
		t.Fatal("acquiring should parse")
	}
	if ParseDirection("buy") != Acquiring {
		t.Fatal("buy should alias acquiring")
	}
	if ParseDirection("anything-else") != Disposing {
		t.Fatal("unknown values should default to disposing")
	}
}
