package corridor

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ProviderID names a money-movement provider inside a corridor fee table.
type ProviderID string

// Protocol is the provider entry representing this product itself. Every
// corridor profile must carry it; savings are measured against it.
const Protocol ProviderID = "protocol"

// Fee is one provider's disclosed flat charge plus its hidden FX markup.
type Fee struct {
	FlatFee    decimal.Decimal
	MarkupRate decimal.Decimal
}

// Profile is the immutable fee table for one trade destination.
type Profile struct {
	// Destination is a short corridor key, e.g. "nigeria".
	Destination string
	// Currency is the destination currency code the payout lands in.
	Currency string
	// BaseRate is the mid-market source-to-destination exchange rate.
	BaseRate decimal.Decimal
	// Providers maps each provider to its fee row.
	Providers map[ProviderID]Fee
	// Bank and Fastest name the two comparison providers used for the
	// headline savings figure.
	Bank    ProviderID
	Fastest ProviderID
}

// ProviderCost is one provider's computed cost breakdown.
type ProviderCost struct {
	MarkupCost        decimal.Decimal
	TotalCost         decimal.Decimal
	RecipientAmount   decimal.Decimal
	SavingsVsProtocol decimal.Decimal
}

// Comparison is the full result of comparing providers over one corridor.
type Comparison struct {
	// Amount echoes the caller's literal input, even when non-positive.
	Amount decimal.Decimal
	// EffectiveAmount is the amount the cost math actually ran on. It
	// diverges from Amount when the input was non-positive.
	EffectiveAmount   decimal.Decimal
	Providers         map[ProviderID]ProviderCost
	BestSavings       decimal.Decimal
	AnnualizedSavings decimal.Decimal
}

// ReferenceAmount substitutes for non-positive input so the comparison never
// renders as all zeros.
var ReferenceAmount = decimal.NewFromInt(1000)

var monthsPerYear = decimal.NewFromInt(12)

// Compare computes every provider's total cost and recipient payout for the
// given trade amount, plus the headline savings versus the two named
// high-friction providers.
//
// The markup rate is applied both to the cost accounting and to the effective
// payout rate; that models the FX spread a provider takes on top of its
// disclosed flat fee. The headline figure compares against the bank and the
// fastest competitor specifically, not the cheapest one.
func Compare(profile Profile, amount decimal.Decimal) Comparison {
	effective := amount
	if effective.Sign() <= 0 {
		effective = ReferenceAmount
	}

	one := decimal.NewFromInt(1)
	costs := make(map[ProviderID]ProviderCost, len(profile.Providers))
	for id, fee := range profile.Providers {
		markup := effective.Mul(fee.MarkupRate)
		costs[id] = ProviderCost{
			MarkupCost:      markup,
			TotalCost:       fee.FlatFee.Add(markup),
			RecipientAmount: effective.Sub(fee.FlatFee).Mul(profile.BaseRate).Mul(one.Sub(fee.MarkupRate)),
		}
	}

	protocolCost := costs[Protocol].TotalCost
	for id, cost := range costs {
		if id == Protocol {
			continue
		}
		cost.SavingsVsProtocol = cost.TotalCost.Sub(protocolCost)
		costs[id] = cost
	}

	best := costs[profile.Bank].SavingsVsProtocol
	if fastest := costs[profile.Fastest].SavingsVsProtocol; fastest.GreaterThan(best) {
		best = fastest
	}

	return Comparison{
		Amount:            amount,
		EffectiveAmount:   effective,
		Providers:         costs,
		BestSavings:       best,
		AnnualizedSavings: best.Mul(monthsPerYear),
	}
}

// SortedProviders returns the profile's provider ids with the protocol first
// and the rest alphabetical, for stable table rendering.
func (p Profile) SortedProviders() []ProviderID {
	ids := make([]ProviderID, 0, len(p.Providers))
	for id := range p.Providers {
		if id != Protocol {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return append([]ProviderID{Protocol}, ids...)
}
