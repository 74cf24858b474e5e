package ratesource

import (
	"context"

	"github.com/shopspring/decimal"

	"remit-rates/internal/history"
)

// AssetID identifies a tracked asset at the upstream price source,
// e.g. "bitcoin" or "solana".
type AssetID string

// Rate is one asset's price snapshot as returned by the rate source.
type Rate struct {
	// QuotePrice is the price in the configured quote currency.
	QuotePrice decimal.Decimal
	// ReferencePrice is the price in the reference currency (USD).
	ReferencePrice decimal.Decimal
	// Change24h is the 24-hour change percentage in quote-currency terms.
	// Nil when the upstream omits it.
	Change24h *decimal.Decimal
}

// RateFetcher retrieves current rates for a set of assets.
type RateFetcher interface {
	FetchRates(ctx context.Context, assets []AssetID) (map[AssetID]Rate, error)
}

// HistoryFetcher retrieves a historical price series for one asset.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, asset AssetID, days int) ([]history.Point, error)
}
