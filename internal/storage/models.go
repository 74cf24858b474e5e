package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSample is one persisted rate observation for a single asset.
type RateSample struct {
	Asset          string
	FetchedAt      time.Time
	QuotePrice     decimal.Decimal
	ReferencePrice decimal.Decimal
	Change24h      *decimal.Decimal
	QuoteCurrency  string
	CreatedAt      time.Time
}
