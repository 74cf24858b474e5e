package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"remit-rates/internal/pricing"
	"remit-rates/internal/ratesource"
)

// Quote fetches the current rate for one asset and prints a conversion quote.
// Malformed amounts degrade to a zero-amount quote; the raw input is echoed
// so the caller can see what was actually parsed.
func (a *App) Quote(ctx context.Context, opts QuoteOptions) error {
	if opts.Asset == "" {
		return errors.New("--asset is required")
	}

	asset := ratesource.AssetID(strings.ToLower(strings.TrimSpace(opts.Asset)))
	rates, err := a.newSource().FetchRates(ctx, []ratesource.AssetID{asset})
	if err != nil {
		return fmt.Errorf("fetch rate for %s: %w", asset, err)
	}
	rate := rates[asset]

	feeRate := decimal.NewFromFloat(a.Config.Pricing.ProtocolFeeRate)
	if opts.FeeRate >= 0 {
		feeRate = decimal.NewFromFloat(opts.FeeRate)
	}

	amount := pricing.ParseAmount(opts.RawAmount)
	direction := pricing.ParseDirection(opts.Direction)
	result := pricing.Convert(rate.QuotePrice, feeRate, amount, direction)

	quote := strings.ToUpper(a.Config.RateSource.QuoteCurrency)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Asset\t%s\n", asset)
	fmt.Fprintf(writer, "Rate\t%s %s\n", rate.QuotePrice.StringFixed(2), quote)
	if rate.Change24h != nil {
		fmt.Fprintf(writer, "24h change\t%s%%\n", rate.Change24h.StringFixed(2))
	}
	fmt.Fprintf(writer, "Direction\t%s\n", direction)
	fmt.Fprintf(writer, "Input\t%q\n", opts.RawAmount)
	fmt.Fprintf(writer, "Amount used\t%s\n", result.Amount.String())
	fmt.Fprintf(writer, "Fee rate\t%s%%\n", feeRate.Mul(decimal.NewFromInt(100)).String())

	if direction == pricing.Acquiring {
		fmt.Fprintf(writer, "Fee\t%s %s\n", result.FeeSource.StringFixed(8), string(asset))
		fmt.Fprintf(writer, "You receive\t%s %s\n", result.CounterAmount.StringFixed(8), string(asset))
	} else {
		fmt.Fprintf(writer, "Fee\t%s %s (%s %s)\n",
			result.FeeSource.StringFixed(8), string(asset),
			result.FeeQuote.StringFixed(2), quote)
		fmt.Fprintf(writer, "You receive\t%s %s\n", result.CounterAmount.StringFixed(2), quote)
	}
	return writer.Flush()
}
