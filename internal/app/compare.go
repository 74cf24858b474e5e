package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"remit-rates/internal/corridor"
	"remit-rates/internal/pricing"
)

// Compare prints the provider cost comparison for one corridor. A
// non-positive or malformed amount still produces a comparison at the
// reference amount; the raw input is echoed.
func (a *App) Compare(_ context.Context, opts CompareOptions) error {
	profile, err := corridor.Lookup(opts.Corridor)
	if err != nil {
		return err
	}

	amount := pricing.ParseAmount(opts.RawAmount)
	cmp := corridor.Compare(profile, amount)

	fmt.Fprintf(os.Stdout, "Corridor: %s (%s), mid-market rate %s\n",
		profile.Destination, profile.Currency, profile.BaseRate.String())
	fmt.Fprintf(os.Stdout, "Input: %q", opts.RawAmount)
	if !cmp.EffectiveAmount.Equal(cmp.Amount) {
		fmt.Fprintf(os.Stdout, " (comparison shown for %s)", cmp.EffectiveAmount.String())
	}
	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Provider\tFlat fee\tMarkup\tTotal cost\tRecipient gets\tSavings")

	for _, id := range profile.SortedProviders() {
		providerFee := profile.Providers[id]
		cost := cmp.Providers[id]

		savings := "-"
		if id != corridor.Protocol {
			savings = cost.SavingsVsProtocol.StringFixed(2)
		}
		fmt.Fprintf(writer, "%s\t%s\t%s%%\t%s\t%s %s\t%s\n",
			id,
			providerFee.FlatFee.StringFixed(2),
			providerFee.MarkupRate.Mul(decimal.NewFromInt(100)).String(),
			cost.TotalCost.StringFixed(2),
			cost.RecipientAmount.StringFixed(2), profile.Currency,
			savings,
		)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout)
	fmt.Fprintf(os.Stdout, "Best savings per transfer: %s\n", cmp.BestSavings.StringFixed(2))
	fmt.Fprintf(os.Stdout, "Projected yearly savings:  %s\n", cmp.AnnualizedSavings.StringFixed(2))
	return nil
}
