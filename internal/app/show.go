package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"remit-rates/internal/ratesync"
)

// Show prints recent persisted samples with a staleness column derived the
// same way the live UI derives it.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show samples")
	}
	if closeStore != nil {
		defer closeStore()
	}

	samples, err := store.ListRecentSamples(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Fprintln(os.Stdout, "no samples found")
		return nil
	}

	now := time.Now().UTC()
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Fetched (UTC)\tAsset\tQuote\tReference\t24h%\tAge")

	for _, sample := range samples {
		change := "-"
		if sample.Change24h != nil {
			change = sample.Change24h.StringFixed(2)
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			sample.FetchedAt.UTC().Format(time.RFC3339),
			sample.Asset,
			sample.QuotePrice.StringFixed(2),
			sample.ReferencePrice.StringFixed(2),
			change,
			ratesync.FormatAge(now, sample.FetchedAt),
		)
	}
	return writer.Flush()
}
