package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"remit-rates/internal/storage"
)

// Export renders persisted samples for one asset as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if opts.Asset == "" {
		return errors.New("--asset is required")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-time.Duration(opts.MaxPoints) * a.Config.Sync.Interval)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	samples, err := store.ListSamplesBetween(ctx, opts.Asset, from, to)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		a.Logger.Info().Str("asset", opts.Asset).Msg("no samples found for export window")
		return nil
	}

	downsampled := downsampleSamples(samples, opts.MaxPoints)
	a.Logger.Info().Int("total", len(samples)).Int("exported", len(downsampled)).Msg("exporting samples")

	if opts.CSVPath != "" {
		if err := writeSamplesCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeSamplesPNG(opts.PNGPath, opts.Asset, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleSamples(samples []storage.RateSample, max int) []storage.RateSample {
	if max <= 0 || len(samples) <= max {
		return samples
	}

	result := make([]storage.RateSample, 0, max)
	step := float64(len(samples)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(samples) {
			idx = len(samples) - 1
		}
		result = append(result, samples[idx])
	}
	return result
}

func writeSamplesCSV(path string, samples []storage.RateSample) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"fetched_at", "asset", "quote_price", "reference_price", "change_24h", "quote_currency"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, sample := range samples {
		change := ""
		if sample.Change24h != nil {
			change = sample.Change24h.String()
		}
		record := []string{
			sample.FetchedAt.Format(time.RFC3339),
			sample.Asset,
			sample.QuotePrice.String(),
			sample.ReferencePrice.String(),
			change,
			sample.QuoteCurrency,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeSamplesPNG(path, asset string, samples []storage.RateSample) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(samples))
	quote := make([]float64, len(samples))
	reference := make([]float64, len(samples))

	for i, sample := range samples {
		x[i] = sample.FetchedAt
		quote[i] = sample.QuotePrice.InexactFloat64()
		reference[i] = sample.ReferencePrice.InexactFloat64()
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           fmt.Sprintf("%s quote price", asset),
			ValueFormatter: priceFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Reference (USD)",
			ValueFormatter: priceFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Quote price",
				XValues: x,
				YValues: quote,
			},
			chart.TimeSeries{
				Name:    "Reference price",
				XValues: x,
				YValues: reference,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
