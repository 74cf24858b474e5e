package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"remit-rates/internal/history"
	"remit-rates/internal/ratesource"
)

// Chart fetches an asset's price history, normalizes it, and prints the
// series summary. With a PNG path it also renders the series to disk.
func (a *App) Chart(ctx context.Context, opts ChartOptions) error {
	if opts.Asset == "" {
		return errors.New("--asset is required")
	}
	days := a.Config.ResolveDays(opts.Days)

	asset := ratesource.AssetID(strings.ToLower(strings.TrimSpace(opts.Asset)))
	points, err := a.newSource().FetchHistory(ctx, asset, days)
	if err != nil {
		return fmt.Errorf("fetch history for %s: %w", asset, err)
	}

	plot := history.Normalize(points, opts.Width, opts.Height, opts.Padding)
	if !plot.OK {
		// Not an error: the upstream simply has no usable series yet.
		fmt.Fprintf(os.Stdout, "not enough history for %s over %d days (%d points)\n",
			asset, days, len(points))
		return nil
	}

	quote := strings.ToUpper(a.Config.RateSource.QuoteCurrency)
	fmt.Fprintf(os.Stdout, "%s over %d days (%d points)\n", asset, days, len(points))
	fmt.Fprintf(os.Stdout, "low:     %.2f %s\n", plot.Low, quote)
	fmt.Fprintf(os.Stdout, "high:    %.2f %s\n", plot.High, quote)
	fmt.Fprintf(os.Stdout, "current: %.2f %s\n", plot.Current, quote)

	if opts.PNGPath == "" {
		return nil
	}
	if err := writeHistoryPNG(opts.PNGPath, string(asset), quote, points); err != nil {
		return err
	}
	a.Logger.Info().Str("path", opts.PNGPath).Int("points", len(points)).Msg("chart written")
	return nil
}

func writeHistoryPNG(path, asset, quote string, points []history.Point) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		x[i] = p.TS
		y[i] = p.Price
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: fmt.Sprintf("Price (%s)", quote),
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.2f")
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    asset,
				XValues: x,
				YValues: y,
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
