package cli

import (
	"github.com/spf13/cobra"

	"remit-rates/internal/app"
)

var (
	chartAsset   string
	chartDays    int
	chartPNGPath string
	chartWidth   float64
	chartHeight  float64
	chartPadding float64
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Fetch price history and summarize or render it",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ChartOptions{
			Asset:   chartAsset,
			Days:    chartDays,
			PNGPath: chartPNGPath,
			Width:   chartWidth,
			Height:  chartHeight,
			Padding: chartPadding,
		}
		return getApp().Chart(cmd.Context(), opts)
	},
}

func init() {
	chartCmd.Flags().StringVar(&chartAsset, "asset", "", "Asset id at the rate source, e.g. bitcoin")
	chartCmd.Flags().IntVar(&chartDays, "days", 0, "Lookback window in days (defaults to config)")
	chartCmd.Flags().StringVar(&chartPNGPath, "png", "", "Path to write a PNG chart")
	chartCmd.Flags().Float64Var(&chartWidth, "width", 640, "Normalized plot width")
	chartCmd.Flags().Float64Var(&chartHeight, "height", 200, "Normalized plot height")
	chartCmd.Flags().Float64Var(&chartPadding, "padding", 8, "Normalized plot vertical padding")
}
