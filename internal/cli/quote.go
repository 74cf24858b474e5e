package cli

import (
	"github.com/spf13/cobra"

	"remit-rates/internal/app"
)

var (
	quoteAsset     string
	quoteAmount    string
	quoteDirection string
	quoteFeeRate   float64
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Fetch the live rate and print a conversion quote",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.QuoteOptions{
			Asset:     quoteAsset,
			RawAmount: quoteAmount,
			Direction: quoteDirection,
			FeeRate:   quoteFeeRate,
		}
		return getApp().Quote(cmd.Context(), opts)
	},
}

func init() {
	quoteCmd.Flags().StringVar(&quoteAsset, "asset", "", "Asset id at the rate source, e.g. bitcoin")
	quoteCmd.Flags().StringVar(&quoteAmount, "amount", "0", "Amount to convert; invalid input quotes as zero")
	quoteCmd.Flags().StringVar(&quoteDirection, "direction", "disposing", "disposing (sell asset) or acquiring (buy asset)")
	quoteCmd.Flags().Float64Var(&quoteFeeRate, "fee-rate", -1, "Protocol fee rate override (defaults to config)")
}
