package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"remit-rates/internal/app"
	"remit-rates/internal/corridor"
)

var (
	compareCorridor string
	compareAmount   string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare provider costs for a transfer corridor",
	Long: "Compare the protocol's transfer cost against other providers for one corridor.\n" +
		"Known corridors: " + strings.Join(corridor.Destinations(), ", "),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.CompareOptions{
			Corridor:  compareCorridor,
			RawAmount: compareAmount,
		}
		return getApp().Compare(cmd.Context(), opts)
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareCorridor, "corridor", "nigeria", "Destination corridor")
	compareCmd.Flags().StringVar(&compareAmount, "amount", "1000", "Transfer amount; non-positive input falls back to the reference amount")
}
