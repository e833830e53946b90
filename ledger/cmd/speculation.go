package cmd

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/plenert/cnledger"
	"github.com/plenert/cnledger/ledger/batch"
)

var speculationCmd = &cobra.Command{
	Use:   "speculation",
	Short: "List securities that were both bought and sold",
	Run: func(_ *cobra.Command, _ []string) {
		cfg, logger := loadConfig()
		store := batch.NewStore(
			cfg.Path(cfg.Output.BuyLedger),
			cfg.Path(cfg.Output.SellLedger),
			cfg.Path(cfg.Output.TradeLog),
		)
		records, err := store.Speculation()
		if err != nil {
			logger.Fatal().Err(err).Msg("unable to detect speculation")
		}
		printSpeculation(records)
	},
}

func init() {
	rootCmd.AddCommand(speculationCmd)
}

func printSpeculation(records []cnledger.SpeculationRecord) {
	if len(records) == 0 {
		fmt.Println("No speculative trades found.")
		return
	}
	width := len("Security")
	for _, rec := range records {
		if n := utf8.RuneCountInString(rec.Security); n > width {
			width = n
		}
	}
	fmt.Printf("%-*s %10s %10s\n", width, "Security", "Bought", "Sold")
	for _, rec := range records {
		fmt.Printf("%-*s %10s %10s\n", width, rec.Security, rec.Bought, rec.Sold)
	}
}
