package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plenert/cnledger/ledger/batch"
)

var tallyCmd = &cobra.Command{
	Use:   "tally",
	Short: "Rebuild the import document from the ledgers",
	Run: func(_ *cobra.Command, _ []string) {
		cfg, logger := loadConfig()

		opts := []batch.Option{batch.WithLogger(logger)}
		if dedupeLedgers {
			opts = append(opts, batch.WithDedupe())
		}
		final, err := batch.New(cfg, nil, nil, opts...).Finalize()
		if err != nil {
			logger.Fatal().Err(err).Msg("unable to build import document")
		}
		fmt.Printf("%s: %d ledgers\n", final.ImportPath, len(final.Import.Ledgers()))
	},
}

func init() {
	rootCmd.AddCommand(tallyCmd)

	tallyCmd.Flags().BoolVar(&dedupeLedgers, "dedupe", false, "Create each ledger only once.")
}
