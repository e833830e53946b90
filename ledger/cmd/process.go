package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plenert/cnledger/ledger/batch"
	"github.com/plenert/cnledger/ledger/pdfsource"
)

var freshRun bool
var dedupeLedgers bool

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Import every contract note of the input folder",
	Long: `Unlocks and reads every PDF in the input folder, appends its trades to the
buy and sell ledgers, moves it to the completed folder and finally rebuilds
the import document. Documents that fail stay in the input folder.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cfg, logger := loadConfig()
		if err := cfg.Validate(); err != nil {
			logger.Fatal().Err(err).Msg("invalid configuration")
		}
		if cfg.Document.Passphrase == "" {
			logger.Warn().Msg("no document passphrase configured")
		}

		opts := []batch.Option{batch.WithLogger(logger)}
		if dedupeLedgers {
			opts = append(opts, batch.WithDedupe())
		}
		proc := batch.New(cfg, pdfsource.NewPDFCPUUnlocker(""), pdfsource.NewTextExtractor(), opts...)

		if freshRun {
			if err := proc.Reset(); err != nil {
				logger.Fatal().Err(err).Msg("unable to clear ledgers")
			}
		}

		summary, err := proc.Run(cmd.Context())
		if summary != nil {
			for _, doc := range summary.Documents {
				line := fmt.Sprintf("%-9s %s", doc.Status, doc.Path)
				if doc.Status == batch.StatusFailed {
					line += ": " + doc.Err.Error()
				}
				fmt.Println(line)
			}
			if summary.Final != nil {
				printSpeculation(summary.Final.Speculation)
			}
		}
		if err != nil {
			logger.Fatal().Err(err).Msg("batch failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&freshRun, "fresh", false, "Clear the ledgers and trade log before processing.")
	processCmd.Flags().BoolVar(&dedupeLedgers, "dedupe", false, "Create each ledger only once in the import document.")
}
