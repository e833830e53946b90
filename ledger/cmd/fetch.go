package cmd

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"github.com/plenert/cnledger/ledger/mailbox"
)

var sinceString, beforeString string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download contract notes from the mailbox into the input folder",
	Run: func(cmd *cobra.Command, _ []string) {
		cfg, logger := loadConfig()
		if err := cfg.ValidateMail(); err != nil {
			logger.Fatal().Err(err).Msg("invalid mail configuration")
		}

		since, err := dateparse.ParseLocal(sinceString)
		if err != nil {
			logger.Fatal().Err(err).Msg("unable to parse --since")
		}
		var before time.Time
		if beforeString != "" {
			if before, err = dateparse.ParseLocal(beforeString); err != nil {
				logger.Fatal().Err(err).Msg("unable to parse --before")
			}
		}

		fetcher := mailbox.NewFetcher(cfg.Mail, cfg.Folders.Input, logger)
		saved, err := fetcher.Fetch(cmd.Context(), since, before)
		for _, path := range saved {
			fmt.Println(path)
		}
		if err != nil {
			logger.Fatal().Err(err).Msg("fetch failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	weekAgo := time.Now().AddDate(0, 0, -7)
	fetchCmd.Flags().StringVar(&sinceString, "since", weekAgo.Format("2006-01-02"), "Fetch messages received on or after this date.")
	fetchCmd.Flags().StringVar(&beforeString, "before", "", "Fetch messages received before this date.")
}
