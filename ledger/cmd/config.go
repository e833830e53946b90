package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Run: func(_ *cobra.Command, _ []string) {
		cfg, logger := loadConfig()
		data, err := cfg.Marshal()
		if err != nil {
			logger.Fatal().Err(err).Msg("unable to encode configuration")
		}
		os.Stdout.Write(data)
		if err := cfg.Validate(); err != nil {
			logger.Warn().Err(err).Msg("configuration is incomplete")
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
