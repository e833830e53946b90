package cmd

import (
	"context"
	"os"
	"os/signal"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/plenert/cnledger/ledger/config"
	"github.com/plenert/cnledger/ledger/internal/logging"
)

var configFilePath string
var logLevel string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cnledger",
	Short: "Turn broker contract notes into accounting ledgers",
	Long: `cnledger reads password protected contract notes, extracts their trade
tables and keeps buy and sell ledgers together with an import document for
the accounting system.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(version string) {
	rootCmd.Version = version

	cc.Init(&cc.Config{
		RootCmd:  rootCmd,
		Headings: cc.HiCyan + cc.Bold + cc.Underline,
		Commands: cc.HiYellow + cc.Bold,
		Example:  cc.Italic,
		ExecName: cc.Bold,
		Flags:    cc.Bold,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", os.Getenv("CNLEDGER_CONFIG"), "Configuration file (default is $CNLEDGER_CONFIG).")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level, overrides the configuration file.")
}

// loadConfig reads the configuration and sets up logging. Errors are fatal.
func loadConfig() (*config.Config, zerolog.Logger) {
	cfg, err := config.Load(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load configuration")
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger, err := logging.Setup(cfg.Log.Level, os.Stderr)
	if err != nil {
		logger.Warn().Err(err).Str("level", cfg.Log.Level).Msg("unknown log level, using info")
	}
	return cfg, logger
}
