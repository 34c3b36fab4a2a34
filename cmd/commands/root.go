package commands

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/JhonesBR/go-ledger/internal/config"
	"github.com/JhonesBR/go-ledger/internal/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "ledgerd",
	Short: "Family ledger service",
	Long: `ledgerd serves the family ledger HTTP API: accounts, funding, transfers,
charges and staking positions.

Settings come from the environment, optionally merged from a .env file.
Set DEMO_MODE=true to run against seeded in-memory data without Postgres.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file (skipped when missing)")
}

// setup loads the configuration and builds the process logger.
func setup() (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}
