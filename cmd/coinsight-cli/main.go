// Command coinsight-cli provides operational tooling for the analytics
// service: seeding the price table from CSV exports and training the price
// prediction model.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/coinsight/coinsight-go/internal/config"
	"github.com/coinsight/coinsight-go/internal/logging"
)

func main() {
	root := &cobra.Command{
		Use:          "coinsight-cli",
		Short:        "Operational tooling for the coinsight analytics service",
		SilenceUsage: true,
	}
	root.AddCommand(newSeedCommand())
	root.AddCommand(newTrainCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadEnvironment() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, logging.NewLogger(cfg.LogLevel, cfg.Environment), nil
}
