package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/coinsight/coinsight-go/internal/config"
	"github.com/coinsight/coinsight-go/internal/database"
	"github.com/coinsight/coinsight-go/internal/models"
	"github.com/coinsight/coinsight-go/internal/regression"
	"github.com/coinsight/coinsight-go/internal/services"
)

func newTrainCommand() *cobra.Command {
	var (
		coins   []string
		start   string
		end     string
		alpha   float64
		holdout float64
		out     string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the closing-price ridge model and persist the artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnvironment()
			if err != nil {
				return err
			}
			alpha, holdout, out = resolveModelOverrides(cmd, cfg, alpha, holdout, out)

			dateRange, err := trainDateRange(start, end)
			if err != nil {
				return err
			}

			db, err := database.NewPostgresConnection(cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			prices := database.NewPriceRepository(db.Pool, logger)
			store := regression.NewStore(out, logger)
			predictions := services.NewPredictionService(prices, store, logger, cfg.Model.LagDepth)

			model, err := predictions.Train(cmd.Context(), coins, dateRange, alpha, holdout, out)
			if err != nil {
				return err
			}
			fmt.Printf("trained %d features, validation MSE %.6f, artifact %s\n",
				len(model.FeatureColumns), model.ValidationMSE, out)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&coins, "coins", nil, "coins to train on (default: every stored coin)")
	cmd.Flags().StringVar(&start, "start", "", "training window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "training window end (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&alpha, "alpha", 0, "ridge regularization strength (default from config)")
	cmd.Flags().Float64Var(&holdout, "holdout", 0, "tail fraction held out for validation (default from config)")
	cmd.Flags().StringVar(&out, "out", "", "artifact output path (default from config)")
	return cmd
}

// resolveModelOverrides falls back to configured model settings for flags the
// caller did not pass. Zero is a valid --alpha, so presence is checked on the
// flag set rather than on the value.
func resolveModelOverrides(cmd *cobra.Command, cfg *config.Config, alpha, holdout float64, out string) (float64, float64, string) {
	if !cmd.Flags().Changed("alpha") {
		alpha = cfg.Model.Alpha
	}
	if !cmd.Flags().Changed("holdout") {
		holdout = cfg.Model.HoldoutFraction
	}
	if out == "" {
		out = cfg.Model.ArtifactPath
	}
	return alpha, holdout, out
}

func trainDateRange(start, end string) (*models.DateRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("--start and --end must be supplied together")
	}
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("invalid --start %q: expected YYYY-MM-DD", start)
	}
	endDate, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, fmt.Errorf("invalid --end %q: expected YYYY-MM-DD", end)
	}
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("--end must not precede --start")
	}
	return &models.DateRange{Start: startDate, End: endDate}, nil
}
