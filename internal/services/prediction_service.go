package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/coinsight/coinsight-go/internal/database"
	"github.com/coinsight/coinsight-go/internal/models"
	"github.com/coinsight/coinsight-go/internal/regression"
	"github.com/coinsight/coinsight-go/internal/utils"
)

// PredictionService serves closing-price predictions from the persisted
// ridge model and drives offline training runs.
type PredictionService struct {
	prices   *database.PriceRepository
	store    *regression.Store
	logger   *logrus.Logger
	lagDepth int
}

func NewPredictionService(prices *database.PriceRepository, store *regression.Store, logger *logrus.Logger, lagDepth int) *PredictionService {
	return &PredictionService{
		prices:   prices,
		store:    store,
		logger:   logger,
		lagDepth: lagDepth,
	}
}

// PredictForCoins fetches the requested window, engineers the inference
// feature matrix and scores it with the loaded model. Coins the model was
// never fit with come back with empty prediction slices.
func (s *PredictionService) PredictForCoins(ctx context.Context, coinNames []string, dateRange *models.DateRange) (map[string][]regression.Prediction, error) {
	if len(coinNames) == 0 {
		return nil, utils.NewValidationError("at least one coin name is required")
	}

	model, err := s.store.Get()
	if err != nil {
		return nil, err
	}

	result, err := s.prices.FetchSeries(ctx, coinNames, dateRange)
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		empty := make(map[string][]regression.Prediction, len(coinNames))
		for _, coin := range coinNames {
			empty[coin] = []regression.Prediction{}
		}
		return empty, nil
	}

	features, err := regression.BuildFeatures(result.Records, s.lagDepth)
	if err != nil {
		return nil, err
	}

	return model.PredictForCoins(features, coinNames)
}

// Train fits a fresh ridge model on the requested history and persists it
// as a single artifact. An empty coin list trains on every stored coin.
// Offline use only (CLI); the serving process keeps reading its
// already-loaded model.
func (s *PredictionService) Train(ctx context.Context, coinNames []string, dateRange *models.DateRange, alpha, holdout float64, artifactPath string) (*regression.Model, error) {
	if len(coinNames) == 0 {
		all, err := s.prices.ListCoinNames(ctx)
		if err != nil {
			return nil, err
		}
		if len(all) == 0 {
			return nil, utils.NewValidationError("no coins in storage to train on")
		}
		coinNames = all
	}

	result, err := s.prices.FetchSeries(ctx, coinNames, dateRange)
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, utils.NewValidationError("no price rows in the requested training window")
	}

	features, err := regression.BuildFeatures(result.Records, s.lagDepth)
	if err != nil {
		return nil, err
	}

	model, err := regression.Fit(features, alpha, holdout)
	if err != nil {
		return nil, err
	}

	if err := regression.Save(artifactPath, model); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"rows":           len(features.Rows),
		"features":       len(features.Columns),
		"validation_mse": model.ValidationMSE,
		"artifact":       artifactPath,
	}).Info("Trained and persisted regression model")

	return model, nil
}
