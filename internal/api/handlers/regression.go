package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/coinsight/coinsight-go/internal/charts"
	"github.com/coinsight/coinsight-go/internal/services"
	"github.com/coinsight/coinsight-go/internal/utils"
)

// RegressionHandler serves predictions from the persisted price model.
type RegressionHandler struct {
	predictions *services.PredictionService
	logger      *logrus.Logger
}

func NewRegressionHandler(predictions *services.PredictionService, logger *logrus.Logger) *RegressionHandler {
	return &RegressionHandler{predictions: predictions, logger: logger}
}

type regressionRequest struct {
	CoinNames []string `json:"coin_names"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
}

// RunRegressionModel handles POST /run_regression_model: next-day close
// predictions for the requested coins over the requested window, charted
// against the realized closes.
func (h *RegressionHandler) RunRegressionModel(c *gin.Context) {
	var req regressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "run_regression_model",
			utils.NewValidationErrorf("invalid request body: %v", err))
		return
	}
	dateRange, err := buildDateRange(req.StartDate, req.EndDate)
	if err != nil {
		respondError(c, "run_regression_model", err)
		return
	}

	byCoin, err := h.predictions.PredictForCoins(c.Request.Context(), req.CoinNames, dateRange)
	if err != nil {
		respondError(c, "run_regression_model", err)
		return
	}

	var series []charts.Series
	counts := make(map[string]int, len(byCoin))
	for _, coin := range req.CoinNames {
		preds := byCoin[coin]
		counts[coin] = len(preds)
		if len(preds) == 0 {
			continue
		}
		predicted := charts.Series{Name: coin + " Predicted"}
		actual := charts.Series{Name: coin + " Actual"}
		for _, p := range preds {
			date := p.Date.Format("2006-01-02")
			predicted.X = append(predicted.X, date)
			predicted.Y = append(predicted.Y, p.Predicted)
			actual.X = append(actual.X, date)
			actual.Y = append(actual.Y, p.Actual)
		}
		series = append(series, predicted, actual)
	}

	chart, err := charts.Line(series, charts.Layout{
		Title: "Predicted vs Actual Closing Price",
		XAxis: charts.Axis{Title: "Date"},
		YAxis: charts.Axis{Title: "Price"},
	})
	if err != nil {
		respondError(c, "run_regression_model", err)
		return
	}
	respondData(c, gin.H{
		"chart":             chart,
		"prediction_counts": counts,
	})
}
