package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/coinsight/coinsight-go/internal/analytics"
	"github.com/coinsight/coinsight-go/internal/charts"
	"github.com/coinsight/coinsight-go/internal/services"
	"github.com/coinsight/coinsight-go/internal/utils"
)

// ReportingHandler serves the cross-coin analysis and reporting endpoints.
type ReportingHandler struct {
	analytics *services.AnalyticsService
	logger    *logrus.Logger
}

func NewReportingHandler(analyticsService *services.AnalyticsService, logger *logrus.Logger) *ReportingHandler {
	return &ReportingHandler{analytics: analyticsService, logger: logger}
}

// CorrelationAnalysis handles GET /correlation_analysis: the pairwise
// correlation of daily close-price changes as a heatmap. Without coin_names
// every stored coin is correlated.
func (h *ReportingHandler) CorrelationAnalysis(c *gin.Context) {
	coinNames := c.QueryArray("coin_names")

	matrix, err := h.analytics.Correlation(c.Request.Context(), coinNames)
	if err != nil {
		respondError(c, "correlation_analysis", err)
		return
	}
	chart := charts.Heatmap(matrix, charts.Layout{
		Title: "Correlation of Daily Price Changes",
	})
	respondData(c, gin.H{"chart": chart})
}

// CoinReporting handles GET /coin_reporting: one coin's full history as a
// boxplot, candlestick, or close-price line chart.
func (h *ReportingHandler) CoinReporting(c *gin.Context) {
	coinName := c.Query("coin_name")
	if coinName == "" {
		respondError(c, "coin_reporting", utils.NewValidationError("coin_name is required"))
		return
	}
	graphType := c.DefaultQuery("graph_type", "candlestick")

	result, err := h.analytics.QuerySeries(c.Request.Context(), []string{coinName}, nil)
	if err != nil {
		respondError(c, "coin_reporting", err)
		return
	}
	if len(result.Records) == 0 {
		respondError(c, "coin_reporting",
			utils.NewValidationErrorf("no stored records for coin %q", coinName))
		return
	}
	table := analytics.NewTable(result.Records)

	var chart *charts.Chart
	switch graphType {
	case "boxplot":
		chart = charts.Box(ohlcvColumns(table), charts.Layout{
			Title: coinName + " Price Distribution",
			YAxis: charts.Axis{Title: "Value"},
		})
	case "candlestick":
		chart = charts.Candlestick(table, charts.Layout{
			Title: coinName + " OHLC",
			XAxis: charts.Axis{Title: "Date"},
			YAxis: charts.Axis{Title: "Price"},
		})
	case "line":
		series := closeSeries(table, coinName)
		chart, err = charts.Line([]charts.Series{series}, charts.Layout{
			Title: coinName + " Closing Price",
			XAxis: charts.Axis{Title: "Date"},
			YAxis: charts.Axis{Title: "Price"},
		})
		if err != nil {
			respondError(c, "coin_reporting", err)
			return
		}
	default:
		respondError(c, "coin_reporting",
			utils.NewValidationErrorf("unsupported graph_type %q: expected boxplot, candlestick or line", graphType))
		return
	}
	respondData(c, gin.H{"chart": chart})
}

// CoinProportion handles GET /coin_proportion: each coin's share of the
// dataset as a pie chart plus the per-coin summary table.
func (h *ReportingHandler) CoinProportion(c *gin.Context) {
	report, err := h.analytics.Proportions(c.Request.Context())
	if err != nil {
		respondError(c, "coin_proportion", err)
		return
	}

	labels := make([]string, len(report.Shares))
	values := make(analytics.Column, len(report.Shares))
	for i, share := range report.Shares {
		labels[i] = share.Name
		values[i] = float64(share.Records)
	}
	chart, err := charts.Pie(labels, values, charts.Layout{
		Title: "Dataset Share per Coin",
	})
	if err != nil {
		respondError(c, "coin_proportion", err)
		return
	}
	respondData(c, gin.H{
		"chart":         chart,
		"summary_table": report.Summaries,
	})
}

func ohlcvColumns(t *analytics.Table) map[string]analytics.Column {
	columns := map[string]analytics.Column{
		"Open":      make(analytics.Column, t.Len()),
		"High":      make(analytics.Column, t.Len()),
		"Low":       make(analytics.Column, t.Len()),
		"Close":     make(analytics.Column, t.Len()),
		"Volume":    make(analytics.Column, t.Len()),
		"Marketcap": make(analytics.Column, t.Len()),
	}
	for i, rec := range t.Records {
		columns["Open"][i], _ = rec.Open.Float64()
		columns["High"][i], _ = rec.High.Float64()
		columns["Low"][i], _ = rec.Low.Float64()
		columns["Close"][i], _ = rec.Close.Float64()
		columns["Volume"][i], _ = rec.Volume.Float64()
		columns["Marketcap"][i], _ = rec.Marketcap.Float64()
	}
	return columns
}

func closeSeries(t *analytics.Table, coinName string) charts.Series {
	s := charts.Series{Name: coinName}
	closes := t.Close()
	for i, rec := range t.Records {
		s.X = append(s.X, rec.Date.Format("2006-01-02"))
		s.Y = append(s.Y, closes[i])
	}
	return s
}
