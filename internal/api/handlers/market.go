package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/coinsight/coinsight-go/internal/analytics"
	"github.com/coinsight/coinsight-go/internal/charts"
	"github.com/coinsight/coinsight-go/internal/config"
	"github.com/coinsight/coinsight-go/internal/services"
	"github.com/coinsight/coinsight-go/internal/utils"
)

// MarketHandler serves the price-series and indicator endpoints.
type MarketHandler struct {
	analytics *services.AnalyticsService
	cfg       config.AnalyticsConfig
	logger    *logrus.Logger
}

func NewMarketHandler(analyticsService *services.AnalyticsService, cfg config.AnalyticsConfig, logger *logrus.Logger) *MarketHandler {
	return &MarketHandler{
		analytics: analyticsService,
		cfg:       cfg,
		logger:    logger,
	}
}

// QueryCoin handles GET /query_coin: raw records plus the per-coin presence
// map.
func (h *MarketHandler) QueryCoin(c *gin.Context) {
	coinNames, err := parseCoinNames(c)
	if err != nil {
		respondError(c, "query_coin", err)
		return
	}
	dateRange, err := parseDateRange(c)
	if err != nil {
		respondError(c, "query_coin", err)
		return
	}

	result, err := h.analytics.QuerySeries(c.Request.Context(), coinNames, dateRange)
	if err != nil {
		respondError(c, "query_coin", err)
		return
	}
	respondData(c, gin.H{
		"records":  result.Records,
		"presence": result.Presence,
	})
}

// DailyPriceChange handles GET /daily_price_change: the close-to-close
// difference as a line chart, one trace per coin.
func (h *MarketHandler) DailyPriceChange(c *gin.Context) {
	h.columnChart(c, "daily_price_change", func(t *analytics.Table) (string, error) {
		analytics.DailyPriceChange(t)
		return analytics.ColDailyPriceChange, nil
	}, "line", charts.Layout{
		Title: "Daily Price Change (Closing)",
		XAxis: charts.Axis{Title: "Date"},
		YAxis: charts.Axis{Title: "Change"},
	})
}

// DailyPriceRange handles GET /daily_price_range: high-low spread rendered as
// a line or bar chart depending on graph_type.
func (h *MarketHandler) DailyPriceRange(c *gin.Context) {
	graphType := c.DefaultQuery("graph_type", "line")
	if graphType != "line" && graphType != "bar" {
		respondError(c, "daily_price_range",
			utils.NewValidationErrorf("unsupported graph_type %q: expected line or bar", graphType))
		return
	}
	h.columnChart(c, "daily_price_range", func(t *analytics.Table) (string, error) {
		analytics.DailyPriceRange(t)
		return analytics.ColDailyPriceRange, nil
	}, graphType, charts.Layout{
		Title: "Daily Price Range (High - Low)",
		XAxis: charts.Axis{Title: "Date"},
		YAxis: charts.Axis{Title: "Range"},
	})
}

// MovingAverages handles GET /moving_averages: simple moving average of the
// close price over the requested window.
func (h *MarketHandler) MovingAverages(c *gin.Context) {
	window, err := parseWindow(c, h.cfg.DefaultMovingAverageWindow)
	if err != nil {
		respondError(c, "moving_averages", err)
		return
	}
	h.columnChart(c, "moving_averages", func(t *analytics.Table) (string, error) {
		if _, err := analytics.MovingAverage(t, window); err != nil {
			return "", err
		}
		return analytics.MovingAverageColumn(window), nil
	}, "line", charts.Layout{
		Title: "Moving Average of Closing Price",
		XAxis: charts.Axis{Title: "Date"},
		YAxis: charts.Axis{Title: "Price"},
	})
}

// RSIChart handles GET /rsi: relative strength index of the close price.
func (h *MarketHandler) RSIChart(c *gin.Context) {
	window, err := parseWindow(c, h.cfg.DefaultRSIWindow)
	if err != nil {
		respondError(c, "rsi", err)
		return
	}
	h.columnChart(c, "rsi", func(t *analytics.Table) (string, error) {
		if _, err := analytics.RSI(t, window); err != nil {
			return "", err
		}
		return analytics.ColRSI, nil
	}, "line", charts.Layout{
		Title: "Relative Strength Index",
		XAxis: charts.Axis{Title: "Date"},
		YAxis: charts.Axis{Title: "RSI"},
	})
}

// columnChart runs the shared fetch, compute, chart sequence for the
// indicator endpoints.
func (h *MarketHandler) columnChart(c *gin.Context, errorLoc string, compute func(*analytics.Table) (string, error), graphType string, layout charts.Layout) {
	coinNames, err := parseCoinNames(c)
	if err != nil {
		respondError(c, errorLoc, err)
		return
	}
	dateRange, err := parseDateRange(c)
	if err != nil {
		respondError(c, errorLoc, err)
		return
	}

	table, presence, err := h.analytics.SeriesTable(c.Request.Context(), coinNames, dateRange)
	if err != nil {
		respondError(c, errorLoc, err)
		return
	}

	column, err := compute(table)
	if err != nil {
		respondError(c, errorLoc, err)
		return
	}
	series, err := charts.ColumnSeries(table, column, "")
	if err != nil {
		respondError(c, errorLoc, err)
		return
	}

	var chart *charts.Chart
	if graphType == "bar" {
		chart, err = charts.Bar(series, layout)
	} else {
		chart, err = charts.Line(series, layout)
	}
	if err != nil {
		respondError(c, errorLoc, err)
		return
	}
	respondData(c, gin.H{
		"chart":    chart,
		"presence": presence,
	})
}

func parseWindow(c *gin.Context, defaultWindow int) (int, error) {
	raw := c.Query("window")
	if raw == "" {
		return defaultWindow, nil
	}
	window, err := strconv.Atoi(raw)
	if err != nil || window < 1 {
		return 0, utils.NewValidationErrorf("invalid window %q: expected a positive integer", raw)
	}
	return window, nil
}
