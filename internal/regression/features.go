// Package regression implements the closing-price prediction pipeline:
// feature engineering over per-coin OHLCV history, a ridge regressor with a
// fit-time standard scaler, and a persisted single-artifact model store.
package regression

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"

	"github.com/coinsight/coinsight-go/internal/analytics"
	"github.com/coinsight/coinsight-go/internal/models"
	"github.com/coinsight/coinsight-go/internal/utils"
)

// Indicator periods used for engineered columns.
const (
	smaShort         = 5
	smaLong          = 10
	emaFast          = 12
	emaSlow          = 26
	rsiPeriod        = 14
	macdFast         = 12
	macdSlow         = 26
	macdSignal       = 9
	bbPeriod         = 20
	bbStdDev         = 2.0
	atrPeriod        = 14
	rocPeriod        = 10
	coinColumnPrefix = "coin_"
)

// RowMeta identifies the origin of one feature row.
type RowMeta struct {
	Coin string
	Date time.Time
}

// FeatureTable is an engineered feature matrix with its target column.
// Rows with any undefined feature (indicator warm-up, missing lags) are
// dropped during assembly, so every row is fully populated.
type FeatureTable struct {
	Columns []string
	Rows    [][]float64
	Target  []float64
	Meta    []RowMeta
}

// ColumnIndex returns the position of a named column, or -1.
func (ft *FeatureTable) ColumnIndex(name string) int {
	for i, col := range ft.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// CoinColumn names the one-hot indicator column for a coin.
func CoinColumn(name string) string {
	return coinColumnPrefix + name
}

// BuildFeatures engineers the model feature matrix from raw price rows.
// Per coin it derives calendar parts, percent changes, lag_k of
// close/high/low/volume for k=1..lagDepth, SMA/EMA/RSI/MACD/Bollinger/ATR,
// rate of change and a volume oscillator, plus one-hot coin columns for
// every coin present in the input.
func BuildFeatures(records []models.PriceRecord, lagDepth int) (*FeatureTable, error) {
	if lagDepth < 1 {
		return nil, utils.NewValidationErrorf("lag depth must be >= 1, got %d", lagDepth)
	}
	if len(records) == 0 {
		return nil, utils.NewValidationError("no price rows to engineer features from")
	}

	t := analytics.NewTable(records)

	coins := coinNames(t)
	columns := featureColumnNames(lagDepth, coins)

	ft := &FeatureTable{Columns: columns}

	for _, coin := range coins {
		rows := coinRows(t, coin)
		if err := appendCoinFeatures(ft, coin, coins, rows, lagDepth); err != nil {
			return nil, err
		}
	}

	if len(ft.Rows) == 0 {
		return nil, utils.NewValidationError("all rows were dropped during feature warm-up; need longer history")
	}
	return ft, nil
}

func featureColumnNames(lagDepth int, coins []string) []string {
	columns := []string{
		"day", "month", "year", "day_of_week", "is_weekend",
		"close_pct_change", "open_pct_change",
	}
	for _, base := range []string{"close", "high", "low", "volume"} {
		for k := 1; k <= lagDepth; k++ {
			columns = append(columns, lagColumn(base, k))
		}
	}
	columns = append(columns,
		"close_sma_5", "close_sma_10", "volume_sma_5", "volume_sma_10",
		"close_ema_12", "close_ema_26",
		"rsi_14", "macd", "macd_signal",
		"bb_middle", "bb_width", "atr_14", "roc_10", "volume_osc",
	)
	for _, coin := range coins {
		columns = append(columns, CoinColumn(coin))
	}
	return columns
}

func lagColumn(base string, k int) string {
	return base + "_lag_" + strconv.Itoa(k)
}

func appendCoinFeatures(ft *FeatureTable, coin string, allCoins []string, rows []models.PriceRecord, lagDepth int) error {
	n := len(rows)
	closes := make([]float64, n)
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, rec := range rows {
		closes[i], _ = rec.Close.Float64()
		opens[i], _ = rec.Open.Float64()
		highs[i], _ = rec.High.Float64()
		lows[i], _ = rec.Low.Float64()
		volumes[i], _ = rec.Volume.Float64()
	}

	closePct := pctChange(closes)
	openPct := pctChange(opens)

	closeSMA5 := alignTail(n, computeSMA(closes, smaShort))
	closeSMA10 := alignTail(n, computeSMA(closes, smaLong))
	volumeSMA5 := alignTail(n, computeSMA(volumes, smaShort))
	volumeSMA10 := alignTail(n, computeSMA(volumes, smaLong))
	closeEMA12 := alignTail(n, computeEMA(closes, emaFast))
	closeEMA26 := alignTail(n, computeEMA(closes, emaSlow))
	rsi := alignTail(n, computeRSI(closes, rsiPeriod))
	macdLine, macdSig := computeMACD(closes)
	macdLine = alignTail(n, macdLine)
	macdSig = alignTail(n, macdSig)
	bbMiddle, bbWidth := bollinger(closes, bbPeriod, bbStdDev)
	atr := alignTail(n, computeATR(highs, lows, closes))
	roc := rateOfChange(closes, rocPeriod)

	for i := 0; i < n; i++ {
		row := make([]float64, 0, len(ft.Columns))
		date := rows[i].Date

		weekend := 0.0
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend = 1
		}
		row = append(row,
			float64(date.Day()), float64(date.Month()), float64(date.Year()),
			float64(date.Weekday()), weekend,
			closePct[i], openPct[i],
		)

		for _, series := range [][]float64{closes, highs, lows, volumes} {
			for k := 1; k <= lagDepth; k++ {
				if i-k < 0 {
					row = append(row, math.NaN())
				} else {
					row = append(row, series[i-k])
				}
			}
		}

		row = append(row,
			closeSMA5[i], closeSMA10[i], volumeSMA5[i], volumeSMA10[i],
			closeEMA12[i], closeEMA26[i],
			rsi[i], macdLine[i], macdSig[i],
			bbMiddle[i], bbWidth[i], atr[i], roc[i],
			volumeSMA5[i]-volumeSMA10[i],
		)

		for _, c := range allCoins {
			if c == coin {
				row = append(row, 1)
			} else {
				row = append(row, 0)
			}
		}

		if hasNaN(row) {
			continue
		}
		ft.Rows = append(ft.Rows, row)
		ft.Target = append(ft.Target, closes[i])
		ft.Meta = append(ft.Meta, RowMeta{Coin: coin, Date: date})
	}
	return nil
}

func computeSMA(values []float64, period int) []float64 {
	sma := trend.NewSmaWithPeriod[float64](period)
	return helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))
}

func computeEMA(values []float64, period int) []float64 {
	ema := trend.NewEmaWithPeriod[float64](period)
	return helper.ChanToSlice(ema.Compute(helper.SliceToChan(values)))
}

func computeRSI(values []float64, period int) []float64 {
	rsi := momentum.NewRsiWithPeriod[float64](period)
	return helper.ChanToSlice(rsi.Compute(helper.SliceToChan(values)))
}

func computeMACD(values []float64) (line, signal []float64) {
	macd := trend.NewMacdWithPeriod[float64](macdFast, macdSlow, macdSignal)
	lineChan, signalChan := macd.Compute(helper.SliceToChan(values))

	// Both channels are fed by the same unbuffered fan-out, so they must be
	// drained concurrently or the producer blocks on the unread one.
	done := make(chan struct{})
	go func() {
		defer close(done)
		signal = helper.ChanToSlice(signalChan)
	}()
	line = helper.ChanToSlice(lineChan)
	<-done
	return line, signal
}

func computeATR(highs, lows, closes []float64) []float64 {
	atr := volatility.NewAtr[float64]()
	return helper.ChanToSlice(atr.Compute(
		helper.SliceToChan(highs), helper.SliceToChan(lows), helper.SliceToChan(closes)))
}

// bollinger returns the middle band (SMA) and band width (2k rolling
// standard deviations) with NaN during warm-up.
func bollinger(values []float64, period int, k float64) (middle, width []float64) {
	n := len(values)
	middle = nanSlice(n)
	width = nanSlice(n)
	for i := period - 1; i < n; i++ {
		window := values[i-period+1 : i+1]
		m := 0.0
		for _, v := range window {
			m += v
		}
		m /= float64(period)
		variance := 0.0
		for _, v := range window {
			d := v - m
			variance += d * d
		}
		variance /= float64(period)
		sd := math.Sqrt(variance)
		middle[i] = m
		width[i] = 2 * k * sd
	}
	return middle, width
}

// pctChange returns day-over-day relative change. The first row is zero,
// and a zero previous value yields zero rather than infinity.
func pctChange(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		out[i] = (values[i] - values[i-1]) / values[i-1]
	}
	return out
}

func rateOfChange(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	for i := period; i < len(values); i++ {
		if values[i-period] == 0 {
			continue
		}
		out[i] = (values[i] - values[i-period]) / values[i-period] * 100
	}
	return out
}

// alignTail right-aligns a shortened indicator output against the original
// series, padding the warm-up prefix with NaN.
func alignTail(n int, values []float64) []float64 {
	out := nanSlice(n)
	offset := n - len(values)
	if offset < 0 {
		offset = 0
		values = values[len(values)-n:]
	}
	copy(out[offset:], values)
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func hasNaN(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func coinNames(t *analytics.Table) []string {
	seen := make(map[string]bool)
	var coins []string
	for _, rec := range t.Records {
		if !seen[rec.Name] {
			seen[rec.Name] = true
			coins = append(coins, rec.Name)
		}
	}
	sort.Strings(coins)
	return coins
}

func coinRows(t *analytics.Table, coin string) []models.PriceRecord {
	var rows []models.PriceRecord
	for _, rec := range t.Records {
		if rec.Name == coin {
			rows = append(rows, rec)
		}
	}
	return rows
}

