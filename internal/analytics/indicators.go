package analytics

import (
	"fmt"
	"math"

	"github.com/coinsight/coinsight-go/internal/utils"
)

// Column names produced by the transforms.
const (
	ColDailyPriceChange    = "DailyPriceChangeClosing"
	ColDailyPriceRange     = "DailyPriceRange"
	ColRangeVolatility     = "DailyPriceRangeVolatility"
	ColRSI                 = "RSI"
	ColPeak                = "Peak"
	ColValley              = "Valley"
)

// MovingAverageColumn names the column produced by MovingAverage(window).
func MovingAverageColumn(window int) string {
	return fmt.Sprintf("MovingAverage_%d", window)
}

// DailyPriceChange adds close[t]-close[t-1] within each coin group.
// The first row of every group is undefined.
func DailyPriceChange(t *Table) *Table {
	col := newNaNColumn(t.Len())
	closes := t.Close()
	for _, g := range t.groups() {
		for i := g.start + 1; i < g.end; i++ {
			col[i] = closes[i] - closes[i-1]
		}
	}
	t.Columns[ColDailyPriceChange] = col
	return t
}

// DailyPriceRange adds high-low for every row. Row-local, no grouping.
func DailyPriceRange(t *Table) *Table {
	col := make(Column, t.Len())
	for i, rec := range t.Records {
		high, _ := rec.High.Float64()
		low, _ := rec.Low.Float64()
		col[i] = high - low
	}
	t.Columns[ColDailyPriceRange] = col
	return t
}

// RangeVolatility adds (high-low)/open for every row. A zero open yields
// NaN rather than an error.
func RangeVolatility(t *Table) *Table {
	col := make(Column, t.Len())
	for i, rec := range t.Records {
		if rec.Open.IsZero() {
			col[i] = math.NaN()
			continue
		}
		high, _ := rec.High.Float64()
		low, _ := rec.Low.Float64()
		open, _ := rec.Open.Float64()
		col[i] = (high - low) / open
	}
	t.Columns[ColRangeVolatility] = col
	return t
}

// MovingAverage adds a per-coin rolling mean of close over the given window.
// Partial windows at the head of a series average however many points are
// available (minimum period 1); this is deliberate product behavior for short
// series, not a strict fixed-window mean.
func MovingAverage(t *Table, window int) (*Table, error) {
	if window < 1 {
		return nil, utils.NewValidationErrorf("moving average window must be >= 1, got %d", window)
	}
	col := make(Column, t.Len())
	closes := t.Close()
	for _, g := range t.groups() {
		for i := g.start; i < g.end; i++ {
			lo := i - window + 1
			if lo < g.start {
				lo = g.start
			}
			sum := 0.0
			for j := lo; j <= i; j++ {
				sum += closes[j]
			}
			col[i] = sum / float64(i-lo+1)
		}
	}
	t.Columns[MovingAverageColumn(window)] = col
	return t, nil
}

// PeaksAndValleys marks row t as a peak when its close exceeds both
// neighbors within the coin group, and as a valley under the mirrored
// condition. Marked rows carry the close value; everything else, including
// the first and last row of every group, stays undefined.
func PeaksAndValleys(t *Table) *Table {
	peaks := newNaNColumn(t.Len())
	valleys := newNaNColumn(t.Len())
	closes := t.Close()
	for _, g := range t.groups() {
		for i := g.start + 1; i < g.end-1; i++ {
			if closes[i] > closes[i-1] && closes[i] > closes[i+1] {
				peaks[i] = closes[i]
			}
			if closes[i] < closes[i-1] && closes[i] < closes[i+1] {
				valleys[i] = closes[i]
			}
		}
	}
	t.Columns[ColPeak] = peaks
	t.Columns[ColValley] = valleys
	return t
}

// RSI adds a Wilder-style exponential RSI per coin group. Signed daily
// deltas are split into gain and loss series, both smoothed with an
// exponentially weighted mean (center of mass window-1, adjust weighting,
// minimum period window), and combined as 100 - 100/(1 + gain/loss).
// A zero smoothed loss saturates the result to 100.
func RSI(t *Table, window int) (*Table, error) {
	if window < 1 {
		return nil, utils.NewValidationErrorf("RSI window must be >= 1, got %d", window)
	}
	col := newNaNColumn(t.Len())
	closes := t.Close()
	for _, g := range t.groups() {
		n := g.end - g.start
		if n < 2 {
			continue
		}
		gains := make([]float64, n-1)
		losses := make([]float64, n-1)
		for i := 1; i < n; i++ {
			delta := closes[g.start+i] - closes[g.start+i-1]
			if delta > 0 {
				gains[i-1] = delta
			} else if delta < 0 {
				losses[i-1] = -delta
			}
		}

		gainAvg := ewmMean(gains, window)
		lossAvg := ewmMean(losses, window)
		for i := range gainAvg {
			row := g.start + i + 1
			gain, loss := gainAvg[i], lossAvg[i]
			switch {
			case math.IsNaN(gain) || math.IsNaN(loss):
				// warm-up
			case loss == 0 && gain == 0:
				// flat series carries no momentum signal
			case loss == 0:
				col[row] = 100
			default:
				rs := gain / loss
				col[row] = 100 - 100/(1+rs)
			}
		}
	}
	t.Columns[ColRSI] = col
	return t, nil
}

// ewmMean computes an exponentially weighted moving average with center of
// mass window-1 (alpha = 1/window) and adjust-style weighting: the value at t
// is the weighted mean of all observations so far with weights (1-alpha)^i.
// The first window-1 positions are NaN (minimum period = window).
func ewmMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	alpha := 1.0 / float64(window)
	decay := 1 - alpha

	num, den := 0.0, 0.0
	for i, v := range values {
		num = v + decay*num
		den = 1 + decay*den
		if i < window-1 {
			out[i] = math.NaN()
		} else {
			out[i] = num / den
		}
	}
	return out
}

func newNaNColumn(n int) Column {
	col := make(Column, n)
	for i := range col {
		col[i] = math.NaN()
	}
	return col
}
