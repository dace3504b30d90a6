package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/coinsight/coinsight-go/internal/models"
)

// CorrelationMatrix is a square, symmetric matrix of Pearson correlations
// between coins' daily close percent changes, with 1.0 on the diagonal.
// Pairs with fewer than two overlapping observations correlate as NaN.
type CorrelationMatrix struct {
	Coins  []string `json:"coins"`
	Values []Column `json:"values"`
}

// Correlate computes the cross-coin close-price correlation matrix. Per-coin
// percent-change series are aligned by calendar date; only dates where both
// coins of a pair have a defined change contribute to that pair.
func Correlate(records []models.PriceRecord) *CorrelationMatrix {
	t := NewTable(records)
	closes := t.Close()

	changes := make(map[string]map[time.Time]float64)
	for _, g := range t.groups() {
		series := make(map[time.Time]float64, g.end-g.start)
		for i := g.start + 1; i < g.end; i++ {
			prev := closes[i-1]
			if prev == 0 {
				continue
			}
			series[t.Records[i].Date] = (closes[i] - prev) / prev * 100
		}
		changes[g.name] = series
	}

	coins := make([]string, 0, len(changes))
	for name := range changes {
		coins = append(coins, name)
	}
	sort.Strings(coins)

	values := make([]Column, len(coins))
	for i := range coins {
		values[i] = make(Column, len(coins))
		for j := range coins {
			switch {
			case i == j:
				values[i][j] = 1
			case j < i:
				values[i][j] = values[j][i]
			default:
				values[i][j] = pairwiseCorrelation(changes[coins[i]], changes[coins[j]])
			}
		}
	}

	return &CorrelationMatrix{Coins: coins, Values: values}
}

func pairwiseCorrelation(a, b map[time.Time]float64) float64 {
	var xs, ys []float64
	for date, x := range a {
		if y, ok := b[date]; ok {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return pearson(xs, ys)
}

// pearson returns the Pearson correlation coefficient clamped to [-1, 1].
// A zero-variance input yields NaN.
func pearson(x, y []float64) float64 {
	n := len(x)
	meanX := mean(x)
	meanY := mean(y)

	var numerator, denomX, denomY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		numerator += dx * dy
		denomX += dx * dx
		denomY += dy * dy
	}

	denom := math.Sqrt(denomX * denomY)
	if denom == 0 {
		return math.NaN()
	}

	corr := numerator / denom
	if corr > 1 {
		return 1
	}
	if corr < -1 {
		return -1
	}
	return corr
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
