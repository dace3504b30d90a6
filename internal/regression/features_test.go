package regression

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinsight/coinsight-go/internal/models"
)

func history(name string, days int) []models.PriceRecord {
	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]models.PriceRecord, days)
	for i := 0; i < days; i++ {
		// A gently oscillating series so every indicator has signal.
		c := 100 + 10*math.Sin(float64(i)/5) + float64(i)/10
		records[i] = models.PriceRecord{
			Name:      name,
			Symbol:    name,
			Date:      base.AddDate(0, 0, i),
			Open:      decimal.NewFromFloat(c - 0.5),
			High:      decimal.NewFromFloat(c + 1),
			Low:       decimal.NewFromFloat(c - 1),
			Close:     decimal.NewFromFloat(c),
			Volume:    decimal.NewFromFloat(1000 + 50*float64(i%10)),
			Marketcap: decimal.NewFromInt(1_000_000),
		}
	}
	return records
}

func TestBuildFeatures_DropsWarmupKeepsRest(t *testing.T) {
	records := history("Bitcoin", 60)
	ft, err := BuildFeatures(records, 3)
	require.NoError(t, err)

	// Warm-up trims the head but most of the history must survive.
	assert.NotEmpty(t, ft.Rows)
	assert.Less(t, len(ft.Rows), 60)
	assert.Greater(t, len(ft.Rows), 15)

	for i, row := range ft.Rows {
		require.Len(t, row, len(ft.Columns))
		for j, v := range row {
			assert.False(t, math.IsNaN(v), "row %d column %s", i, ft.Columns[j])
		}
	}
	assert.Len(t, ft.Target, len(ft.Rows))
	assert.Len(t, ft.Meta, len(ft.Rows))
}

func TestBuildFeatures_LagColumnsLookBack(t *testing.T) {
	records := history("Bitcoin", 60)
	ft, err := BuildFeatures(records, 2)
	require.NoError(t, err)

	lag1 := ft.ColumnIndex("close_lag_1")
	require.GreaterOrEqual(t, lag1, 0)

	// Row i's close_lag_1 equals row i-1's target close.
	for i := 1; i < len(ft.Rows); i++ {
		assert.InDelta(t, ft.Target[i-1], ft.Rows[i][lag1], 1e-9, "row %d", i)
	}
}

func TestBuildFeatures_OneHotPerCoin(t *testing.T) {
	records := append(history("Aave", 60), history("Bitcoin", 60)...)
	ft, err := BuildFeatures(records, 1)
	require.NoError(t, err)

	aaveCol := ft.ColumnIndex(CoinColumn("Aave"))
	bitcoinCol := ft.ColumnIndex(CoinColumn("Bitcoin"))
	require.GreaterOrEqual(t, aaveCol, 0)
	require.GreaterOrEqual(t, bitcoinCol, 0)

	for i, row := range ft.Rows {
		switch ft.Meta[i].Coin {
		case "Aave":
			assert.Equal(t, 1.0, row[aaveCol])
			assert.Equal(t, 0.0, row[bitcoinCol])
		case "Bitcoin":
			assert.Equal(t, 0.0, row[aaveCol])
			assert.Equal(t, 1.0, row[bitcoinCol])
		}
	}
}

func TestBuildFeatures_RejectsBadInput(t *testing.T) {
	_, err := BuildFeatures(nil, 3)
	assert.Error(t, err)

	_, err = BuildFeatures(history("Bitcoin", 60), 0)
	assert.Error(t, err)

	// Too short for indicator warm-up: every row drops.
	_, err = BuildFeatures(history("Bitcoin", 10), 3)
	assert.Error(t, err)
}

func TestComputeMACD_LongHistory(t *testing.T) {
	// The line and signal channels share one producer, so this hangs unless
	// both are consumed at the same time.
	values := make([]float64, 400)
	for i := range values {
		values[i] = 100 + 10*math.Sin(float64(i)/5)
	}

	line, signal := computeMACD(values)

	// Both outputs start after the slow EMA plus signal warm-up.
	want := len(values) - (macdSlow + macdSignal - 2)
	require.Len(t, line, want)
	require.Len(t, signal, want)
	for i := range line {
		assert.False(t, math.IsNaN(line[i]), "line %d", i)
		assert.False(t, math.IsNaN(signal[i]), "signal %d", i)
	}
}

func TestBuildFeatures_CalendarColumns(t *testing.T) {
	ft, err := BuildFeatures(history("Bitcoin", 60), 1)
	require.NoError(t, err)

	dayCol := ft.ColumnIndex("day")
	yearCol := ft.ColumnIndex("year")
	require.GreaterOrEqual(t, dayCol, 0)

	for i, row := range ft.Rows {
		assert.Equal(t, float64(ft.Meta[i].Date.Day()), row[dayCol])
		assert.Equal(t, 2021.0, row[yearCol])
	}
}
