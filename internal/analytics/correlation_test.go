package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelate_PerfectlyAntiCorrelatedPair(t *testing.T) {
	// Aave rises 10% then 10%; Bitcoin falls each day. Daily changes move in
	// strictly opposite directions, so the pair correlates at -1.
	records := append(
		priceSeries("Aave", 100, 110, 121, 110),
		priceSeries("Bitcoin", 100, 90, 85, 84)...,
	)
	matrix := Correlate(records)

	require.Equal(t, []string{"Aave", "Bitcoin"}, matrix.Coins)
	require.Len(t, matrix.Values, 2)
	assert.InDelta(t, 1.0, matrix.Values[0][0], 1e-9)
	assert.InDelta(t, 1.0, matrix.Values[1][1], 1e-9)
	assert.True(t, matrix.Values[0][1] < 0, "expected negative correlation")
	assert.InDelta(t, matrix.Values[0][1], matrix.Values[1][0], 1e-12, "matrix must be symmetric")
}

func TestCorrelate_IdenticalSeriesIsOne(t *testing.T) {
	records := append(
		priceSeries("Aave", 10, 11, 9, 12, 13),
		priceSeries("Bitcoin", 20, 22, 18, 24, 26)...,
	)
	matrix := Correlate(records)

	assert.InDelta(t, 1.0, matrix.Values[0][1], 1e-9)
}

func TestCorrelate_InsufficientOverlapIsUndefined(t *testing.T) {
	// One coin's history ends before the other's begins; no shared dates.
	aave := priceSeries("Aave", 10, 11, 12)
	bitcoin := priceSeries("Bitcoin", 20, 21, 22)
	for i := range bitcoin {
		bitcoin[i].Date = bitcoin[i].Date.AddDate(1, 0, 0)
	}
	matrix := Correlate(append(aave, bitcoin...))

	assert.True(t, math.IsNaN(matrix.Values[0][1]))
	assert.InDelta(t, 1.0, matrix.Values[0][0], 1e-9)
}

func TestCorrelate_ZeroVarianceIsUndefined(t *testing.T) {
	records := append(
		priceSeries("Aave", 10, 10, 10, 10),
		priceSeries("Bitcoin", 20, 22, 18, 24)...,
	)
	matrix := Correlate(records)

	assert.True(t, math.IsNaN(matrix.Values[0][1]))
}

func TestCorrelate_SingleCoin(t *testing.T) {
	matrix := Correlate(priceSeries("Bitcoin", 1, 2, 3))

	require.Equal(t, []string{"Bitcoin"}, matrix.Coins)
	require.Len(t, matrix.Values, 1)
	assert.InDelta(t, 1.0, matrix.Values[0][0], 1e-9)
}

func TestCorrelate_Empty(t *testing.T) {
	matrix := Correlate(nil)
	assert.Empty(t, matrix.Coins)
	assert.Empty(t, matrix.Values)
}
