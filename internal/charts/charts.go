// Package charts maps tabular analytics output to declarative plotly-style
// chart specifications. The package is stateless; an empty input produces a
// chart with no traces.
package charts

import (
	"fmt"
	"sort"

	"github.com/coinsight/coinsight-go/internal/analytics"
	"github.com/coinsight/coinsight-go/internal/utils"
)

// Trace is one plotted series.
type Trace struct {
	Type   string           `json:"type"`
	Name   string           `json:"name,omitempty"`
	Mode   string           `json:"mode,omitempty"`
	X      []string         `json:"x,omitempty"`
	Y      analytics.Column `json:"y,omitempty"`
	Open   analytics.Column `json:"open,omitempty"`
	High   analytics.Column `json:"high,omitempty"`
	Low    analytics.Column `json:"low,omitempty"`
	Close  analytics.Column `json:"close,omitempty"`
	Labels []string         `json:"labels,omitempty"`
	Values analytics.Column `json:"values,omitempty"`
	Z      []analytics.Column `json:"z,omitempty"`
}

// Axis titles one chart axis.
type Axis struct {
	Title string `json:"title,omitempty"`
}

// Layout carries chart-level titles.
type Layout struct {
	Title string `json:"title,omitempty"`
	XAxis Axis   `json:"xaxis,omitempty"`
	YAxis Axis   `json:"yaxis,omitempty"`
}

// Chart is a complete declarative chart description.
type Chart struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Series is one named (x, y) pair for the line and bar builders.
type Series struct {
	Name string
	X    []string
	Y    analytics.Column
}

// Line builds a lines+markers chart, one trace per series.
func Line(series []Series, layout Layout) (*Chart, error) {
	return xyChart("scatter", "lines+markers", series, layout)
}

// Bar builds a bar chart, one trace per series.
func Bar(series []Series, layout Layout) (*Chart, error) {
	return xyChart("bar", "", series, layout)
}

func xyChart(traceType, mode string, series []Series, layout Layout) (*Chart, error) {
	chart := &Chart{Data: []Trace{}, Layout: layout}
	for _, s := range series {
		if len(s.X) != len(s.Y) {
			return nil, utils.NewValidationErrorf(
				"series %q: x and y lengths differ (%d vs %d)", s.Name, len(s.X), len(s.Y))
		}
		chart.Data = append(chart.Data, Trace{
			Type: traceType,
			Mode: mode,
			Name: s.Name,
			X:    s.X,
			Y:    s.Y,
		})
	}
	return chart, nil
}

// Box builds one box trace per named numeric column.
func Box(columns map[string]analytics.Column, layout Layout) *Chart {
	chart := &Chart{Data: []Trace{}, Layout: layout}
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		chart.Data = append(chart.Data, Trace{
			Type: "box",
			Name: name,
			Y:    columns[name],
		})
	}
	return chart
}

// Pie builds a proportion pie chart.
func Pie(labels []string, values analytics.Column, layout Layout) (*Chart, error) {
	if len(labels) != len(values) {
		return nil, utils.NewValidationErrorf(
			"pie: labels and values lengths differ (%d vs %d)", len(labels), len(values))
	}
	chart := &Chart{Data: []Trace{}, Layout: layout}
	if len(labels) > 0 {
		chart.Data = append(chart.Data, Trace{
			Type:   "pie",
			Labels: labels,
			Values: values,
		})
	}
	return chart, nil
}

// Heatmap renders a correlation matrix.
func Heatmap(matrix *analytics.CorrelationMatrix, layout Layout) *Chart {
	chart := &Chart{Data: []Trace{}, Layout: layout}
	if len(matrix.Coins) > 0 {
		chart.Data = append(chart.Data, Trace{
			Type:   "heatmap",
			X:      matrix.Coins,
			Labels: matrix.Coins,
			Z:      matrix.Values,
		})
	}
	return chart
}

// Candlestick builds one OHLC trace per coin from an analytics table.
func Candlestick(t *analytics.Table, layout Layout) *Chart {
	chart := &Chart{Data: []Trace{}, Layout: layout}
	for _, coin := range CoinOrder(t) {
		dates, open, high, low, closes := ohlcSeries(t, coin)
		chart.Data = append(chart.Data, Trace{
			Type:  "candlestick",
			Name:  fmt.Sprintf("%s Candlestick", coin),
			X:     dates,
			Open:  open,
			High:  high,
			Low:   low,
			Close: closes,
		})
	}
	return chart
}

// ColumnSeries splits one computed table column into per-coin series, with
// dates as x values. nameSuffix is appended to each coin name for the trace
// label.
func ColumnSeries(t *analytics.Table, column, nameSuffix string) ([]Series, error) {
	values, ok := t.Columns[column]
	if !ok {
		return nil, utils.NewValidationErrorf("unknown table column %q", column)
	}
	var series []Series
	for _, coin := range CoinOrder(t) {
		s := Series{Name: coin + nameSuffix}
		for i, rec := range t.Records {
			if rec.Name != coin {
				continue
			}
			s.X = append(s.X, rec.Date.Format("2006-01-02"))
			s.Y = append(s.Y, values[i])
		}
		series = append(series, s)
	}
	return series, nil
}

// CoinOrder returns the distinct coins of a table in row order.
func CoinOrder(t *analytics.Table) []string {
	var coins []string
	seen := make(map[string]bool)
	for _, rec := range t.Records {
		if !seen[rec.Name] {
			seen[rec.Name] = true
			coins = append(coins, rec.Name)
		}
	}
	return coins
}

func ohlcSeries(t *analytics.Table, coin string) (dates []string, open, high, low, closes analytics.Column) {
	for _, rec := range t.Records {
		if rec.Name != coin {
			continue
		}
		dates = append(dates, rec.Date.Format("2006-01-02"))
		o, _ := rec.Open.Float64()
		h, _ := rec.High.Float64()
		l, _ := rec.Low.Float64()
		c, _ := rec.Close.Float64()
		open = append(open, o)
		high = append(high, h)
		low = append(low, l)
		closes = append(closes, c)
	}
	return dates, open, high, low, closes
}
