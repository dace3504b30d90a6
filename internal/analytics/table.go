// Package analytics implements the per-coin time-series transforms behind the
// dashboard endpoints: daily deltas, rolling averages, peak/valley detection,
// RSI and cross-coin correlation. All transforms operate on a table sorted by
// (name, date) ascending and never leak rolling state across coins.
package analytics

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/coinsight/coinsight-go/internal/models"
)

// Column is a derived numeric column parallel to the table rows.
// NaN marks an undefined value and serializes as JSON null.
type Column []float64

// MarshalJSON writes NaN entries as null so chart payloads stay valid JSON.
func (c Column) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, len(c))
	for i, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = json.RawMessage("null")
		} else {
			out[i] = json.RawMessage(strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores null entries as NaN, so cached columns round-trip.
func (c *Column) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Column, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *v
		}
	}
	*c = out
	return nil
}

// Table couples queried price rows with request-scoped derived columns.
// Derived columns are views over the rows; nothing here is persisted.
type Table struct {
	Records []models.PriceRecord
	Columns map[string]Column
}

// NewTable builds a table sorted by (name, date) ascending, the order every
// grouped transform assumes.
func NewTable(records []models.PriceRecord) *Table {
	sorted := make([]models.PriceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return &Table{
		Records: sorted,
		Columns: make(map[string]Column),
	}
}

// Len returns the row count.
func (t *Table) Len() int { return len(t.Records) }

// Close returns the close column as float64.
func (t *Table) Close() []float64 {
	out := make([]float64, len(t.Records))
	for i, rec := range t.Records {
		out[i], _ = rec.Close.Float64()
	}
	return out
}

// group is a contiguous span of rows belonging to one coin.
type group struct {
	name       string
	start, end int // [start, end)
}

// groups walks the coin spans of a (name, date)-sorted table.
func (t *Table) groups() []group {
	var spans []group
	for i := 0; i < len(t.Records); {
		j := i
		for j < len(t.Records) && t.Records[j].Name == t.Records[i].Name {
			j++
		}
		spans = append(spans, group{name: t.Records[i].Name, start: i, end: j})
		i = j
	}
	return spans
}
