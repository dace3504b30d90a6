package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/coinsight/coinsight-go/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CoinShare is one slice of the dataset proportion report.
type CoinShare struct {
	Name    string  `json:"name"`
	Records int     `json:"records"`
	Percent float64 `json:"percent"`
}

// CoinSummary aggregates one coin's history for the summary table.
// Volume and marketcap are pre-formatted for display (1.3B, 2.4M, 5.1K).
type CoinSummary struct {
	Name          string `json:"name"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Records       int    `json:"records"`
	TotalVolume   string `json:"total_volume"`
	AvgMarketcap  string `json:"average_marketcap"`
}

var displayPrinter = message.NewPrinter(language.English)

// Proportions returns each coin's share of the dataset row count, percent,
// largest first.
func Proportions(records []models.PriceRecord) []CoinShare {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.Name]++
	}

	shares := make([]CoinShare, 0, len(counts))
	for name, count := range counts {
		shares = append(shares, CoinShare{
			Name:    name,
			Records: count,
			Percent: float64(count) / float64(len(records)) * 100,
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Records != shares[j].Records {
			return shares[i].Records > shares[j].Records
		}
		return shares[i].Name < shares[j].Name
	})
	return shares
}

// Summarize builds the per-coin summary table: date coverage, record count,
// total volume and mean marketcap.
func Summarize(records []models.PriceRecord) []CoinSummary {
	type agg struct {
		first, last  time.Time
		count        int
		volume       float64
		marketcapSum float64
	}
	byCoin := make(map[string]*agg)
	for _, rec := range records {
		a, ok := byCoin[rec.Name]
		if !ok {
			a = &agg{first: rec.Date, last: rec.Date}
			byCoin[rec.Name] = a
		}
		if rec.Date.Before(a.first) {
			a.first = rec.Date
		}
		if rec.Date.After(a.last) {
			a.last = rec.Date
		}
		a.count++
		volume, _ := rec.Volume.Float64()
		marketcap, _ := rec.Marketcap.Float64()
		a.volume += volume
		a.marketcapSum += marketcap
	}

	summaries := make([]CoinSummary, 0, len(byCoin))
	for name, a := range byCoin {
		summaries = append(summaries, CoinSummary{
			Name:         name,
			StartDate:    a.first.Format("2006-01-02"),
			EndDate:      a.last.Format("2006-01-02"),
			Records:      a.count,
			TotalVolume:  humanReadable(a.volume),
			AvgMarketcap: humanReadable(a.marketcapSum / float64(a.count)),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries
}

// humanReadable shortens large magnitudes to 1.3B / 2.4M / 5.1K; smaller
// values keep locale digit grouping.
func humanReadable(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	default:
		return displayPrinter.Sprintf("%.2f", v)
	}
}
