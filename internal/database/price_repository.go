package database

import (
	"context"

	"github.com/coinsight/coinsight-go/internal/models"
	"github.com/coinsight/coinsight-go/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// Querier is the subset of pgxpool.Pool the repositories depend on.
// Tests substitute a pgxmock pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

const priceColumns = `name, symbol, date, open, high, low, close, volume, marketcap`

// PriceRepository reads and writes daily OHLCV rows in coin_prices.
type PriceRepository struct {
	db     Querier
	logger *logrus.Logger
}

func NewPriceRepository(db Querier, logger *logrus.Logger) *PriceRepository {
	return &PriceRepository{db: db, logger: logger}
}

// SeriesResult is the query-layer contract: the concatenated rows plus a
// per-coin presence report, so callers can tell "unknown coin" apart from
// "no rows in range" and can see when the range fallback fired.
type SeriesResult struct {
	Records  []models.PriceRecord           `json:"records"`
	Presence map[string]models.CoinPresence `json:"presence"`
}

// FetchSeries returns rows for the requested coins ordered by (name, date)
// ascending. Unknown names yield no rows and no error. When a date range is
// supplied and the bounded query is empty for a coin, that coin's entire
// history is returned instead; the presence report marks it "fallback".
func (r *PriceRepository) FetchSeries(ctx context.Context, coinNames []string, dateRange *models.DateRange) (*SeriesResult, error) {
	result := &SeriesResult{
		Presence: make(map[string]models.CoinPresence, len(coinNames)),
	}

	for _, name := range coinNames {
		rows, err := r.fetchCoin(ctx, name, dateRange)
		if err != nil {
			return nil, err
		}

		presence := models.PresenceOK
		if len(rows) == 0 && dateRange != nil {
			// Documented fallback: an empty bounded query returns the
			// coin's full history, which may exceed the requested range.
			rows, err = r.fetchCoin(ctx, name, nil)
			if err != nil {
				return nil, err
			}
			presence = models.PresenceFallback
			r.logger.WithFields(logrus.Fields{
				"coin": name,
				"rows": len(rows),
			}).Debug("Date-bounded query empty, returned full history")
		}
		if len(rows) == 0 {
			presence = models.PresenceMissing
		}

		result.Presence[name] = presence
		result.Records = append(result.Records, rows...)
	}

	return result, nil
}

func (r *PriceRepository) fetchCoin(ctx context.Context, name string, dateRange *models.DateRange) ([]models.PriceRecord, error) {
	query := `SELECT ` + priceColumns + ` FROM coin_prices WHERE name = $1 ORDER BY date`
	args := []interface{}{name}
	if dateRange != nil {
		query = `SELECT ` + priceColumns + ` FROM coin_prices WHERE name = $1 AND date BETWEEN $2 AND $3 ORDER BY date`
		args = append(args, dateRange.Start, dateRange.End)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, utils.NewDataQueryError("fetch_series", "failed to query coin prices", err)
	}
	defer rows.Close()

	return scanPriceRows(rows)
}

// FetchAll returns every row in coin_prices ordered by (name, date).
// Used by the proportion and summary reports.
func (r *PriceRepository) FetchAll(ctx context.Context) ([]models.PriceRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT `+priceColumns+` FROM coin_prices ORDER BY name, date`)
	if err != nil {
		return nil, utils.NewDataQueryError("fetch_all", "failed to query coin prices", err)
	}
	defer rows.Close()

	return scanPriceRows(rows)
}

// ListCoinNames returns the distinct coin names present in storage.
func (r *PriceRepository) ListCoinNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT name FROM coin_prices ORDER BY name`)
	if err != nil {
		return nil, utils.NewDataQueryError("list_coins", "failed to list coin names", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, utils.NewDataQueryError("list_coins", "failed to scan coin name", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.NewDataQueryError("list_coins", "error iterating coin names", err)
	}
	return names, nil
}

// UpsertRecords inserts daily bars, replacing existing rows on (name, date).
func (r *PriceRepository) UpsertRecords(ctx context.Context, records []models.PriceRecord) (int64, error) {
	query := `
		INSERT INTO coin_prices (name, symbol, date, open, high, low, close, volume, marketcap)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name, date) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			marketcap = EXCLUDED.marketcap
	`

	var inserted int64
	for _, rec := range records {
		tag, err := r.db.Exec(ctx, query,
			rec.Name, rec.Symbol, rec.Date, rec.Open, rec.High, rec.Low, rec.Close, rec.Volume, rec.Marketcap)
		if err != nil {
			return inserted, utils.NewDataQueryError("upsert_records", "failed to upsert price record", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func scanPriceRows(rows pgx.Rows) ([]models.PriceRecord, error) {
	var records []models.PriceRecord
	for rows.Next() {
		var rec models.PriceRecord
		err := rows.Scan(&rec.Name, &rec.Symbol, &rec.Date,
			&rec.Open, &rec.High, &rec.Low, &rec.Close, &rec.Volume, &rec.Marketcap)
		if err != nil {
			return nil, utils.NewDataQueryError("scan", "failed to scan price record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.NewDataQueryError("scan", "error iterating price rows", err)
	}
	return records, nil
}
