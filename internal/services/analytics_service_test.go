package services

import (
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinsight/coinsight-go/internal/database"
)

const coinHistoryQuery = `SELECT name, symbol, date, open, high, low, close, volume, marketcap FROM coin_prices WHERE name = $1 ORDER BY date`

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testCache(t *testing.T) *database.RedisClient {
	mr := miniredis.RunT(t)
	return &database.RedisClient{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}
}

func addHistory(rows *pgxmock.Rows, name string, closes ...float64) *pgxmock.Rows {
	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		rows.AddRow(name, name, base.AddDate(0, 0, i),
			decimal.NewFromFloat(c-1), decimal.NewFromFloat(c+1),
			decimal.NewFromFloat(c-2), decimal.NewFromFloat(c),
			decimal.NewFromInt(1000), decimal.NewFromInt(100000))
	}
	return rows
}

func historyColumns() []string {
	return []string{"name", "symbol", "date", "open", "high", "low", "close", "volume", "marketcap"}
}

func TestCorrelation_SecondCallServedFromCache(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(coinHistoryQuery)).
		WithArgs("Aave").
		WillReturnRows(addHistory(pgxmock.NewRows(historyColumns()), "Aave", 10, 11, 9, 12))
	mock.ExpectQuery(regexp.QuoteMeta(coinHistoryQuery)).
		WithArgs("Bitcoin").
		WillReturnRows(addHistory(pgxmock.NewRows(historyColumns()), "Bitcoin", 20, 22, 18, 24))

	svc := NewAnalyticsService(
		database.NewPriceRepository(mock, quietLogger()),
		testCache(t), quietLogger(), time.Minute)

	first, err := svc.Correlation(context.Background(), []string{"Aave", "Bitcoin"})
	require.NoError(t, err)
	require.Equal(t, []string{"Aave", "Bitcoin"}, first.Coins)

	// No further query expectations: a second call must not touch the pool.
	second, err := svc.Correlation(context.Background(), []string{"Bitcoin", "Aave"})
	require.NoError(t, err)

	assert.Equal(t, first.Coins, second.Coins)
	assert.InDelta(t, float64(first.Values[0][1]), float64(second.Values[0][1]), 1e-12)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCorrelation_EmptyCoinListUsesEveryStoredCoin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT name FROM coin_prices ORDER BY name`)).
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("Aave"))
	mock.ExpectQuery(regexp.QuoteMeta(coinHistoryQuery)).
		WithArgs("Aave").
		WillReturnRows(addHistory(pgxmock.NewRows(historyColumns()), "Aave", 10, 11, 9))

	svc := NewAnalyticsService(
		database.NewPriceRepository(mock, quietLogger()),
		testCache(t), quietLogger(), time.Minute)

	matrix, err := svc.Correlation(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Aave"}, matrix.Coins)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProportions_CachedReportRoundTrips(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows(historyColumns())
	addHistory(rows, "Aave", 10, 11)
	addHistory(rows, "Bitcoin", 20, 22, 24)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, symbol, date, open, high, low, close, volume, marketcap FROM coin_prices ORDER BY name, date`)).
		WillReturnRows(rows)

	svc := NewAnalyticsService(
		database.NewPriceRepository(mock, quietLogger()),
		testCache(t), quietLogger(), time.Minute)

	first, err := svc.Proportions(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Shares, 2)
	assert.Equal(t, "Bitcoin", first.Shares[0].Name)

	second, err := svc.Proportions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Shares, second.Shares)
	assert.Equal(t, first.Summaries, second.Summaries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsService_NilCacheStillComputes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(coinHistoryQuery)).
		WithArgs("Aave").
		WillReturnRows(addHistory(pgxmock.NewRows(historyColumns()), "Aave", 10, 11, 9))

	svc := NewAnalyticsService(database.NewPriceRepository(mock, quietLogger()), nil, quietLogger(), time.Minute)

	matrix, err := svc.Correlation(context.Background(), []string{"Aave"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Aave"}, matrix.Coins)
}
