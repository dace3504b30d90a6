package database

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinsight/coinsight-go/internal/models"
	"github.com/coinsight/coinsight-go/internal/utils"
)

const (
	boundedQuery   = `SELECT name, symbol, date, open, high, low, close, volume, marketcap FROM coin_prices WHERE name = $1 AND date BETWEEN $2 AND $3 ORDER BY date`
	unboundedQuery = `SELECT name, symbol, date, open, high, low, close, volume, marketcap FROM coin_prices WHERE name = $1 ORDER BY date`
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func priceRow(rows *pgxmock.Rows, name string, date time.Time, close float64) *pgxmock.Rows {
	return rows.AddRow(name, name, date,
		decimal.NewFromFloat(close-1), decimal.NewFromFloat(close+1),
		decimal.NewFromFloat(close-2), decimal.NewFromFloat(close),
		decimal.NewFromInt(1000), decimal.NewFromInt(100000))
}

func priceColumnNames() []string {
	return []string{"name", "symbol", "date", "open", "high", "low", "close", "volume", "marketcap"}
}

func TestFetchSeries_WithinRange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	rows := pgxmock.NewRows(priceColumnNames())
	priceRow(rows, "Bitcoin", start, 100)
	priceRow(rows, "Bitcoin", start.AddDate(0, 0, 1), 105)

	mock.ExpectQuery(regexp.QuoteMeta(boundedQuery)).
		WithArgs("Bitcoin", start, end).
		WillReturnRows(rows)

	repo := NewPriceRepository(mock, quietLogger())
	result, err := repo.FetchSeries(context.Background(), []string{"Bitcoin"},
		&models.DateRange{Start: start, End: end})
	require.NoError(t, err)

	assert.Len(t, result.Records, 2)
	assert.Equal(t, models.PresenceOK, result.Presence["Bitcoin"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchSeries_EmptyRangeFallsBackToFullHistory(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	mock.ExpectQuery(regexp.QuoteMeta(boundedQuery)).
		WithArgs("Bitcoin", start, end).
		WillReturnRows(pgxmock.NewRows(priceColumnNames()))

	historical := pgxmock.NewRows(priceColumnNames())
	priceRow(historical, "Bitcoin", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 100)
	mock.ExpectQuery(regexp.QuoteMeta(unboundedQuery)).
		WithArgs("Bitcoin").
		WillReturnRows(historical)

	repo := NewPriceRepository(mock, quietLogger())
	result, err := repo.FetchSeries(context.Background(), []string{"Bitcoin"},
		&models.DateRange{Start: start, End: end})
	require.NoError(t, err)

	assert.Len(t, result.Records, 1)
	assert.Equal(t, models.PresenceFallback, result.Presence["Bitcoin"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchSeries_UnknownCoinIsMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(unboundedQuery)).
		WithArgs("Nopecoin").
		WillReturnRows(pgxmock.NewRows(priceColumnNames()))

	repo := NewPriceRepository(mock, quietLogger())
	result, err := repo.FetchSeries(context.Background(), []string{"Nopecoin"}, nil)
	require.NoError(t, err)

	assert.Empty(t, result.Records)
	assert.Equal(t, models.PresenceMissing, result.Presence["Nopecoin"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchSeries_QueryErrorWrapped(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(unboundedQuery)).
		WithArgs("Bitcoin").
		WillReturnError(errors.New("connection refused"))

	repo := NewPriceRepository(mock, quietLogger())
	_, err = repo.FetchSeries(context.Background(), []string{"Bitcoin"}, nil)
	require.Error(t, err)

	var queryErr *utils.DataQueryError
	assert.ErrorAs(t, err, &queryErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCoinNames(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT name FROM coin_prices ORDER BY name`)).
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("Aave").AddRow("Bitcoin"))

	repo := NewPriceRepository(mock, quietLogger())
	names, err := repo.ListCoinNames(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Aave", "Bitcoin"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRecords_CountsAffectedRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	records := []models.PriceRecord{
		{
			Name: "Bitcoin", Symbol: "BTC",
			Date:  time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			Open:  decimal.NewFromInt(99), High: decimal.NewFromInt(101),
			Low:   decimal.NewFromInt(98), Close: decimal.NewFromInt(100),
			Volume: decimal.NewFromInt(1000), Marketcap: decimal.NewFromInt(100000),
		},
	}
	mock.ExpectExec(`INSERT INTO coin_prices`).
		WithArgs(records[0].Name, records[0].Symbol, records[0].Date,
			records[0].Open, records[0].High, records[0].Low,
			records[0].Close, records[0].Volume, records[0].Marketcap).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPriceRepository(mock, quietLogger())
	inserted, err := repo.UpsertRecords(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, int64(1), inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
