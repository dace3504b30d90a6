package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/coinsight/coinsight-go/internal/analytics"
	"github.com/coinsight/coinsight-go/internal/database"
	"github.com/coinsight/coinsight-go/internal/models"
)

// AnalyticsService runs the indicator pipeline over queried coin series and
// caches the request-independent reports (correlation, proportions) in Redis.
type AnalyticsService struct {
	prices   *database.PriceRepository
	cache    *database.RedisClient
	logger   *logrus.Logger
	cacheTTL time.Duration
}

func NewAnalyticsService(prices *database.PriceRepository, cache *database.RedisClient, logger *logrus.Logger, cacheTTL time.Duration) *AnalyticsService {
	return &AnalyticsService{
		prices:   prices,
		cache:    cache,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// SeriesTable fetches the requested coins and wraps them in an analytics
// table, returning the per-coin presence report alongside.
func (s *AnalyticsService) SeriesTable(ctx context.Context, coinNames []string, dateRange *models.DateRange) (*analytics.Table, map[string]models.CoinPresence, error) {
	result, err := s.prices.FetchSeries(ctx, coinNames, dateRange)
	if err != nil {
		return nil, nil, err
	}
	return analytics.NewTable(result.Records), result.Presence, nil
}

// QuerySeries returns the raw rows plus presence for /query_coin.
func (s *AnalyticsService) QuerySeries(ctx context.Context, coinNames []string, dateRange *models.DateRange) (*database.SeriesResult, error) {
	return s.prices.FetchSeries(ctx, coinNames, dateRange)
}

// Correlation computes (or serves from cache) the cross-coin close-price
// correlation matrix for the given coins; an empty coin list correlates every
// coin in storage.
func (s *AnalyticsService) Correlation(ctx context.Context, coinNames []string) (*analytics.CorrelationMatrix, error) {
	if len(coinNames) == 0 {
		all, err := s.prices.ListCoinNames(ctx)
		if err != nil {
			return nil, err
		}
		coinNames = all
	}

	cacheKey := correlationCacheKey(coinNames)
	var cached analytics.CorrelationMatrix
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	result, err := s.prices.FetchSeries(ctx, coinNames, nil)
	if err != nil {
		return nil, err
	}
	matrix := analytics.Correlate(result.Records)

	s.cacheSet(ctx, cacheKey, matrix)
	return matrix, nil
}

// ProportionReport holds the dataset composition report for /coin_proportion.
type ProportionReport struct {
	Shares    []analytics.CoinShare   `json:"shares"`
	Summaries []analytics.CoinSummary `json:"summaries"`
}

// Proportions computes (or serves from cache) the dataset composition report.
func (s *AnalyticsService) Proportions(ctx context.Context) (*ProportionReport, error) {
	const cacheKey = "report:proportions"
	var cached ProportionReport
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	records, err := s.prices.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	report := &ProportionReport{
		Shares:    analytics.Proportions(records),
		Summaries: analytics.Summarize(records),
	}

	s.cacheSet(ctx, cacheKey, report)
	return report, nil
}

func (s *AnalyticsService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Dropping undecodable cache entry")
		_ = s.cache.Delete(ctx, key)
		return false
	}
	return true
}

func (s *AnalyticsService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.logger.WithError(err).WithField("key", key).Debug("Cache write failed")
	}
}

func correlationCacheKey(coinNames []string) string {
	sorted := append([]string(nil), coinNames...)
	sort.Strings(sorted)
	return "report:correlation:" + strings.Join(sorted, ",")
}
