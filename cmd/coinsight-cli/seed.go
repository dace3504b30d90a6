package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/coinsight/coinsight-go/internal/database"
	"github.com/coinsight/coinsight-go/internal/models"
)

func newSeedCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load historical coin prices from a CSV export into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnvironment()
			if err != nil {
				return err
			}
			db, err := database.NewPostgresConnection(cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			return runSeed(cmd.Context(), database.NewPriceRepository(db.Pool, logger), logger, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "coins.csv", "CSV file with columns SNo,Name,Symbol,Date,High,Low,Open,Close,Volume,Marketcap")
	return cmd
}

func runSeed(ctx context.Context, prices *database.PriceRepository, logger *logrus.Logger, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	records, skipped, err := parsePriceCSV(f)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%s contains no usable rows", file)
	}

	inserted, err := prices.UpsertRecords(ctx, records)
	if err != nil {
		return fmt.Errorf("upsert records: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"file":     file,
		"rows":     len(records),
		"upserted": inserted,
		"skipped":  skipped,
	}).Info("Seed completed")
	return nil
}

// csvColumns maps the expected header names to their positions. The column
// order of the export is not assumed; the header row is authoritative.
func csvColumns(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Name", "Symbol", "Date", "High", "Low", "Open", "Close", "Volume", "Marketcap"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing required CSV column %q", required)
		}
	}
	return index, nil
}

// parsePriceCSV reads every well-formed row; rows with unparseable dates or
// numbers are counted and skipped rather than failing the whole import.
func parsePriceCSV(r io.Reader) ([]models.PriceRecord, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read CSV header: %w", err)
	}
	cols, err := csvColumns(header)
	if err != nil {
		return nil, 0, err
	}

	var records []models.PriceRecord
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		rec, ok := parsePriceRow(row, cols)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func parsePriceRow(row []string, cols map[string]int) (models.PriceRecord, bool) {
	field := func(name string) (string, bool) {
		i := cols[name]
		if i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	var rec models.PriceRecord
	name, ok := field("Name")
	if !ok || name == "" {
		return rec, false
	}
	symbol, _ := field("Symbol")
	rawDate, ok := field("Date")
	if !ok {
		return rec, false
	}
	date, err := parseRecordDate(rawDate)
	if err != nil {
		return rec, false
	}

	rec.Name = name
	rec.Symbol = symbol
	rec.Date = date
	for _, target := range []struct {
		column string
		dest   *decimal.Decimal
	}{
		{"Open", &rec.Open},
		{"High", &rec.High},
		{"Low", &rec.Low},
		{"Close", &rec.Close},
		{"Volume", &rec.Volume},
		{"Marketcap", &rec.Marketcap},
	} {
		raw, ok := field(target.column)
		if !ok {
			return rec, false
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return rec, false
		}
		*target.dest = value
	}
	return rec, true
}

// parseRecordDate accepts the export's timestamped form and a bare date.
func parseRecordDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
