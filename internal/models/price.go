package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecord represents one daily OHLCV bar for a coin.
// Records are unique on (Name, Date).
type PriceRecord struct {
	Name      string          `json:"name" db:"name"`
	Symbol    string          `json:"symbol" db:"symbol"`
	Date      time.Time       `json:"date" db:"date"`
	Open      decimal.Decimal `json:"open" db:"open"`
	High      decimal.Decimal `json:"high" db:"high"`
	Low       decimal.Decimal `json:"low" db:"low"`
	Close     decimal.Decimal `json:"close" db:"close"`
	Volume    decimal.Decimal `json:"volume" db:"volume"`
	Marketcap decimal.Decimal `json:"marketcap" db:"marketcap"`
}

// CoinPresence describes how a requested coin was resolved by the query layer.
type CoinPresence string

const (
	// PresenceOK means rows were found inside the requested date range.
	PresenceOK CoinPresence = "ok"
	// PresenceFallback means the bounded query was empty and the coin's
	// full history was returned instead.
	PresenceFallback CoinPresence = "fallback"
	// PresenceMissing means the coin has no rows at all.
	PresenceMissing CoinPresence = "missing"
)

// DateRange is an inclusive calendar date interval.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
