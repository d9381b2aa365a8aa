package core

import (
	"errors"
	"strings"
)

const (
	Import TradeType = "Import"
	Export TradeType = "Export"
)

const (
	Surplus  BalanceStatus = "SURPLUS"
	Deficit  BalanceStatus = "DEFICIT"
	Balanced BalanceStatus = "BALANCED"
)

// NoneSentinel is reported for argmin/argmax identities over empty cohorts.
const NoneSentinel = "None"

// AllSentinel in a country or commodity allow-list disables filtering on
// that dimension.
const AllSentinel = "All"

type (
	// TradeType is the direction of a trade record.
	TradeType string

	// BalanceStatus classifies a trade balance by sign.
	BalanceStatus string

	// TradeRecord is one row of the trade table. Records are immutable once
	// loaded; downstream code only filters and aggregates them.
	TradeRecord struct {
		Country   string
		HSSection string // commodity sector (Harmonized System section)
		HSCode    string
		Commodity string
		Year      int
		TradeType TradeType
		ValueUSD  float64
	}

	// DirectionTotals holds per-direction sums for one group.
	DirectionTotals struct {
		Import float64
		Export float64
	}

	// GroupBalance is the derived balance view for one grouping key
	// (a sector or a year).
	GroupBalance struct {
		Key         string
		ImportTotal float64
		ExportTotal float64
		Balance     float64
		Status      BalanceStatus
	}

	// KeyTotal is a direction-blind total for one ranking key.
	KeyTotal struct {
		Key   string
		Total float64
	}

	// SeriesPoint is one point of a yearly trend series.
	SeriesPoint struct {
		Year      int
		TradeType TradeType
		Total     float64
	}
)

var (
	ErrEmptyCountry     = errors.New("empty country")
	ErrEmptySection     = errors.New("empty commodity sector")
	ErrInvalidYear      = errors.New("invalid year")
	ErrInvalidTradeType = errors.New("invalid trade type")
	ErrNegativeValue    = errors.New("negative trade value")
)

func (t TradeType) Valid() bool {
	return t == Import || t == Export
}

// StatusOf derives the balance status from the sign of the balance.
func StatusOf(balance float64) BalanceStatus {
	switch {
	case balance > 0:
		return Surplus
	case balance < 0:
		return Deficit
	default:
		return Balanced
	}
}

// Validate checks a record against the expected shape. It is applied at load
// boundaries so downstream aggregation can trust every field.
func (r TradeRecord) Validate() error {
	if strings.TrimSpace(r.Country) == "" {
		return ErrEmptyCountry
	}
	if strings.TrimSpace(r.HSSection) == "" {
		return ErrEmptySection
	}
	if r.Year <= 0 {
		return ErrInvalidYear
	}
	if !r.TradeType.Valid() {
		return ErrInvalidTradeType
	}
	if r.ValueUSD < 0 {
		return ErrNegativeValue
	}
	return nil
}
