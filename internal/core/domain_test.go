package core

import (
	"errors"
	"testing"
)

func TestTradeRecordValidate(t *testing.T) {
	good := TradeRecord{
		Country:   "USA",
		HSSection: "Electronics",
		HSCode:    "8517",
		Commodity: "Phones",
		Year:      2020,
		TradeType: Export,
		ValueUSD:  1000,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	// Zero value is allowed, negative is not.
	zero := good
	zero.ValueUSD = 0
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero value should validate, got %v", err)
	}

	cases := []struct {
		mutate func(*TradeRecord)
		want   error
	}{
		{func(r *TradeRecord) { r.Country = " " }, ErrEmptyCountry},
		{func(r *TradeRecord) { r.HSSection = "" }, ErrEmptySection},
		{func(r *TradeRecord) { r.Year = 0 }, ErrInvalidYear},
		{func(r *TradeRecord) { r.TradeType = "Transit" }, ErrInvalidTradeType},
		{func(r *TradeRecord) { r.ValueUSD = -1 }, ErrNegativeValue},
	}
	for i, tc := range cases {
		r := good
		tc.mutate(&r)
		if err := r.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		balance float64
		want    BalanceStatus
	}{
		{1, Surplus},
		{0.01, Surplus},
		{-1, Deficit},
		{-0.01, Deficit},
		{0, Balanced},
	}
	for _, tc := range cases {
		if got := StatusOf(tc.balance); got != tc.want {
			t.Fatalf("StatusOf(%v) = %s, want %s", tc.balance, got, tc.want)
		}
	}
}
