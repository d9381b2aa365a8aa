package core

import (
	"sort"
	"strconv"
)

// Filter keeps records with yearMin <= Year <= yearMax and a trade type in
// allowed. It is pure and total: empty input or an empty allowed set yields
// an empty output, and re-applying the same predicate is a no-op.
func Filter(records []TradeRecord, yearMin, yearMax int, allowed []TradeType) []TradeRecord {
	allow := make(map[TradeType]bool, len(allowed))
	for _, t := range allowed {
		allow[t] = true
	}
	out := make([]TradeRecord, 0, len(records))
	for _, r := range records {
		if r.Year < yearMin || r.Year > yearMax {
			continue
		}
		if !allow[r.TradeType] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterByDimensions applies country and commodity-sector allow-lists.
// An empty list, or one containing the "All" sentinel, disables filtering
// on that dimension.
func FilterByDimensions(records []TradeRecord, countries, sectors []string) []TradeRecord {
	countrySet := allowSet(countries)
	sectorSet := allowSet(sectors)
	if countrySet == nil && sectorSet == nil {
		return records
	}
	out := make([]TradeRecord, 0, len(records))
	for _, r := range records {
		if countrySet != nil && !countrySet[r.Country] {
			continue
		}
		if sectorSet != nil && !sectorSet[r.HSSection] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// allowSet returns nil when the list disables filtering.
func allowSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v == AllSentinel {
			return nil
		}
		set[v] = true
	}
	return set
}

// AggregateBy groups records by keyFn and sums ValueUSD separately per trade
// direction. A group always carries both directions; a direction with no
// records sums to zero rather than being absent, which keeps the balance
// subtraction total.
func AggregateBy(records []TradeRecord, keyFn func(TradeRecord) string) map[string]DirectionTotals {
	totals := make(map[string]DirectionTotals)
	for _, r := range records {
		key := keyFn(r)
		t := totals[key]
		switch r.TradeType {
		case Import:
			t.Import += r.ValueUSD
		case Export:
			t.Export += r.ValueUSD
		}
		totals[key] = t
	}
	return totals
}

// Balances derives the balance view for every group, sorted ascending by
// balance. Equal balances are ordered alphabetically by key so the result is
// deterministic regardless of map iteration order.
func Balances(totals map[string]DirectionTotals) []GroupBalance {
	out := make([]GroupBalance, 0, len(totals))
	for key, t := range totals {
		balance := t.Export - t.Import
		out = append(out, GroupBalance{
			Key:         key,
			ImportTotal: t.Import,
			ExportTotal: t.Export,
			Balance:     balance,
			Status:      StatusOf(balance),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Balance != out[j].Balance {
			return out[i].Balance < out[j].Balance
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// SectorBalances computes per-sector balances, ascending by balance.
func SectorBalances(records []TradeRecord) []GroupBalance {
	return Balances(AggregateBy(records, func(r TradeRecord) string { return r.HSSection }))
}

// YearlyBalances computes per-year balances, ascending by balance.
func YearlyBalances(records []TradeRecord) []GroupBalance {
	return Balances(AggregateBy(records, func(r TradeRecord) string { return strconv.Itoa(r.Year) }))
}

// Leaders selects the n lowest balances (deficit leaders) and the n highest
// (surplus leaders) from an ascending-sorted balance list. When the two
// cohorts overlap the result is de-duplicated by key, preserving the
// ascending order.
func Leaders(balances []GroupBalance, n int) []GroupBalance {
	if n <= 0 || len(balances) == 0 {
		return nil
	}
	seen := make(map[string]bool, 2*n)
	out := make([]GroupBalance, 0, 2*n)
	pick := func(b GroupBalance) {
		if !seen[b.Key] {
			seen[b.Key] = true
			out = append(out, b)
		}
	}
	low := n
	if low > len(balances) {
		low = len(balances)
	}
	for _, b := range balances[:low] {
		pick(b)
	}
	high := len(balances) - n
	if high < 0 {
		high = 0
	}
	for _, b := range balances[high:] {
		pick(b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Balance != out[j].Balance {
			return out[i].Balance < out[j].Balance
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// RankByTotal sums ValueUSD per key ignoring trade direction, sorts by total
// (ties alphabetical by key) and truncates to topN. topN <= 0 means no
// truncation.
func RankByTotal(records []TradeRecord, keyFn func(TradeRecord) string, topN int, ascending bool) []KeyTotal {
	sums := make(map[string]float64)
	for _, r := range records {
		sums[keyFn(r)] += r.ValueUSD
	}
	out := make([]KeyTotal, 0, len(sums))
	for key, total := range sums {
		out = append(out, KeyTotal{Key: key, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			if ascending {
				return out[i].Total < out[j].Total
			}
			return out[i].Total > out[j].Total
		}
		return out[i].Key < out[j].Key
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// TopPartners ranks countries by total trade volume, descending.
func TopPartners(records []TradeRecord, topN int) []KeyTotal {
	return RankByTotal(records, func(r TradeRecord) string { return r.Country }, topN, false)
}

// TopCommodities ranks commodity sectors by total trade volume, descending.
func TopCommodities(records []TradeRecord, topN int) []KeyTotal {
	return RankByTotal(records, func(r TradeRecord) string { return r.HSSection }, topN, false)
}

// BalanceSummary aggregates the deficit/surplus cohorts of a balance list.
// Groups with a balance of exactly zero belong to neither cohort.
type BalanceSummary struct {
	DeficitCount int
	SurplusCount int
	TotalDeficit float64
	TotalSurplus float64
	WorstDeficit string
	BestSurplus  string
}

// Summarize computes cohort counts, totals, and the most extreme group on
// each side. When a cohort is empty the corresponding identity is the "None"
// sentinel.
func Summarize(balances []GroupBalance) BalanceSummary {
	s := BalanceSummary{WorstDeficit: NoneSentinel, BestSurplus: NoneSentinel}
	worst, best := 0.0, 0.0
	for _, b := range balances {
		switch {
		case b.Balance < 0:
			s.DeficitCount++
			s.TotalDeficit += b.Balance
			if b.Balance < worst || s.WorstDeficit == NoneSentinel {
				worst = b.Balance
				s.WorstDeficit = b.Key
			}
		case b.Balance > 0:
			s.SurplusCount++
			s.TotalSurplus += b.Balance
			if b.Balance > best || s.BestSurplus == NoneSentinel {
				best = b.Balance
				s.BestSurplus = b.Key
			}
		}
	}
	return s
}

// YearlySeries computes (year, direction, total) points sorted by year
// ascending, then by trade type. With byDirection=false both directions are
// folded into a single point per year carrying the All direction.
func YearlySeries(records []TradeRecord, byDirection bool) []SeriesPoint {
	type seriesKey struct {
		year int
		t    TradeType
	}
	sums := make(map[seriesKey]float64)
	for _, r := range records {
		k := seriesKey{year: r.Year, t: TradeType(AllSentinel)}
		if byDirection {
			k.t = r.TradeType
		}
		sums[k] += r.ValueUSD
	}
	out := make([]SeriesPoint, 0, len(sums))
	for k, total := range sums {
		out = append(out, SeriesPoint{Year: k.year, TradeType: k.t, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].TradeType < out[j].TradeType
	})
	return out
}

// Overview holds the headline metrics shown at the top of the dashboard.
type Overview struct {
	TotalValue float64
	Partners   int
	Sectors    int
	Records    int
	MinYear    int
	MaxYear    int
}

// ComputeOverview derives the headline metrics for a record set. Year bounds
// are zero for an empty set.
func ComputeOverview(records []TradeRecord) Overview {
	o := Overview{Records: len(records)}
	countries := make(map[string]bool)
	sectors := make(map[string]bool)
	for i, r := range records {
		o.TotalValue += r.ValueUSD
		countries[r.Country] = true
		sectors[r.HSSection] = true
		if i == 0 || r.Year < o.MinYear {
			o.MinYear = r.Year
		}
		if r.Year > o.MaxYear {
			o.MaxYear = r.Year
		}
	}
	o.Partners = len(countries)
	o.Sectors = len(sectors)
	return o
}
