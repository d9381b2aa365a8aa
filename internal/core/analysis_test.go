package core

import (
	"math"
	"reflect"
	"testing"
)

func rec(country, sector string, year int, t TradeType, value float64) TradeRecord {
	return TradeRecord{
		Country:   country,
		HSSection: sector,
		HSCode:    "0000",
		Commodity: sector,
		Year:      year,
		TradeType: t,
		ValueUSD:  value,
	}
}

func sectorKey(r TradeRecord) string { return r.HSSection }

func TestFilter(t *testing.T) {
	records := []TradeRecord{
		rec("USA", "Electronics", 2018, Import, 10),
		rec("USA", "Electronics", 2020, Export, 20),
		rec("China", "Textiles", 2022, Import, 30),
		rec("China", "Textiles", 2023, Export, 40),
	}

	got := Filter(records, 2019, 2022, []TradeType{Import, Export})
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}

	onlyImports := Filter(records, 2018, 2023, []TradeType{Import})
	for _, r := range onlyImports {
		if r.TradeType != Import {
			t.Fatalf("unexpected trade type %s", r.TradeType)
		}
	}

	if got := Filter(records, 2018, 2023, nil); len(got) != 0 {
		t.Fatalf("empty allowed set should yield empty output, got %d", len(got))
	}
	if got := Filter(nil, 2018, 2023, []TradeType{Import}); len(got) != 0 {
		t.Fatalf("empty input should yield empty output, got %d", len(got))
	}
}

func TestFilterIdempotent(t *testing.T) {
	records := GenerateSample(7, 200)
	once := Filter(records, 2019, 2021, []TradeType{Export})
	twice := Filter(once, 2019, 2021, []TradeType{Export})
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filtering an already-filtered set changed it")
	}
}

func TestFilterByDimensions(t *testing.T) {
	records := []TradeRecord{
		rec("USA", "Electronics", 2020, Export, 1),
		rec("China", "Textiles", 2020, Export, 2),
		rec("Japan", "Electronics", 2020, Import, 3),
	}

	got := FilterByDimensions(records, []string{"USA", "Japan"}, nil)
	if len(got) != 2 {
		t.Fatalf("country filter: expected 2, got %d", len(got))
	}

	got = FilterByDimensions(records, []string{AllSentinel, "USA"}, []string{"Textiles"})
	if len(got) != 1 || got[0].Country != "China" {
		t.Fatalf("sector filter with All countries: got %+v", got)
	}

	got = FilterByDimensions(records, nil, nil)
	if len(got) != 3 {
		t.Fatalf("no filters should pass everything, got %d", len(got))
	}
}

func TestAggregateByZeroFill(t *testing.T) {
	records := []TradeRecord{
		rec("USA", "Electronics", 2020, Export, 100),
		rec("USA", "Electronics", 2020, Import, 40),
		rec("USA", "Jewelry", 2020, Export, 55),
	}
	totals := AggregateBy(records, sectorKey)
	if len(totals) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(totals))
	}
	if got := totals["Electronics"]; got.Import != 40 || got.Export != 100 {
		t.Fatalf("Electronics totals = %+v", got)
	}
	// Group with one direction still carries an explicit zero for the other.
	if got := totals["Jewelry"]; got.Import != 0 || got.Export != 55 {
		t.Fatalf("Jewelry totals = %+v", got)
	}

	if got := AggregateBy(nil, sectorKey); len(got) != 0 {
		t.Fatalf("empty input should yield empty mapping, got %v", got)
	}
}

func TestBalancesWorkedExample(t *testing.T) {
	records := []TradeRecord{
		rec("USA", "Electronics", 2020, Export, 100),
		rec("USA", "Electronics", 2020, Import, 40),
	}
	balances := SectorBalances(records)
	if len(balances) != 1 {
		t.Fatalf("expected 1 group, got %d", len(balances))
	}
	b := balances[0]
	if b.Key != "Electronics" || b.ImportTotal != 40 || b.ExportTotal != 100 {
		t.Fatalf("unexpected group %+v", b)
	}
	if b.Balance != 60 || b.Status != Surplus {
		t.Fatalf("expected balance 60 SURPLUS, got %v %s", b.Balance, b.Status)
	}
}

func TestBalancesInvariants(t *testing.T) {
	records := GenerateSample(3, 1000)
	balances := SectorBalances(records)

	var globalImport, globalExport, balanceSum float64
	for _, r := range records {
		if r.TradeType == Import {
			globalImport += r.ValueUSD
		} else {
			globalExport += r.ValueUSD
		}
	}
	for i, b := range balances {
		if b.Balance != b.ExportTotal-b.ImportTotal {
			t.Fatalf("group %s: balance %v != export-import %v", b.Key, b.Balance, b.ExportTotal-b.ImportTotal)
		}
		if b.Status != StatusOf(b.Balance) {
			t.Fatalf("group %s: status %s does not match sign of %v", b.Key, b.Status, b.Balance)
		}
		if i > 0 && balances[i-1].Balance > b.Balance {
			t.Fatalf("balances not sorted ascending at index %d", i)
		}
		balanceSum += b.Balance
	}

	// Additivity: the per-group balances decompose the global balance.
	global := globalExport - globalImport
	if math.Abs(balanceSum-global) > 1e-6*math.Abs(global) {
		t.Fatalf("sum of group balances %v != global balance %v", balanceSum, global)
	}
}

func TestBalancesTieBreakAlphabetical(t *testing.T) {
	totals := map[string]DirectionTotals{
		"Zinc":   {Import: 10, Export: 10},
		"Amber":  {Import: 5, Export: 5},
		"Copper": {Import: 1, Export: 1},
	}
	balances := Balances(totals)
	want := []string{"Amber", "Copper", "Zinc"}
	for i, b := range balances {
		if b.Key != want[i] {
			t.Fatalf("tie order: got %s at %d, want %s", b.Key, i, want[i])
		}
		if b.Status != Balanced {
			t.Fatalf("expected BALANCED, got %s", b.Status)
		}
	}
}

func TestLeaders(t *testing.T) {
	totals := map[string]DirectionTotals{}
	// Twelve sectors with balances -6..5.
	sectors := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}
	for i, s := range sectors {
		totals[s] = DirectionTotals{Export: float64(i - 6), Import: 0}
	}
	leaders := Leaders(Balances(totals), 5)
	if len(leaders) != 10 {
		t.Fatalf("expected 10 leaders, got %d", len(leaders))
	}
	if leaders[0].Balance != -6 || leaders[len(leaders)-1].Balance != 5 {
		t.Fatalf("unexpected extremes: %+v", leaders)
	}
	for i := 1; i < len(leaders); i++ {
		if leaders[i-1].Balance > leaders[i].Balance {
			t.Fatalf("leaders not ascending at %d", i)
		}
	}
}

func TestLeadersDeduplicatesSmallSets(t *testing.T) {
	totals := map[string]DirectionTotals{
		"A": {Export: 1},
		"B": {Export: 2},
		"C": {Export: 3},
	}
	leaders := Leaders(Balances(totals), 5)
	if len(leaders) != 3 {
		t.Fatalf("expected 3 unique leaders, got %d", len(leaders))
	}
	seen := map[string]bool{}
	for _, l := range leaders {
		if seen[l.Key] {
			t.Fatalf("duplicate key %s", l.Key)
		}
		seen[l.Key] = true
	}

	if got := Leaders(nil, 5); got != nil {
		t.Fatalf("empty input should yield nil, got %v", got)
	}
}

func TestRankByTotal(t *testing.T) {
	records := []TradeRecord{
		rec("A", "S", 2020, Import, 10),
		rec("B", "S", 2020, Export, 30),
		rec("C", "S", 2020, Import, 20),
	}
	got := RankByTotal(records, func(r TradeRecord) string { return r.Country }, 2, false)
	want := []KeyTotal{{Key: "B", Total: 30}, {Key: "C", Total: 20}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("descending top 2: got %v, want %v", got, want)
	}

	asc := RankByTotal(records, func(r TradeRecord) string { return r.Country }, 0, true)
	if asc[0].Key != "A" || asc[2].Key != "B" {
		t.Fatalf("ascending order wrong: %v", asc)
	}
}

func TestRankByTotalIgnoresDirection(t *testing.T) {
	records := []TradeRecord{
		rec("USA", "Electronics", 2020, Import, 10),
		rec("USA", "Electronics", 2020, Export, 15),
	}
	got := TopPartners(records, 15)
	if len(got) != 1 || got[0].Total != 25 {
		t.Fatalf("expected combined total 25, got %v", got)
	}
}

func TestSummarize(t *testing.T) {
	totals := map[string]DirectionTotals{
		"Machinery":   {Import: 100, Export: 40}, // -60
		"Textiles":    {Import: 50, Export: 20},  // -30
		"Electronics": {Import: 10, Export: 90},  // +80
		"Chemicals":   {Import: 30, Export: 30},  // 0
	}
	balances := Balances(totals)
	s := Summarize(balances)

	if s.DeficitCount != 2 || s.SurplusCount != 1 {
		t.Fatalf("counts = %d/%d, want 2/1", s.DeficitCount, s.SurplusCount)
	}
	if s.TotalDeficit != -90 || s.TotalSurplus != 80 {
		t.Fatalf("totals = %v/%v, want -90/80", s.TotalDeficit, s.TotalSurplus)
	}
	if s.WorstDeficit != "Machinery" || s.BestSurplus != "Electronics" {
		t.Fatalf("extremes = %s/%s", s.WorstDeficit, s.BestSurplus)
	}
	// The balanced group belongs to neither cohort.
	if s.DeficitCount+s.SurplusCount >= len(balances) {
		t.Fatalf("balanced group counted in a cohort")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.DeficitCount != 0 || s.SurplusCount != 0 {
		t.Fatalf("expected zero counts, got %+v", s)
	}
	if s.WorstDeficit != NoneSentinel || s.BestSurplus != NoneSentinel {
		t.Fatalf("expected None sentinels, got %q/%q", s.WorstDeficit, s.BestSurplus)
	}
}

func TestSummarizeCountBound(t *testing.T) {
	records := GenerateSample(11, 500)
	balances := SectorBalances(records)
	s := Summarize(balances)
	if s.DeficitCount+s.SurplusCount > len(balances) {
		t.Fatalf("cohort counts exceed group count")
	}
	balancedGroups := 0
	for _, b := range balances {
		if b.Status == Balanced {
			balancedGroups++
		}
	}
	if s.DeficitCount+s.SurplusCount+balancedGroups != len(balances) {
		t.Fatalf("cohorts plus balanced groups do not partition the set")
	}
}

func TestYearlySeries(t *testing.T) {
	records := []TradeRecord{
		rec("USA", "Electronics", 2021, Export, 5),
		rec("USA", "Electronics", 2019, Import, 1),
		rec("China", "Textiles", 2019, Export, 2),
		rec("China", "Textiles", 2021, Export, 3),
	}
	series := YearlySeries(records, true)
	if len(series) != 3 {
		t.Fatalf("expected 3 points, got %d", len(series))
	}
	if series[0].Year != 2019 || series[0].TradeType != Export || series[0].Total != 2 {
		t.Fatalf("first point %+v", series[0])
	}
	if series[2].Year != 2021 || series[2].TradeType != Export || series[2].Total != 8 {
		t.Fatalf("last point %+v", series[2])
	}

	folded := YearlySeries(records, false)
	if len(folded) != 2 || folded[0].Total != 3 || folded[1].Total != 8 {
		t.Fatalf("folded series %+v", folded)
	}
	for _, p := range folded {
		if p.TradeType != TradeType(AllSentinel) {
			t.Fatalf("folded point %+v should carry the All direction", p)
		}
	}
}

func TestComputeOverview(t *testing.T) {
	records := []TradeRecord{
		rec("USA", "Electronics", 2019, Export, 5),
		rec("China", "Textiles", 2022, Import, 10),
	}
	o := ComputeOverview(records)
	if o.TotalValue != 15 || o.Partners != 2 || o.Sectors != 2 || o.Records != 2 {
		t.Fatalf("overview %+v", o)
	}
	if o.MinYear != 2019 || o.MaxYear != 2022 {
		t.Fatalf("year bounds %d-%d", o.MinYear, o.MaxYear)
	}

	empty := ComputeOverview(nil)
	if empty.TotalValue != 0 || empty.Records != 0 || empty.MinYear != 0 {
		t.Fatalf("empty overview %+v", empty)
	}
}
