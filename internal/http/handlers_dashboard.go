package http

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	"tradeflow/internal/core"
	"tradeflow/internal/log"
)

// handleDashboard renders the main dashboard page with filter controls.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	snap, err := s.loader.Snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err)
		http.Error(w, "dataset unavailable", http.StatusInternalServerError)
		return
	}

	ov := core.ComputeOverview(snap.Records)
	countries, sectors := distinctDimensions(snap.Records)

	data := struct {
		YearMin   int
		YearMax   int
		Years     []int
		Countries []string
		Sectors   []string
		Fallback  bool
	}{
		YearMin:   ov.MinYear,
		YearMax:   ov.MaxYear,
		Countries: countries,
		Sectors:   sectors,
		Fallback:  snap.Fallback,
	}
	for y := ov.MinYear; y <= ov.MaxYear; y++ {
		data.Years = append(data.Years, y)
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Dashboard template execution failed", "error", err, log.FieldOperation, log.OpRender, "template", "dashboard.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// distinctDimensions returns the sorted distinct countries and sectors of a
// record set, for populating the filter multi-selects.
func distinctDimensions(records []core.TradeRecord) (countries, sectors []string) {
	countrySet := make(map[string]bool)
	sectorSet := make(map[string]bool)
	for _, r := range records {
		countrySet[r.Country] = true
		sectorSet[r.HSSection] = true
	}
	for c := range countrySet {
		countries = append(countries, c)
	}
	for s := range sectorSet {
		sectors = append(sectors, s)
	}
	sort.Strings(countries)
	sort.Strings(sectors)
	return countries, sectors
}

// handleOverview renders the metric cards partial.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	snap, err := s.loader.Snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err)
		_, _ = w.Write([]byte(`<section id="overview" class="overview"><div class="placeholder">Error loading overview</div></section>`))
		return
	}

	f := parseFilters(r)
	ov := core.ComputeOverview(f.Apply(snap.Records))

	data := struct {
		TotalValue string
		Partners   int
		Sectors    int
		Records    int
		MinYear    int
		MaxYear    int
		Fallback   bool
		SourceID   string
	}{
		TotalValue: formatUSD(ov.TotalValue),
		Partners:   ov.Partners,
		Sectors:    ov.Sectors,
		Records:    ov.Records,
		MinYear:    ov.MinYear,
		MaxYear:    ov.MaxYear,
		Fallback:   snap.Fallback,
		SourceID:   snap.SourceID,
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="overview" class="overview"><div class="placeholder">Total: ` + data.TotalValue + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "overview.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, log.FieldOperation, log.OpRender, "template", "overview.html")
		_, _ = w.Write([]byte(`<section id="overview" class="overview"><div class="placeholder">Error rendering overview</div></section>`))
	}
}

// sectorBalances computes (or serves cached) per-sector balances for a
// filter combination, sorted ascending by balance.
func (s *Server) sectorBalances(ctx context.Context, f filters) ([]core.GroupBalance, error) {
	key := "sector|" + f.Key()
	if data, found := s.balanceCache.Get(key); found {
		slog.DebugContext(ctx, "Balance cache hit", "key", key)
		return data, nil
	}

	snap, err := s.loader.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	fields := log.NewFields().
		WithOperation(log.OpAggregate).
		WithFilter(f.YearMin, f.YearMax, typeStrings(f.Types))
	fields[log.FieldCountry] = f.Countries
	fields[log.FieldSector] = f.Sectors
	slog.DebugContext(ctx, "Computing sector balances", fields.ToSlice()...)
	balances := core.SectorBalances(f.Apply(snap.Records))
	s.balanceCache.Set(key, balances)
	return balances, nil
}

type balanceRow struct {
	Key     string
	Import  string
	Export  string
	Balance string
	Status  core.BalanceStatus
}

func balanceRows(balances []core.GroupBalance) []balanceRow {
	rows := make([]balanceRow, 0, len(balances))
	for _, b := range balances {
		rows = append(rows, balanceRow{
			Key:     b.Key,
			Import:  formatUSD(b.ImportTotal),
			Export:  formatUSD(b.ExportTotal),
			Balance: formatUSD(b.Balance),
			Status:  b.Status,
		})
	}
	return rows
}

// handleBalanceTable renders the full sector balance table partial.
func (s *Server) handleBalanceTable(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	balances, err := s.sectorBalances(r.Context(), parseFilters(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Balance table error", "error", err)
		_, _ = w.Write([]byte(`<section id="balance-table"><div class="placeholder">Error loading balances</div></section>`))
		return
	}

	data := struct {
		Rows []balanceRow
	}{Rows: balanceRows(balances)}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="balance-table"><div class="placeholder">No template</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "balance_table.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, log.FieldOperation, log.OpRender, "template", "balance_table.html")
		_, _ = w.Write([]byte(`<section id="balance-table"><div class="placeholder">Error rendering balances</div></section>`))
	}
}

// handleSummary renders the deficit/surplus summary partial with the key
// insights row.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	f := parseFilters(r)
	balances, err := s.sectorBalances(r.Context(), f)
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary error", "error", err)
		_, _ = w.Write([]byte(`<section id="summary"><div class="placeholder">Error loading summary</div></section>`))
		return
	}
	summary := core.Summarize(balances)

	snap, err := s.loader.Snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err)
		_, _ = w.Write([]byte(`<section id="summary"><div class="placeholder">Error loading summary</div></section>`))
		return
	}
	filtered := f.Apply(snap.Records)

	var overall float64
	for _, b := range balances {
		overall += b.Balance
	}

	topPartner := core.NoneSentinel
	if partners := core.TopPartners(filtered, 1); len(partners) > 0 {
		topPartner = partners[0].Key
	}
	topCommodity := core.NoneSentinel
	if commodities := core.TopCommodities(filtered, 1); len(commodities) > 0 {
		topCommodity = commodities[0].Key
	}

	data := struct {
		DeficitCount  int
		SurplusCount  int
		TotalDeficit  string
		TotalSurplus  string
		WorstDeficit  string
		BestSurplus   string
		OverallLabel  string
		Overall       string
		TopPartner    string
		TopCommodity  string
	}{
		DeficitCount: summary.DeficitCount,
		SurplusCount: summary.SurplusCount,
		TotalDeficit: formatUSD(summary.TotalDeficit),
		TotalSurplus: formatUSD(summary.TotalSurplus),
		WorstDeficit: summary.WorstDeficit,
		BestSurplus:  summary.BestSurplus,
		OverallLabel: string(core.StatusOf(overall)),
		Overall:      formatUSD(overall),
		TopPartner:   topPartner,
		TopCommodity: topCommodity,
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="summary"><div class="placeholder">Overall: ` + data.Overall + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "summary.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, log.FieldOperation, log.OpRender, "template", "summary.html")
		_, _ = w.Write([]byte(`<section id="summary"><div class="placeholder">Error rendering summary</div></section>`))
	}
}
