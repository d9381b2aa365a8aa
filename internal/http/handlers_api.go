package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"tradeflow/internal/core"
)

// JSON views of the core types. The core package carries no serialization
// concerns; the wire shape lives here.
type balanceJSON struct {
	Key         string  `json:"key"`
	ImportTotal float64 `json:"import_total"`
	ExportTotal float64 `json:"export_total"`
	Balance     float64 `json:"balance"`
	Status      string  `json:"status"`
}

type rankJSON struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
}

type seriesJSON struct {
	Year      int     `json:"year"`
	TradeType string  `json:"trade_type"`
	Total     float64 `json:"total"`
}

func toBalanceJSON(balances []core.GroupBalance) []balanceJSON {
	out := make([]balanceJSON, 0, len(balances))
	for _, b := range balances {
		out = append(out, balanceJSON{
			Key:         b.Key,
			ImportTotal: b.ImportTotal,
			ExportTotal: b.ExportTotal,
			Balance:     b.Balance,
			Status:      string(b.Status),
		})
	}
	return out
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// handleSectorBalances serves the deficit/surplus leaders chart: the five
// most negative and five most positive sector balances.
func (s *Server) handleSectorBalances(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	f := parseFilters(r)
	key := "sector-leaders|" + f.Key()
	if data, found := s.balanceCache.Get(key); found {
		writeJSON(w, r, http.StatusOK, toBalanceJSON(data))
		return
	}

	balances, err := s.sectorBalances(r.Context(), f)
	if err != nil {
		slog.ErrorContext(r.Context(), "Sector balances error", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "dataset unavailable"})
		return
	}

	leaders := core.Leaders(balances, 5)
	s.balanceCache.Set(key, leaders)
	writeJSON(w, r, http.StatusOK, toBalanceJSON(leaders))
}

// handleYearlyBalances serves per-year balances for the yearly bar chart.
func (s *Server) handleYearlyBalances(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	f := parseFilters(r)
	key := "yearly|" + f.Key()
	if data, found := s.balanceCache.Get(key); found {
		writeJSON(w, r, http.StatusOK, toBalanceJSON(data))
		return
	}

	snap, err := s.loader.Snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "dataset unavailable"})
		return
	}

	balances := core.YearlyBalances(f.Apply(snap.Records))
	s.balanceCache.Set(key, balances)
	writeJSON(w, r, http.StatusOK, toBalanceJSON(balances))
}

// parseTop reads the ?top=N parameter, clamped to [1, 100].
func parseTop(r *http.Request, fallback int) int {
	v := strings.TrimSpace(r.URL.Query().Get("top"))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	if n > 100 {
		return 100
	}
	return n
}

func (s *Server) rankedTotals(ctx context.Context, prefix string, f filters, top int, rank func([]core.TradeRecord, int) []core.KeyTotal) ([]core.KeyTotal, error) {
	key := prefix + "|" + strconv.Itoa(top) + "|" + f.Key()
	if data, found := s.rankCache.Get(key); found {
		return data, nil
	}

	snap, err := s.loader.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	totals := rank(f.Apply(snap.Records), top)
	s.rankCache.Set(key, totals)
	return totals, nil
}

// handlePartners serves the top trading partners by total value.
func (s *Server) handlePartners(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	totals, err := s.rankedTotals(r.Context(), "partners", parseFilters(r), parseTop(r, 15), core.TopPartners)
	if err != nil {
		slog.ErrorContext(r.Context(), "Partners error", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "dataset unavailable"})
		return
	}

	out := make([]rankJSON, 0, len(totals))
	for _, t := range totals {
		out = append(out, rankJSON{Key: t.Key, Total: t.Total})
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleCommodities serves the top commodities by total value.
func (s *Server) handleCommodities(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	totals, err := s.rankedTotals(r.Context(), "commodities", parseFilters(r), parseTop(r, 10), core.TopCommodities)
	if err != nil {
		slog.ErrorContext(r.Context(), "Commodities error", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "dataset unavailable"})
		return
	}

	out := make([]rankJSON, 0, len(totals))
	for _, t := range totals {
		out = append(out, rankJSON{Key: t.Key, Total: t.Total})
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleTrends serves the yearly trend series, split by direction, with the
// usual country/commodity allow-lists applied first.
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	f := parseFilters(r)
	key := "trends|" + f.Key()

	series, found := s.seriesCache.Get(key)
	if !found {
		snap, err := s.loader.Snapshot(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Snapshot error", "error", err)
			writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "dataset unavailable"})
			return
		}
		series = core.YearlySeries(f.Apply(snap.Records), true)
		s.seriesCache.Set(key, series)
	}

	out := make([]seriesJSON, 0, len(series))
	for _, p := range series {
		out = append(out, seriesJSON{Year: p.Year, TradeType: string(p.TradeType), Total: p.Total})
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleRefresh drops the dataset snapshot and all computed views so the
// next request re-reads the source.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	flushed := s.InvalidateViews()
	slog.InfoContext(r.Context(), "Dataset refresh requested", "views_flushed", flushed)

	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":        "ok",
		"views_flushed": flushed,
	})
}
