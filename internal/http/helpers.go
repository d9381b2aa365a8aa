package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"tradeflow/internal/core"
	"tradeflow/internal/log"
)

// filters holds the common query parameters shared by every data endpoint.
// Empty Countries/Sectors, or lists containing "All", disable filtering on
// that dimension.
type filters struct {
	YearMin   int
	YearMax   int
	Types     []core.TradeType
	Countries []string
	Sectors   []string
}

// Year bounds used when the client sends none; wide enough to pass every
// plausible record year.
const (
	defaultYearMin = 0
	defaultYearMax = 9999
)

// parseFilters extracts the common filter parameters from the request.
// Invalid values fall back to defaults rather than failing the request.
func parseFilters(r *http.Request) filters {
	q := r.URL.Query()

	f := filters{
		YearMin: defaultYearMin,
		YearMax: defaultYearMax,
	}
	if v := strings.TrimSpace(q.Get("year_min")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			f.YearMin = y
		}
	}
	if v := strings.TrimSpace(q.Get("year_max")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			f.YearMax = y
		}
	}

	for _, v := range q["type"] {
		switch t := core.TradeType(strings.TrimSpace(v)); {
		case t.Valid():
			f.Types = append(f.Types, t)
		case string(t) == core.AllSentinel:
			f.Types = []core.TradeType{core.Import, core.Export}
		}
	}
	if len(f.Types) == 0 {
		f.Types = []core.TradeType{core.Import, core.Export}
	}

	f.Countries = cleanList(q["country"])
	f.Sectors = cleanList(q["commodity"])

	return f
}

func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Apply narrows records to the filter window and allow-lists. Pure; the
// input slice is never mutated.
func (f filters) Apply(records []core.TradeRecord) []core.TradeRecord {
	out := core.Filter(records, f.YearMin, f.YearMax, f.Types)
	return core.FilterByDimensions(out, f.Countries, f.Sectors)
}

func typeStrings(types []core.TradeType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// Key is the canonical cache key for this filter combination. List order is
// normalized so equivalent filters share an entry.
func (f filters) Key() string {
	types := typeStrings(f.Types)
	sort.Strings(types)

	countries := append([]string(nil), f.Countries...)
	sort.Strings(countries)
	sectors := append([]string(nil), f.Sectors...)
	sort.Strings(sectors)

	return strconv.Itoa(f.YearMin) + "-" + strconv.Itoa(f.YearMax) +
		"|" + strings.Join(types, ",") +
		"|" + strings.Join(countries, ",") +
		"|" + strings.Join(sectors, ",")
}

// formatUSD renders a value as a compact dollar figure for metric cards,
// e.g. "$1.25B" or "$340.00K".
func formatUSD(value float64) string {
	neg := value < 0
	if neg {
		value = -value
	}
	var s string
	switch {
	case value >= 1e9:
		s = fmt.Sprintf("$%.2fB", value/1e9)
	case value >= 1e6:
		s = fmt.Sprintf("$%.2fM", value/1e6)
	case value >= 1e3:
		s = fmt.Sprintf("$%.2fK", value/1e3)
	default:
		s = fmt.Sprintf("$%.2f", value)
	}
	if neg {
		return "-" + s
	}
	return s
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode JSON response", "error", err, log.FieldPath, r.URL.Path)
	}
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
