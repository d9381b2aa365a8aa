// Package memory provides an in-memory record source backed by the
// deterministic synthetic sample, optionally seeded from a CSV file.
package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"tradeflow/internal/core"
)

type Store struct {
	mu      sync.Mutex
	records []core.TradeRecord
	id      string
}

// New creates a store over a fixed record slice.
func New(id string, records []core.TradeRecord) *Store {
	return &Store{id: id, records: records}
}

// NewSynthetic creates a store over the seeded synthetic sample.
func NewSynthetic() *Store {
	return New("synthetic", core.DefaultSample())
}

// NewFromFiles seeds the store from <base>/trade_records.csv when present,
// falling back to the synthetic sample otherwise.
func NewFromFiles(base string) *Store {
	path := filepath.Join(base, "trade_records.csv")
	records, err := readCSV(path)
	if err != nil || len(records) == 0 {
		if err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to read seed CSV, using synthetic sample", "path", path, "error", err)
		}
		return NewSynthetic()
	}
	return New("csv:"+path, records)
}

// LoadRecords implements source.RecordReader.
func (s *Store) LoadRecords(_ context.Context, limit int) ([]core.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]core.TradeRecord, n)
	copy(out, s.records[:n])
	return out, nil
}

// AppendRecords implements source.RecordWriter.
func (s *Store) AppendRecords(_ context.Context, records []core.TradeRecord) error {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// SourceID implements source.Identifier.
func (s *Store) SourceID() string {
	return s.id
}

// ParseCSVRecords parses trade records from CSV content with a header row
// (country, hs_section, hs_code, commodity, year, trade_type, value_usd).
// Malformed rows are skipped with a warning rather than failing the load.
func ParseCSVRecords(r io.Reader) ([]core.TradeRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"country", "hs_section", "year", "trade_type", "value_usd"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	get := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var out []core.TradeRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			slog.Warn("Skipping malformed CSV row", "line", line, "error", err)
			continue
		}
		year, err := strconv.Atoi(get(row, "year"))
		if err != nil {
			slog.Warn("Skipping row with bad year", "line", line, "year", get(row, "year"))
			continue
		}
		value, err := strconv.ParseFloat(get(row, "value_usd"), 64)
		if err != nil {
			slog.Warn("Skipping row with bad value", "line", line, "value_usd", get(row, "value_usd"))
			continue
		}
		rec := core.TradeRecord{
			Country:   get(row, "country"),
			HSSection: get(row, "hs_section"),
			HSCode:    get(row, "hs_code"),
			Commodity: get(row, "commodity"),
			Year:      year,
			TradeType: core.TradeType(get(row, "trade_type")),
			ValueUSD:  value,
		}
		if err := rec.Validate(); err != nil {
			slog.Warn("Skipping invalid row", "line", line, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func readCSV(path string) ([]core.TradeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCSVRecords(f)
}
