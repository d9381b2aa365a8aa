package google

import (
	"fmt"
	"strconv"
	"strings"

	"tradeflow/internal/core"
)

// parseRecords converts a values matrix (as returned by the Sheets API) into
// trade records. The first row must be a header containing the expected
// column names in any order. Rows that fail to parse or validate are counted
// as skipped rather than failing the whole load.
func parseRecords(values [][]interface{}) ([]core.TradeRecord, int, error) {
	if len(values) == 0 {
		return nil, 0, nil
	}

	headers := toStrings(values[0])
	cols := make(map[string]int, len(headers))
	for i, h := range headers {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, required := range recordHeader {
		if _, ok := cols[required]; !ok && required != "hs_code" && required != "commodity" {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("unexpected header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	get := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var records []core.TradeRecord
	skipped := 0
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		year, err := strconv.Atoi(get(row, "year"))
		if err != nil {
			skipped++
			continue
		}
		value, err := parseUSD(get(row, "value_usd"))
		if err != nil {
			skipped++
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
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

// parseUSD accepts plain floats plus the formatting Sheets tends to add:
// leading $, thousands separators, surrounding whitespace.
func parseUSD(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(s, 64)
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = fmt.Sprint(v)
	}
	return out
}
