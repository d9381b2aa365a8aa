package log

import (
	"errors"
	"testing"
)

func TestLogFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentDataset).
		WithOperation(OpLoad).
		WithError(errors.New("boom"))

	if f[FieldComponent] != ComponentDataset {
		t.Errorf("component = %v", f[FieldComponent])
	}
	if f[FieldOperation] != OpLoad {
		t.Errorf("operation = %v", f[FieldOperation])
	}
	if f[FieldError] != "boom" {
		t.Errorf("error = %v", f[FieldError])
	}
}

func TestLogFieldsWithErrorNil(t *testing.T) {
	f := NewFields().WithError(nil)
	if _, ok := f[FieldError]; ok {
		t.Error("nil error should not add a field")
	}
}

func TestLogFieldsWithFilter(t *testing.T) {
	f := NewFields().WithFilter(2019, 2022, []string{"Import", "Export"})
	if f[FieldYearMin] != 2019 || f[FieldYearMax] != 2022 {
		t.Errorf("year window = %v..%v", f[FieldYearMin], f[FieldYearMax])
	}
	types, ok := f[FieldTradeType].([]string)
	if !ok || len(types) != 2 {
		t.Errorf("trade types = %v", f[FieldTradeType])
	}
}

func TestLogFieldsWithDataset(t *testing.T) {
	f := NewFields().WithDataset("sqlite:data/trade.db", 5000, true)
	if f[FieldSource] != "sqlite:data/trade.db" {
		t.Errorf("source = %v", f[FieldSource])
	}
	if f[FieldRecordCount] != 5000 {
		t.Errorf("record count = %v", f[FieldRecordCount])
	}
	if f[FieldFallback] != true {
		t.Errorf("fallback = %v", f[FieldFallback])
	}
}

func TestLogFieldsToSlice(t *testing.T) {
	f := NewFields().WithOperation(OpRefresh).WithComponent(ComponentHTTP)
	slice := f.ToSlice()
	if len(slice) != 4 {
		t.Fatalf("slice length = %d, want 4", len(slice))
	}
	// Keys sit at even indices
	for i := 0; i < len(slice); i += 2 {
		if _, ok := slice[i].(string); !ok {
			t.Errorf("slice[%d] = %v, want a string key", i, slice[i])
		}
	}
}
