package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldBackend     = "backend"
	FieldSource      = "source"
	FieldYearMin     = "year_min"
	FieldYearMax     = "year_max"
	FieldTradeType   = "trade_type"
	FieldCountry     = "country"
	FieldSector      = "hs_section"
	FieldRecordCount = "record_count"
	FieldFallback    = "fallback"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentDataset = "dataset"
	ComponentIngest  = "ingest"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpLoad       = "load"
	OpAppend     = "append"
	OpAggregate  = "aggregate"
	OpRender     = "render"
	OpRefresh    = "refresh"
	OpPublish    = "publish"
	OpConsume    = "consume"
	OpMirror     = "mirror"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
	OpValidate   = "validate"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithFilter adds the common filter-window fields
func (f LogFields) WithFilter(yearMin, yearMax int, tradeTypes []string) LogFields {
	f[FieldYearMin] = yearMin
	f[FieldYearMax] = yearMax
	f[FieldTradeType] = tradeTypes
	return f
}

// WithDataset adds dataset provenance fields
func (f LogFields) WithDataset(source string, records int, fallback bool) LogFields {
	f[FieldSource] = source
	f[FieldRecordCount] = records
	f[FieldFallback] = fallback
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
