package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldErrorType = "error_type"
	FieldDuration  = "duration_ms"
	FieldCacheKey  = "cache_key"
	FieldCacheHit  = "cache_hit"
	FieldTicker    = "ticker"
	FieldURL       = "url"
	FieldStatus    = "status_code"
	FieldCount     = "count"
	FieldStage     = "stage"
	FieldPath      = "path"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentCache    = "cache"
	ComponentStorage  = "storage"
	ComponentGateway  = "gateway"
	ComponentRanking  = "ranking"
	ComponentExport   = "export"
	ComponentSheets   = "sheets"
	ComponentAMQP     = "amqp"
	ComponentMetrics  = "metrics"
	ComponentCLI      = "cli"
	ComponentServices = "services"
)

// Operations defines standard operation names
const (
	OpGet     = "get"
	OpSet     = "set"
	OpSweep   = "sweep"
	OpClear   = "clear"
	OpFetch   = "fetch"
	OpParse   = "parse"
	OpRank    = "rank"
	OpExport  = "export"
	OpPublish = "publish"
	OpStartup = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeDataFormat    = "data_format_error"
	ErrorTypeDeserialize   = "cache_deserialization_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeAuth          = "auth_unavailable"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeConfiguration = "configuration_error"
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

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(t string) LogFields {
	f[FieldErrorType] = t
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithCache adds cache lookup fields
func (f LogFields) WithCache(key string, hit bool) LogFields {
	f[FieldCacheKey] = key
	f[FieldCacheHit] = hit
	return f
}

// WithTicker adds the fund ticker
func (f LogFields) WithTicker(ticker string) LogFields {
	f[FieldTicker] = ticker
	return f
}

// WithStage adds a pipeline stage and the number of funds left after it
func (f LogFields) WithStage(stage string, count int) LogFields {
	f[FieldStage] = stage
	f[FieldCount] = count
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
