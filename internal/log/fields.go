package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldReceiptID     = "receipt_id"
	FieldReceiptsCount = "receipts_count"
	FieldTotal         = "total"
	FieldDelivery      = "delivery"
	FieldScreen        = "screen"
)

// Components
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentLedger     = "ledger"
	ComponentSubmission = "submission"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentSecurity   = "security"
	ComponentBackend    = "backend"
	ComponentTemplate   = "template"
)

// Operations
const (
	OpCapture  = "capture"
	OpSubmit   = "submit"
	OpNavigate = "navigate"
	OpSave     = "save"
	OpToggle   = "toggle"
	OpExport   = "export"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields builds slog key/value pairs.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithSubmission adds the fields describing one sent expense.
func (f LogFields) WithSubmission(receipts int, total, delivery string) LogFields {
	f[FieldReceiptsCount] = receipts
	f[FieldTotal] = total
	f[FieldDelivery] = delivery
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
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
