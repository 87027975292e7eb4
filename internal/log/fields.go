package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldEndpoint      = "endpoint"
	FieldCacheKey      = "cache_key"
	FieldCacheHit      = "cache_hit"
	FieldPage          = "page"
	FieldNextPage      = "next_page"
	FieldCount         = "count"
	FieldEmployeeID    = "employee_id"
	FieldTransactionID = "transaction_id"
	FieldApproved      = "approved"
	FieldMode          = "mode"
	FieldEpoch         = "epoch"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentFetch    = "fetch"
	ComponentFeed     = "feed"
	ComponentApproval = "approval"
	ComponentView     = "view"
	ComponentAPI      = "api"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpFetch      = "fetch"
	OpInvalidate = "invalidate"
	OpSelect     = "select"
	OpLoadMore   = "load_more"
	OpApprove    = "approve"
	OpMigrate    = "migrate"
	OpPublish    = "publish"
	OpConsume    = "consume"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRequest adds transport request fields
func (f LogFields) WithRequest(endpoint, cacheKey string) LogFields {
	f[FieldEndpoint] = endpoint
	if cacheKey != "" {
		f[FieldCacheKey] = cacheKey
	}
	return f
}

// WithApproval adds approval mutation fields
func (f LogFields) WithApproval(transactionID string, approved bool) LogFields {
	f[FieldTransactionID] = transactionID
	f[FieldApproved] = approved
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, clientIP string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldClientIP] = clientIP
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
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
