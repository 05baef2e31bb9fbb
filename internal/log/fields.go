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
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldBillID      = "bill_id"
	FieldDraftID     = "draft_id"
	FieldEmail       = "employee_email"
	FieldBillType    = "bill_type"
	FieldAmountCents = "amount_cents"
	FieldFileName    = "file_name"
	FieldContentType = "content_type"
	FieldState       = "state"
	FieldErrorClass  = "error_class"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentWorkflow  = "new_bill"
	ComponentStorage   = "storage"
	ComponentAPI       = "bills_api"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentSession   = "session"
	ComponentBackend   = "backend"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpChangeFile = "change_file"
	OpSubmit     = "submit"
	OpList       = "list"
	OpExport     = "export"
	OpPublish    = "publish"
	OpRender     = "render"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
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

// WithBill adds the identifying fields of a bill.
func (f LogFields) WithBill(id, email, billType string, amountCents int64, fileName string) LogFields {
	if id != "" {
		f[FieldBillID] = id
	}
	f[FieldEmail] = email
	f[FieldBillType] = billType
	f[FieldAmountCents] = amountCents
	f[FieldFileName] = fileName
	return f
}

// WithHTTP adds request and response fields.
func (f LogFields) WithHTTP(method, path string, statusCode int, durationMs int64) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
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
