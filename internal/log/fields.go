package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldRecordID    = "record_id"
	FieldRecordName  = "record_name"
	FieldAmount      = "amount"
	FieldNextDueDate = "next_due_date"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldCount       = "count"
	FieldBackend     = "backend"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentBilling  = "billing"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentDigest   = "digest"
	ComponentBackend  = "backend"
	ComponentTUI      = "tui"
	ComponentNotifier = "notifier"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpMarkPaid = "mark_paid"
	OpLoad     = "load"
	OpSave     = "save"
	OpPublish  = "publish"
	OpDigest   = "digest"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation  = "validation_error"
	ErrorTypeNotFound    = "not_found_error"
	ErrorTypePersistence = "persistence_error"
	ErrorTypeNetwork     = "network_error"
	ErrorTypeInternal    = "internal_error"
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

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRecord adds record identity fields
func (f LogFields) WithRecord(id int, name string) LogFields {
	f[FieldRecordID] = id
	f[FieldRecordName] = name
	return f
}

// WithDue adds the amount and next due date of a record
func (f LogFields) WithDue(amount, nextDueDate string) LogFields {
	f[FieldAmount] = amount
	f[FieldNextDueDate] = nextDueDate
	return f
}

// WithPeriod adds month and year fields
func (f LogFields) WithPeriod(month, year int) LogFields {
	f[FieldMonth] = month
	f[FieldYear] = year
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
