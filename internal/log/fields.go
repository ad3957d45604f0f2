package log

import (
	"maps"
	"slices"
)

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldCommand   = "command"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldErrorType = "error_type"
	FieldPath      = "path"
	FieldCount     = "count"

	FieldExpenseID = "id"
	FieldAmount    = "amount"
	FieldCategory  = "category"
	FieldNote      = "note"
	FieldDate      = "date"

	FieldExchange   = "exchange"
	FieldRoutingKey = "routing_key"
	FieldEventType  = "event_type"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentExpense = "expense"
	ComponentStorage = "storage"
	ComponentExport  = "export"
	ComponentAMQP    = "amqp"
)

// Operations defines standard operation names
const (
	OpAdd     = "add"
	OpList    = "list"
	OpDelete  = "delete"
	OpExport  = "export"
	OpLoad    = "load"
	OpSave    = "save"
	OpMigrate = "migrate"
	OpPublish = "publish"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeStorage       = "storage_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
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

// WithErrorType adds error type field
func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithPath adds path field
func (f LogFields) WithPath(path string) LogFields {
	f[FieldPath] = path
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(id int64, amount, category, note, date string) LogFields {
	f[FieldExpenseID] = id
	f[FieldAmount] = amount
	f[FieldCategory] = category
	f[FieldNote] = note
	f[FieldDate] = date
	return f
}

// ToSlice converts LogFields to a slice for slog, keys in sorted order
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for _, k := range slices.Sorted(maps.Keys(f)) {
		slice = append(slice, k, f[k])
	}
	return slice
}
