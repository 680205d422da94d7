package log

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldQuery          = "query"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldUserAgent      = "user_agent"
	FieldReferer        = "referer"
	FieldSuccess        = "success"
	FieldError          = "error"
	FieldErrorType      = "error_type"
	FieldOperation      = "operation"
	FieldOwnerID        = "owner_id"
	FieldEventID        = "event_id"
	FieldCategoryID     = "category_id"
	FieldExpenseID      = "expense_id"
	FieldPaymentID      = "payment_id"
	FieldAmountCents    = "amount_cents"
	FieldBudgetedCents  = "budgeted_cents"
	FieldScheduledCents = "scheduled_cents"
	FieldSpentCents     = "spent_cents"
	FieldActor          = "actor"
	FieldURL            = "url"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentTotals      = "totals"
	ComponentEvents      = "events"
	ComponentCategories  = "categories"
	ComponentExpenses    = "expenses"
	ComponentPayments    = "payments"
	ComponentStorage     = "storage"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentSheets      = "sheets"
	ComponentCache       = "cache"
	ComponentAttachments = "attachments"
	ComponentBackend     = "backend"
	ComponentCLI         = "cli"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpRecompute = "recompute"
	OpPublish   = "publish"
	OpExport    = "export"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeConflict      = "conflict_error"
	ErrorTypeInternal      = "internal_error"
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

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
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

// WithEvent adds the owner and event ids
func (f LogFields) WithEvent(ownerID, eventID string) LogFields {
	f[FieldOwnerID] = ownerID
	f[FieldEventID] = eventID
	return f
}

// WithCategory adds the category id
func (f LogFields) WithCategory(categoryID string) LogFields {
	f[FieldCategoryID] = categoryID
	return f
}

// WithExpense adds the expense id and its amount
func (f LogFields) WithExpense(expenseID string, amountCents int64) LogFields {
	f[FieldExpenseID] = expenseID
	f[FieldAmountCents] = amountCents
	return f
}

// WithPayment adds the payment id
func (f LogFields) WithPayment(paymentID string) LogFields {
	f[FieldPaymentID] = paymentID
	return f
}

// WithTotals adds the three aggregate amounts in cents
func (f LogFields) WithTotals(budgeted, scheduled, spent int64) LogFields {
	f[FieldBudgetedCents] = budgeted
	f[FieldScheduledCents] = scheduled
	f[FieldSpentCents] = spent
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	f[FieldReferer] = referer
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// Merge copies other into f
func (f LogFields) Merge(other LogFields) LogFields {
	for k, v := range other {
		f[k] = v
	}
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
