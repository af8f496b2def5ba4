package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldPeriod     = "period"
	FieldEntryID    = "entry_id"
	FieldLoanID     = "loan_id"
	FieldScheduleID = "schedule_id"
	FieldAmount     = "amount_cents"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentLedger   = "ledger"
	ComponentSchedule = "schedule"
	ComponentLoan     = "loan"
	ComponentReport   = "report"
	ComponentData     = "data"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
)
