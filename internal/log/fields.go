package log

// Field names shared across components.
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
	FieldFarmerID    = "farmer_id"
	FieldOwnerID     = "owner_id"
	FieldMachineID   = "machine_id"
	FieldDealerID    = "dealer_id"
	FieldJobID       = "job_id"
	FieldRentalID    = "rental_id"
	FieldPaymentID   = "payment_id"
	FieldAmountCents = "amount_cents"
	FieldDeltaCents  = "delta_cents"
	FieldVillage     = "village"
	FieldEntityKind  = "entity_kind"
	FieldEntityID    = "entity_id"
)

// Standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentReconcile = "reconcile"
	ComponentSheets    = "sheets"
	ComponentExport    = "export"
)

// Standard operation names.
const (
	OpCreate    = "create"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpReconcile = "reconcile"
	OpMirror    = "mirror"
	OpExport    = "export"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
