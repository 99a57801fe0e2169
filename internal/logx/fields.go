package logx

const (
	FieldDealID         = "deal-id"
	FieldDurationMs     = "duration-ms"
	FieldError          = "error"
	FieldEvent          = "event"
	FieldHTTPMethod     = "http-method"
	FieldIP             = "ip"
	FieldRequestBody    = "request-body"
	FieldResponseStatus = "response-status"
	FieldRoute          = "route"
	FieldStack          = "stack"
	FieldTable          = "table"
	FieldTraceID        = "trace-id"
	FieldURL            = "url"
	FieldUserID         = "user-id"
)
