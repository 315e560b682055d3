package log

// Field names used across the structured logs.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldKind       = "kind"
	FieldRecordID   = "record_id"
	FieldVersion    = "version"
	FieldMonth      = "month"
	FieldCategory   = "category"
	FieldAmount     = "amount"
	FieldMessageID  = "message_id"
	FieldBackend    = "backend"
	FieldView       = "view"
)

const (
	ComponentApp    = "app"
	ComponentLedger = "ledger"
	ComponentStore  = "store"
	ComponentReport = "report"
	ComponentCache  = "cache"
	ComponentAMQP   = "amqp"
	ComponentWorker = "worker"
	ComponentSheets = "sheets"
	ComponentHTTP   = "http"
	ComponentCLI    = "cli"
)

const (
	OpLoad       = "load"
	OpCreate     = "create"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpContribute = "contribute"
	OpPublish    = "publish"
	OpConsume    = "consume"
	OpMirror     = "mirror"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)

// Fields collects key/value pairs for one log line.
type Fields map[string]any

func NewFields() Fields { return make(Fields) }

func (f Fields) Operation(op string) Fields {
	f[FieldOperation] = op
	return f
}

func (f Fields) Record(kind, id string) Fields {
	f[FieldKind] = kind
	f[FieldRecordID] = id
	return f
}

func (f Fields) Version(v uint64) Fields {
	f[FieldVersion] = v
	return f
}

func (f Fields) Err(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// Args flattens the fields for slog.
func (f Fields) Args() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
