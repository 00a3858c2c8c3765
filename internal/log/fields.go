package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldSession     = "session_id"
	FieldCollection  = "collection"
	FieldIndex       = "index"
	FieldID          = "id"
	FieldCount       = "count"
	FieldCategoryID  = "category_id"
	FieldCategory    = "category"
	FieldType        = "type"
	FieldAmount      = "amount"
	FieldMonth       = "month"
	FieldYear        = "year"
	FieldVersion     = "schema_version"
	FieldPath        = "path"
	FieldEvent       = "event"
	FieldSubscribers = "subscribers"
	FieldOperation   = "operation"
	FieldError       = "error"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentStorage    = "storage"
	ComponentReport     = "report"
	ComponentController = "controller"
	ComponentEvents     = "events"
	ComponentServices   = "services"
	ComponentCache      = "cache"
	ComponentCLI        = "cli"
)

// Operations defines standard operation names
const (
	OpCreate  = "create"
	OpRead    = "read"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpList    = "list"
	OpSeed    = "seed"
	OpReset   = "reset"
	OpCascade = "cascade"
	OpRender  = "render"
	OpOpen    = "open"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
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

// WithPeriod adds the month and year a screen or report is filtered on
func (f LogFields) WithPeriod(month, year int) LogFields {
	f[FieldMonth] = month
	f[FieldYear] = year
	return f
}

func (f LogFields) WithRecord(collection string, id int64) LogFields {
	f[FieldCollection] = collection
	f[FieldID] = id
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
