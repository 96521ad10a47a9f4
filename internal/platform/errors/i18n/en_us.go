package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeMalformedInput    = "MALFORMED_INPUT"
	CodeInvalidFilter     = "INVALID_FILTER"
	CodeInvalidArgument   = "INVALID_ARGUMENT"
	CodeTickUnreachable   = "TICK_UNREACHABLE"
	CodeTotalTicksUnknown = "TOTAL_TICKS_UNKNOWN"
	CodeNoRecordingLoaded = "NO_RECORDING_LOADED"
	CodeNotFound          = "NOT_FOUND"
	CodeInternal          = "INTERNAL"
)

var enUSCatalog = &Catalog{
	locale: BaseLocale,
	messages: map[Code]string{
		CodeMalformedInput:    "The recording could not be read{{if .Reason}}: {{.Reason}}{{end}}",
		CodeInvalidFilter:     "Invalid filter {{printf \"%q\" .Filter}}{{if .Reason}}: {{.Reason}}{{end}}",
		CodeInvalidArgument:   "Invalid {{.Field}}{{if .Reason}}: {{.Reason}}{{end}}",
		CodeTickUnreachable:   "Tick {{.Target}} cannot be reached from tick {{.Current}}",
		CodeTotalTicksUnknown: "The recording does not report its length",
		CodeNoRecordingLoaded: "No recording is open",
		CodeNotFound:          "{{if .Name}}{{.Name}} was not found{{else}}Not found{{end}}",
		CodeInternal:          "Internal error; the inspector state is inconsistent",
	},
}
