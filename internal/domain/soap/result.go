package soap

// Kind tags a Result as normalized or fallen back.
type Kind int

const (
	// KindNormalized means Value holds the located payload.
	KindNormalized Kind = iota
	// KindFallback means the response could not be parsed; Raw and Cause are set.
	KindFallback
)

// Source records which rule located a normalized value.
type Source string

const (
	// SourceSchema is a direct lookup of the operation's known result element.
	SourceSchema Source = "schema"
	// SourceScan is the first wrapper child whose name ends in "Result".
	SourceScan Source = "scan"
	// SourceWrapper is the whole response wrapper (no result child found).
	SourceWrapper Source = "wrapper"
	// SourceDocument is the whole document (no SOAP envelope/body found).
	SourceDocument Source = "document"
)

// Result is the outcome of normalizing one response body.
type Result struct {
	Kind   Kind
	Value  any
	Source Source

	// Raw and Cause are only set for KindFallback.
	Raw   string
	Cause error
}

// Fallback reports whether normalization failed.
func (r Result) Fallback() bool {
	return r.Kind == KindFallback
}

// Payload renders the result for callers: the located value, or
// {"raw_response": ..., "error": ...} when normalization failed.
func (r Result) Payload() any {
	if r.Kind != KindFallback {
		return r.Value
	}
	msg := "unknown error"
	if r.Cause != nil {
		msg = r.Cause.Error()
	}
	return map[string]any{
		"raw_response": r.Raw,
		"error":        msg,
	}
}
