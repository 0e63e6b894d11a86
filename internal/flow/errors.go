package flow

import "fmt"

// The flow layer surfaces exactly four error kinds. None of them is retried
// here; callers that want a retry re-invoke the flow explicitly.

// ValidationError reports that an input or output failed its schema
// constraints. Field names the offending field, Constraint the rule it broke.
// Output is set when the failed value came from the backend reply rather than
// the caller's input; transports use it to assign fault.
type ValidationError struct {
	Field      string
	Constraint string
	Output     bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: field %q %s", e.Field, e.Constraint)
}

// RefusalError reports that the completion backend declined to answer due to
// a content-safety threshold.
type RefusalError struct {
	Reason string
}

func (e *RefusalError) Error() string {
	if e.Reason == "" {
		return "completion refused by safety settings"
	}
	return fmt.Sprintf("completion refused by safety settings: %s", e.Reason)
}

// NoOutputError reports that the backend answered but produced no usable
// content. Distinct from a malformed reply (ValidationError) and from a
// refusal (RefusalError).
type NoOutputError struct {
	Flow string
}

func (e *NoOutputError) Error() string {
	return fmt.Sprintf("%s: backend returned no output", e.Flow)
}

// InvocationError reports a transport or backend failure: network error,
// outage, or timeout.
type InvocationError struct {
	Cause   error
	Timeout bool
}

func (e *InvocationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("completion backend timed out: %v", e.Cause)
	}
	return fmt.Sprintf("completion backend failed: %v", e.Cause)
}

func (e *InvocationError) Unwrap() error { return e.Cause }
