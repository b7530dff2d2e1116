package agent

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a stage attempt or a stage failed.
type FailureKind string

const (
	KindTransport        FailureKind = "transport_failure"
	KindMalformedOutput  FailureKind = "malformed_output"
	KindSchemaViolation  FailureKind = "schema_violation"
	KindRetriesExhausted FailureKind = "retries_exhausted"
	KindUnexpected       FailureKind = "unexpected_failure"
)

// StageError is the terminal failure of a stage agent.
type StageError struct {
	Agent    string
	Kind     FailureKind
	Message  string
	Attempts int
	// LastKind is the kind of the last recoverable failure before giving up.
	LastKind FailureKind
}

func (e *StageError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Agent, e.Message)
}

// AsStageError unwraps err into a *StageError.
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
