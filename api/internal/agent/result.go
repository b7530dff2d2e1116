package agent

import "fmt"

type Status int

const (
	StatusSuccess Status = iota
	StatusRecoverable
	StatusTerminal
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRecoverable:
		return "recoverable"
	case StatusTerminal:
		return "terminal"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the outcome of one stage attempt or of a whole stage execution.
// Value is meaningful only when Status is StatusSuccess.
type Result[T any] struct {
	Status   Status
	Value    T
	Agent    string
	Kind     FailureKind
	LastKind FailureKind
	Message  string
	Attempts int
}

func Success[T any](v T) Result[T] {
	return Result[T]{Status: StatusSuccess, Value: v}
}

func Recoverable[T any](kind FailureKind, msg string) Result[T] {
	return Result[T]{Status: StatusRecoverable, Kind: kind, Message: msg}
}

// Err returns nil on success and a *StageError otherwise.
func (r Result[T]) Err() error {
	if r.Status == StatusSuccess {
		return nil
	}
	return &StageError{
		Agent:    r.Agent,
		Kind:     r.Kind,
		Message:  r.Message,
		Attempts: r.Attempts,
		LastKind: r.LastKind,
	}
}

// Get unpacks the result into the usual value/error pair.
func (r Result[T]) Get() (T, error) {
	if err := r.Err(); err != nil {
		var zero T
		return zero, err
	}
	return r.Value, nil
}
