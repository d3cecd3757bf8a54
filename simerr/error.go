// Package simerr classifies the fatal outcomes the simulator can surface, so
// that the CLI layer can decide how to report them without inspecting error
// strings.
package simerr

import "fmt"

// Kind distinguishes the four error categories in the simulator's error
// handling design.
type Kind int

const (
	// ConfigError means a CLI argument was invalid; no simulation started.
	ConfigError Kind = iota
	// ProtocolViolation means the runtime observed a protocol implementation
	// violating its contract (e.g. out-of-order delivery to the network layer).
	ProtocolViolation
	// InvariantViolation means a runtime invariant failed (inbound queue
	// overflow, a full peer frame channel). A timer lookup that misses is
	// not raised as an error.
	InvariantViolation
	// Outcome means the simulation ended normally: deadlock detection or
	// reaching the configured event count.
	Outcome
)

func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "configuration error"
	case ProtocolViolation:
		return "protocol violation"
	case InvariantViolation:
		return "invariant violation"
	case Outcome:
		return "simulation outcome"
	default:
		return "unknown error"
	}
}

// Error wraps an underlying error with its Kind, following the
// github.com/pkg/errors Cause/Unwrap convention so the kind can be recovered
// with errors.As while still supporting %+v stack traces on the wrapped
// cause.
type Error struct {
	Kind Kind
	Err  error
}

func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Cause() error  { return e.Err }
func (e *Error) Unwrap() error { return e.Err }
