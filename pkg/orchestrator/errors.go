package orchestrator

import (
	"errors"
	"fmt"
)

// Kind is a logical error classification (spec.md §7), not a Go type.
// Components branch on Kind to decide whether to log-and-continue, log-
// and-ignore, force a state correction, unwind quietly, or tear the
// session down.
type Kind int

const (
	// TransientExternal: an STT/LLM/TTS call failed or timed out.
	TransientExternal Kind = iota
	// ProtocolViolation: a malformed frame or unknown field arrived.
	ProtocolViolation
	// StateViolation: an invariant was found broken.
	StateViolation
	// Cancelled: cooperative cancellation was observed.
	Cancelled
	// Fatal: the carrier disconnected or the session scheduler is down.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case TransientExternal:
		return "transient_external"
	case ProtocolViolation:
		return "protocol_violation"
	case StateViolation:
		return "state_violation"
	case Cancelled:
		return "cancelled"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error wraps an underlying error with its orchestrator Kind.
type Error struct {
	kind Kind
	err  error
}

func (e *Error) Kind() Kind     { return e.kind }
func (e *Error) Unwrap() error  { return e.err }
func (e *Error) Error() string  { return fmt.Sprintf("orchestrator: %s: %v", e.kind, e.err) }

func newError(k Kind, err error) *Error {
	return &Error{kind: k, err: err}
}

func TransientExternalErr(err error) *Error { return newError(TransientExternal, err) }
func ProtocolViolationErr(err error) *Error { return newError(ProtocolViolation, err) }
func StateViolationErr(err error) *Error    { return newError(StateViolation, err) }
func CancelledErr(err error) *Error         { return newError(Cancelled, errOrDefault(err, ErrCancelled)) }
func FatalErr(err error) *Error             { return newError(Fatal, err) }

func errOrDefault(err, fallback error) error {
	if err != nil {
		return err
	}
	return fallback
}

// ErrCancelled is the default underlying error for a Cancelled-kind Error
// produced with no specific cause.
var ErrCancelled = errors.New("orchestrator: cancelled")

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error; ok is false otherwise.
func KindOf(err error) (k Kind, ok bool) {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.kind, true
	}
	return 0, false
}
