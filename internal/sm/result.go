package sm

import (
	"errors"
	"fmt"
)

// ErrFailure matches every error produced by Result.Err.
var ErrFailure = errors.New("handler failed")

// FailureError carries the reason of a failed Result.
type FailureError struct {
	Reason string
}

// Error implements the error interface.
func (e *FailureError) Error() string {
	return fmt.Sprintf("%s: %s", ErrFailure, e.Reason)
}

// Is makes errors.Is(err, ErrFailure) hold for any FailureError.
func (e *FailureError) Is(target error) bool {
	return target == ErrFailure
}

// Result is the status every entry point and input handler returns: either a
// success with an optional reply payload, or a failure with a reason.
//
// A Result is built once per invocation and consumed by the host right away.
// The zero value is Success().
type Result struct {
	failed   bool
	hasReply bool
	reply    Message
	reason   string
}

// Success reports a successful invocation with no reply payload.
func Success() Result {
	return Result{}
}

// Reply reports a successful invocation carrying msg as its reply.
func Reply(msg Message) Result {
	return Result{hasReply: true, reply: msg}
}

// Failure reports a failed invocation.
func Failure(reason string) Result {
	return Result{failed: true, reason: reason}
}

// Failuref is Failure with a formatted reason.
func Failuref(format string, args ...any) Result {
	return Failure(fmt.Sprintf(format, args...))
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool { return !r.failed }

// Reply returns the reply payload, if any.
func (r Result) Reply() (Message, bool) { return r.reply, r.hasReply }

// Reason returns the failure reason, or "" for a success.
func (r Result) Reason() string { return r.reason }

// Err returns nil for a success and a *FailureError otherwise.
func (r Result) Err() error {
	if !r.failed {
		return nil
	}
	return &FailureError{Reason: r.reason}
}

// String implements fmt.Stringer.
func (r Result) String() string {
	switch {
	case r.failed:
		return fmt.Sprintf("Failure(%s)", r.reason)
	case r.hasReply:
		return fmt.Sprintf("Success(%s)", r.reply)
	default:
		return "Success(None)"
	}
}
