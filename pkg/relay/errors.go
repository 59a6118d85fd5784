package relay

import (
	"errors"
	"fmt"
)

// Error codes returned by the relay and poll operations. The HTTP layer maps
// these onto status codes; backend error text never crosses this boundary.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotConfigured    = "NOT_CONFIGURED"
	CodeRelayUnavailable = "RELAY_UNAVAILABLE"
	CodePollUnavailable  = "POLL_UNAVAILABLE"
	// CodeRetry marks a transient poll condition (thread not yet indexed,
	// backend throttling); the client keeps polling on its normal schedule.
	CodeRetry = "RETRY"
)

// Error is a classified relay failure. Reason is safe to show to the caller.
type Error struct {
	Code   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func errf(code, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf returns the classification of err, or CodeRelayUnavailable for
// untagged errors.
func CodeOf(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeRelayUnavailable
}

// ReasonOf returns the caller-safe reason of err.
func ReasonOf(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Reason
	}
	return "internal error"
}
