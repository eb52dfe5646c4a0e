package oauth

import "fmt"

// Exchange failure reasons surfaced to API clients
const (
	ReasonInvalidToken   = "invalid_token"
	ReasonExchangeFailed = "exchange_failed"
	ReasonNoEmail        = "no_email"
)

// Error is a provider exchange failure with a machine-readable reason.
// The wrapped cause is logged server-side, never returned to the caller.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oauth %s: %v", e.Reason, e.Err)
	}
	return "oauth " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

func newError(reason string, err error) *Error {
	return &Error{Reason: reason, Err: err}
}
