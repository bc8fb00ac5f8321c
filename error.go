package portal

import "errors"

var (
	ErrNoTransport = errors.New("portal: no transport could be established")

	// Returned (and logged) when a reply envelope can't be matched to an
	// outbound event.
	ErrInvalidReply = errors.New("portal: invalid reply")
)

// This is a wrapper for the errors internal to portal-go.
//
// If you see this error, the problem is neither a network error
// nor an error caused by you. The source of the error is portal-go.
type InternalError struct {
	err error
}

func (e InternalError) Error() string {
	return "portal: internal error: " + e.err.Error()
}

func (e InternalError) Unwrap() error {
	return e.err
}

func wrapInternalError(err error) *InternalError {
	return &InternalError{err: err}
}
