package runner

import (
	"errors"
	"fmt"
)

// TransportError means the runner could not be reached or the exchange was
// cut short: dial failures, timeouts, unreadable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("runner %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError means the runner answered, but with a failure status or a
// body that could not be understood.
type RemoteError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("runner %s: %s", e.Op, e.Detail)
	}
	return fmt.Sprintf("runner %s: status %d: %s", e.Op, e.StatusCode, e.Detail)
}

// IsTransportError reports whether err (or anything it wraps) is a
// *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRemoteError reports whether err (or anything it wraps) is a
// *RemoteError.
func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
