package lens

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch reports non-positive declared image dimensions.
// Wrapped by EncodeError; never retried.
var ErrDimensionMismatch = errors.New("declared image dimensions must be positive")

// ErrUnsupportedMime reports an image mime type the service does not accept.
var ErrUnsupportedMime = errors.New("unsupported image mime type")

// EncodeError reports a failure to build the upload request. Encoding is
// pure, so an EncodeError means the inputs are wrong and the call is never
// retried.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return fmt.Sprintf("encoding request: %v", e.Err) }
func (e *EncodeError) Unwrap() error { return e.Err }

// TransportError reports a failed exchange with the service: a network
// error, a timeout, or a non-2xx HTTP status.
type TransportError struct {
	// Status is the HTTP status code, or zero when no response arrived.
	Status int
	// Timeout marks deadline-style failures.
	Timeout bool
	// Err is the underlying transport error, if any.
	Err error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("transport: http status %d", e.Status)
	case e.Timeout:
		return fmt.Sprintf("transport: timeout: %v", e.Err)
	default:
		return fmt.Sprintf("transport: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// UnrecognizedShapeError reports a response body that does not match any
// known revision of the service's tree shape. It carries a bounded textual
// snapshot of what was received for diagnostics. Structural mismatches are
// never retried.
type UnrecognizedShapeError struct {
	// Reason names the probe that failed.
	Reason string
	// Snapshot is a bounded prefix of the offending tree or body.
	Snapshot string
}

func (e *UnrecognizedShapeError) Error() string {
	return fmt.Sprintf("unrecognized response shape: %s: %s", e.Reason, e.Snapshot)
}

// FailureKind classifies a ProtocolError.
type FailureKind int

const (
	FailureEncode FailureKind = iota
	FailureTransport
	FailureDecode
	FailureRateLimited
	FailureSessionExpired
)

func (k FailureKind) String() string {
	switch k {
	case FailureEncode:
		return "encode"
	case FailureTransport:
		return "transport"
	case FailureDecode:
		return "decode"
	case FailureRateLimited:
		return "rate-limited"
	case FailureSessionExpired:
		return "session-expired"
	}
	return "unknown"
}

// ProtocolError is the single error type Submit resolves to. It classifies
// the failure after the retry policy is exhausted; callers should treat
// FailureRateLimited as "retry later" and everything else as terminal for
// that image.
type ProtocolError struct {
	Kind FailureKind
	// Attempts is how many round trips were made before giving up.
	Attempts int
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("lens: %s after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// retryable reports whether another attempt could change the outcome.
func (e *ProtocolError) retryable() bool {
	switch e.Kind {
	case FailureTransport, FailureRateLimited, FailureSessionExpired:
		return true
	}
	return false
}
