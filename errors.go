package elasticbud

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates the cluster configuration failed validation.
	// Returned before any network activity is attempted.
	ErrInvalidConfig = errors.New("invalid cluster configuration")

	// ErrConnectionFailed indicates the underlying cluster client could not
	// be constructed.
	ErrConnectionFailed = errors.New("cluster connection failed")

	// ErrTransportFailed indicates a network-level failure that persisted
	// through all retry attempts. Matched by *TransportError via errors.Is.
	ErrTransportFailed = errors.New("transport failed")

	// ErrRequestRejected indicates the cluster rejected a request with a
	// non-retryable status. Matched by *RequestError via errors.Is.
	ErrRequestRejected = errors.New("request rejected by cluster")

	// ErrEncodeFailed indicates a document or query could not be encoded to
	// the wire format. Never retried.
	ErrEncodeFailed = errors.New("encode failed")

	// ErrDecodeFailed indicates a cluster payload could not be decoded.
	// Never retried, since retrying would not change a malformed response.
	ErrDecodeFailed = errors.New("decode failed")

	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrMissingIndex indicates an operation was issued without an index name.
	ErrMissingIndex = errors.New("index name is required")

	// ErrMissingTemplate indicates a template operation was issued without a
	// template body.
	ErrMissingTemplate = errors.New("missing index template")

	// ErrClusterUnreachable indicates the cluster could not be reached
	// during a health check.
	ErrClusterUnreachable = errors.New("cluster unreachable")

	// ErrClusterNotReady indicates the cluster is reachable but reports red
	// status.
	ErrClusterNotReady = errors.New("cluster not ready")
)

// TransportError reports a request that failed at the network level after
// exhausting its retry budget. Err carries the last underlying cause;
// StatusCode is the last HTTP status observed, or 0 when no response was
// received at all.
type TransportError struct {
	Op         string
	Index      string
	Attempts   int
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("transport failed: %s", e.Op)
	if e.Index != "" {
		msg += fmt.Sprintf(" on %q", e.Index)
	}
	msg += fmt.Sprintf(" after %d attempt(s)", e.Attempts)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (last status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransportFailed }

// RequestError reports a request the cluster rejected outright. Body holds
// the cluster-provided error payload so callers can diagnose the rejection
// without inspecting client internals.
type RequestError struct {
	Op         string
	Index      string
	StatusCode int
	Body       []byte
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("request rejected: %s", e.Op)
	if e.Index != "" {
		msg += fmt.Sprintf(" on %q", e.Index)
	}
	msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	if len(e.Body) > 0 {
		msg += ": " + string(e.Body)
	}
	return msg
}

func (e *RequestError) Is(target error) bool { return target == ErrRequestRejected }
