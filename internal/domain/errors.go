package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound marks lookups for records that do not exist.
var ErrNotFound = errors.New("not found")

// ErrorClass buckets attempt failures for pool feedback and verdicts.
type ErrorClass string

const (
	ErrClassNone      ErrorClass = ""
	ErrClassTimeout   ErrorClass = "timeout"
	ErrClassNetwork   ErrorClass = "network"
	ErrClassNotFound  ErrorClass = "not_found"
	ErrClassForbidden ErrorClass = "forbidden"
	ErrClassHTTP      ErrorClass = "http"
	ErrClassPolicy    ErrorClass = "policy"
	ErrClassUnknown   ErrorClass = "unknown"
)

// TransportError is a network-level failure: the request never produced a
// response (unreachable host, reset, timeout).
type TransportError struct {
	URL     string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("transport timeout fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("transport failure fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PolicyError marks an attempt that was never issued because a precondition
// guarantees failure (for example mixed-content blocking of a plain-http
// target from a secure serving origin). It is synthesized with zero I/O.
type PolicyError struct {
	URL    string
	Reason string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("policy forbids fetching %s: %s", e.URL, e.Reason)
}

// HTTPError is a completed request with a non-success status.
type HTTPError struct {
	URL    string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d from %s", e.Status, e.URL)
}

// Class sub-classifies the status into the failure taxonomy.
func (e *HTTPError) Class() ErrorClass {
	return ClassifyStatus(e.Status)
}

// StorageError wraps persistence-layer failures. Callers degrade to a
// no-cache/no-log mode instead of failing the resolution.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ClassifyStatus maps an HTTP status code to an error class.
func ClassifyStatus(status int) ErrorClass {
	switch {
	case status >= 200 && status < 400:
		return ErrClassNone
	case status == http.StatusNotFound || status == http.StatusGone:
		return ErrClassNotFound
	case status == http.StatusForbidden || status == http.StatusUnavailableForLegalReasons || status == http.StatusUnauthorized:
		return ErrClassForbidden
	default:
		return ErrClassHTTP
	}
}

// ClassifyError maps any attempt-level error to an error class.
func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrClassNone
	}

	var te *TransportError
	if errors.As(err, &te) {
		if te.Timeout {
			return ErrClassTimeout
		}
		return ErrClassNetwork
	}

	var pe *PolicyError
	if errors.As(err, &pe) {
		return ErrClassPolicy
	}

	var he *HTTPError
	if errors.As(err, &he) {
		return he.Class()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrClassTimeout
	}

	return ErrClassUnknown
}
