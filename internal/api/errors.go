// Package api provides the client for the remote file-storage HTTP API.
package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed API call. The api package is the single
// translation boundary between transport-level failures and these kinds;
// no raw transport error crosses above it.
type Kind string

const (
	KindInvalidCredentials Kind = "invalid_credentials"
	KindTokenExpired       Kind = "token_expired"
	KindNotFound           Kind = "not_found"
	KindForbidden          Kind = "forbidden"
	KindAlreadyExists      Kind = "already_exists"
	KindInvalidName        Kind = "invalid_name"
	KindQuotaExceeded      Kind = "quota_exceeded"
	KindNetworkUnavailable Kind = "network_unavailable"
	KindServerError        Kind = "server_error"
)

// Error is a failed API call with a classified kind and a human-readable
// message (server-supplied when available, generic fallback otherwise).
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "list", "upload"
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// newError constructs an Error wrapping an optional cause.
func newError(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, cause: cause}
}

// KindOf returns the Kind of err, or "" if err is not an api error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsKind reports whether err is an api error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsAuthRejection reports whether err means the server rejected the bearer
// token. Session handling treats this as lazy expiry detection.
func IsAuthRejection(err error) bool {
	return IsKind(err, KindTokenExpired)
}

// MessageOf returns the human-readable message of err, falling back to
// err.Error() for non-api errors.
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
