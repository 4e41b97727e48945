// Package domerrors defines the typed errors surfaced by domain services.
// Stores and infrastructure return sentinel errors (pkg/platform/sentinel);
// services translate those into coded errors here so transport layers can map
// them to HTTP statuses in exactly one place.
package domerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	CodeNotFound            Code = "not_found"
	CodeUnauthorized        Code = "unauthorized"
	CodeInvalidState        Code = "invalid_state"
	CodeInvalidAmount       Code = "invalid_amount"
	CodeWalletLimitExceeded Code = "wallet_limit_exceeded"
	CodeBlacklisted         Code = "blacklisted"
	CodeTransferFailed      Code = "transfer_failed"
	CodeTimeWindowViolation Code = "time_window_violation"
	CodeBadRequest          Code = "bad_request"
	CodeInternal            Code = "internal"
)

// Error carries a code for programmatic handling and a message for logs.
type Error struct {
	Code    Code
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.err }

// New builds a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a domain error that preserves the underlying cause for
// errors.Is/errors.As chains.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, err: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the status the HTTP layer should respond with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized, CodeBlacklisted:
		return http.StatusForbidden
	case CodeInvalidAmount, CodeBadRequest:
		return http.StatusBadRequest
	case CodeInvalidState, CodeWalletLimitExceeded, CodeTimeWindowViolation:
		return http.StatusConflict
	case CodeTransferFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
