// Package domainerrors defines coded errors shared by services, stores and transports.
//
// Services return *Error values so handlers can map them to HTTP responses without
// inspecting message text. Use HasCode to branch on a code anywhere in a wrapped chain.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies an error for callers and transports.
type Code string

const (
	// Generic codes.
	CodeInternal           Code = "internal_error"
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeTooManyRequests    Code = "too_many_requests"
	CodeInvariantViolation Code = "invariant_violation"

	// Registrar codes.
	CodeInvalidName      Code = "invalid_name"
	CodeNotAvailable     Code = "not_available"
	CodeNotClaimer       Code = "not_claimer"
	CodeInvalidTime      Code = "invalid_time"
	CodeClaimConflict    Code = "claim_conflict"
	CodeNotOwner         Code = "not_owner"
	CodeOwnershipExpired Code = "ownership_expired"
	CodeNothingStaked    Code = "nothing_staked"
	CodeNotExpired       Code = "not_expired"

	// Ledger codes.
	CodePermissionDenied      Code = "permission_denied"
	CodeInsufficientFunds     Code = "insufficient_funds"
	CodeInsufficientAllowance Code = "insufficient_allowance"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors with the same code and message so tests can use errors.Is
// against a freshly constructed value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any *Error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is reports whether the outermost *Error in err's chain carries code.
func Is(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// CodeOf returns the code of the outermost *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

// ToHTTPStatus maps a code to the status a transport should respond with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput, CodeInvalidName:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodePermissionDenied, CodeNotOwner, CodeNotClaimer:
		return http.StatusForbidden
	case CodeNotFound, CodeNothingStaked:
		return http.StatusNotFound
	case CodeConflict, CodeClaimConflict, CodeNotAvailable, CodeOwnershipExpired, CodeNotExpired:
		return http.StatusConflict
	case CodeInvalidTime:
		return http.StatusUnprocessableEntity
	case CodeInsufficientFunds, CodeInsufficientAllowance:
		return http.StatusPaymentRequired
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
