// Package domainerrors provides code-tagged errors for the service layer.
//
// Services return these so transports can map failures to responses without
// string matching. Stores return pkg/platform/sentinel errors instead;
// services translate at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. Codes are part of the public contract of
// every service operation.
type Code string

const (
	// Generic service codes.
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeInternal           Code = "internal"
	CodeInvariantViolation Code = "invariant_violation"

	// Ledger and registry codes.
	CodeInvalidState        Code = "invalid_state"
	CodeInsufficientBalance Code = "insufficient_balance"
	CodeExceedsBalance      Code = "exceeds_balance"
	CodeNotVerified         Code = "not_verified"
	CodeComplianceRejected  Code = "compliance_rejected"
	CodeLimitExceeded       Code = "limit_exceeded"

	// CodeModuleFault marks unrecoverable compliance-module inconsistency.
	// The only non-recoverable class: the surrounding mutation must abort.
	CodeModuleFault Code = "module_fault"
)

// Error is a domain error with a code and an optional wrapped cause.
type Error struct {
	code Code
	msg  string
	err  error
}

// New creates a domain error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{code: code, msg: msg, err: err}
}

// Wrapf attaches a code and a formatted message to an underlying error.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...), err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the error's code.
func (e *Error) Code() Code {
	return e.code
}

// Message returns the human-readable message without code or cause.
func (e *Error) Message() string {
	return e.msg
}

// HasCode reports whether err is (or wraps) a domain error with the code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability in tests.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
