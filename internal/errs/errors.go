// Package errs defines the domain error kinds surfaced to API and bot callers.
package errs

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown           = "UNKNOWN"
	CodeNotFound          = "NOT_FOUND"
	CodeDuplicateIdentity = "DUPLICATE_IDENTITY"
	CodeValidation        = "VALIDATION"
	CodeConfig            = "CONFIG"
	CodeConflict          = "CONFLICT"
	CodeDatabase          = "DATABASE"
)

// ApplicationError is implemented by every error created in this package.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// Error is a coded application error with an optional cause.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *Error) Code() string {
	return e.code
}

// Message returns the message without the wrapped cause.
func (e *Error) Message() string {
	return e.message
}

func (e *Error) Unwrap() error {
	return e.err
}

func newError(code, message string, cause error) error {
	return &Error{code: code, message: message, err: cause}
}

func NewNotFoundError(message string) error {
	return newError(CodeNotFound, message, nil)
}

func NewDuplicateIdentityError(message string, cause error) error {
	return newError(CodeDuplicateIdentity, message, cause)
}

func NewValidationError(message string, cause error) error {
	return newError(CodeValidation, message, cause)
}

func NewConfigError(message string, cause error) error {
	return newError(CodeConfig, message, cause)
}

func NewConflictError(message string, cause error) error {
	return newError(CodeConflict, message, cause)
}

func NewDatabaseError(message string, cause error) error {
	return newError(CodeDatabase, message, cause)
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown if there is none.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return CodeUnknown
}

// PublicMessage returns a message safe to show to callers. Database and
// unknown errors are reduced to a generic text.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal error"
	}
	switch e.code {
	case CodeDatabase, CodeUnknown:
		return "internal error"
	case CodeValidation:
		return e.Error()
	}
	return e.message
}

func IsNotFound(err error) bool          { return Code(err) == CodeNotFound }
func IsDuplicateIdentity(err error) bool { return Code(err) == CodeDuplicateIdentity }
func IsValidation(err error) bool        { return Code(err) == CodeValidation }
func IsConfig(err error) bool            { return Code(err) == CodeConfig }
func IsConflict(err error) bool          { return Code(err) == CodeConflict }
