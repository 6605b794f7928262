package samples

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes sample store errors.
type ErrorCode string

const (
	// ErrCodeKeyNotFound indicates an unknown variable was requested.
	ErrCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"

	// ErrCodeIndexOutOfRange indicates a chain or tensor index outside [0, n).
	ErrCodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeShapeMismatch indicates builder input that breaks the shared
	// chain/draw shape.
	ErrCodeShapeMismatch ErrorCode = "SHAPE_MISMATCH"

	// ErrCodeAlreadySingleChain indicates GetChain on a chain view.
	ErrCodeAlreadySingleChain ErrorCode = "ALREADY_SINGLE_CHAIN"
)

// Error is the error type returned by Store, Tensor and Builder.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Variable is the display form of the variable involved, if any.
	Variable string

	// Index and Limit describe range failures: Index was not in [0, Limit).
	Index int
	Limit int
}

// Sentinels for errors.Is matching. Only Code is compared.
var (
	ErrKeyNotFound        = &Error{Code: ErrCodeKeyNotFound}
	ErrIndexOutOfRange    = &Error{Code: ErrCodeIndexOutOfRange}
	ErrShapeMismatch      = &Error{Code: ErrCodeShapeMismatch}
	ErrAlreadySingleChain = &Error{Code: ErrCodeAlreadySingleChain}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("%s: %s (variable=%s)", e.Code, e.Message, e.Variable)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// IsKeyNotFound returns true if err (or anything it wraps) is a KEY_NOT_FOUND error.
func IsKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// IsIndexOutOfRange returns true if err (or anything it wraps) is an
// INDEX_OUT_OF_RANGE error.
func IsIndexOutOfRange(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange)
}

func newKeyNotFound(variable string) *Error {
	return &Error{
		Code:     ErrCodeKeyNotFound,
		Message:  "variable was not recorded during inference",
		Variable: variable,
	}
}

func newIndexOutOfRange(what string, index, limit int) *Error {
	return &Error{
		Code:    ErrCodeIndexOutOfRange,
		Message: fmt.Sprintf("%s index %d out of range [0, %d)", what, index, limit),
		Index:   index,
		Limit:   limit,
	}
}

func newShapeMismatch(variable, format string, args ...any) *Error {
	return &Error{
		Code:     ErrCodeShapeMismatch,
		Message:  fmt.Sprintf(format, args...),
		Variable: variable,
	}
}
