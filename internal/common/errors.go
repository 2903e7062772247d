package common

import (
	"errors"
	"net/http"
)

// Error codes shared across the catalog, ledger, and auth layers.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeEmailAlreadyUsed   = "EMAIL_ALREADY_USED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeValidation         = "VALIDATION_ERROR"
	CodeStorageFailure     = "STORAGE_FAILURE"
	CodeInternal           = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// NotFound builds the canonical absent-resource error.
func NotFound(message string) *AppError {
	return NewAppError(CodeNotFound, message, http.StatusNotFound, nil)
}

// Validation builds a request-rejection error.
func Validation(message string, details any) *AppError {
	return &AppError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest, Details: details}
}

// StorageFailure wraps a persistence error so callers can report it uniformly.
func StorageFailure(err error) *AppError {
	return NewAppError(CodeStorageFailure, "persistent store unavailable", http.StatusInternalServerError, err)
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
