package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies application errors so transport layers can map them
// to protocol responses without string matching.
type ErrorCode string

const (
	CodeInvalidInput     ErrorCode = "INVALID_INPUT"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	CodeMissingVariable  ErrorCode = "MISSING_VARIABLE"
	CodeInvocationFailed ErrorCode = "INVOCATION_FAILED"
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// AppError is the coded error carried across layer boundaries.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewInvalidInputError reports a malformed request or command.
func NewInvalidInputError(message string) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: message}
}

// NewNotFoundError reports a missing record.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

// NewAlreadyExistsError reports a uniqueness violation.
func NewAlreadyExistsError(message string) *AppError {
	return &AppError{Code: CodeAlreadyExists, Message: message}
}

// NewMissingVariableError reports a template placeholder with no value.
// The variable name is included so clients can correct the request.
func NewMissingVariableError(variable string) *AppError {
	return &AppError{
		Code:    CodeMissingVariable,
		Message: fmt.Sprintf("missing required variable: %s", variable),
	}
}

// NewInvocationFailedError wraps a model API or transport failure.
func NewInvocationFailedError(message string, cause error) *AppError {
	return &AppError{Code: CodeInvocationFailed, Message: message, Err: cause}
}

// NewInternalError reports an unexpected internal failure.
func NewInternalError(message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message}
}

// NewInternalErrorWithCause reports an internal failure with its cause chain.
func NewInternalErrorWithCause(message string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: cause}
}

// Message extracts the human-readable message for clients and stored
// records, without the internal code prefix. Uncoded errors pass through
// unchanged.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			return appErr.Message + ": " + appErr.Err.Error()
		}
		return appErr.Message
	}
	return err.Error()
}

func codeOf(err error) (ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}

// IsNotFound reports whether err is a NOT_FOUND application error.
func IsNotFound(err error) bool {
	code, ok := codeOf(err)
	return ok && code == CodeNotFound
}

// IsInvalidInput reports whether err is an INVALID_INPUT application error.
func IsInvalidInput(err error) bool {
	code, ok := codeOf(err)
	return ok && code == CodeInvalidInput
}

// IsAlreadyExists reports whether err is an ALREADY_EXISTS application error.
func IsAlreadyExists(err error) bool {
	code, ok := codeOf(err)
	return ok && code == CodeAlreadyExists
}

// IsMissingVariable reports whether err is a MISSING_VARIABLE application error.
func IsMissingVariable(err error) bool {
	code, ok := codeOf(err)
	return ok && code == CodeMissingVariable
}

// IsInvocationFailed reports whether err is an INVOCATION_FAILED application error.
func IsInvocationFailed(err error) bool {
	code, ok := codeOf(err)
	return ok && code == CodeInvocationFailed
}
