package errors

import (
	stderrors "errors"
	"fmt"

	"sleepreport/domain/core"
)

// Error codes surfaced by the CLI, the HTTP API and run events
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeParseError      = "PARSE_ERROR"
	CodeNoCandidate     = "NO_CANDIDATE"
	CodeInvalidTimezone = "INVALID_TIMEZONE"
)

const codeUnknown = "UNKNOWN"

// AppError is a failure tagged with a stable code. The message is the
// context added at this layer; Cause carries whatever failed underneath.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	switch {
	case e.Cause == nil:
		return e.Message
	case e.Message == "":
		return e.Cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New builds an AppError without a cause
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap adds context to err. An AppError anywhere in the chain lends its code;
// anything else becomes INTERNAL_ERROR.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	code := CodeInternalError
	if appErr, ok := asAppError(err); ok {
		code = appErr.Code
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode retags err. The message of an outer AppError is kept; a plain
// error becomes the cause with no message of its own.
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{Code: code, Message: appErr.Message, Cause: appErr.Cause}
	}
	return &AppError{Code: code, Cause: err}
}

func IsAppError(err error) bool {
	_, ok := asAppError(err)
	return ok
}

// GetCode returns the code of the outermost AppError in the chain, or UNKNOWN
func GetCode(err error) string {
	if appErr, ok := asAppError(err); ok {
		return appErr.Code
	}
	return codeUnknown
}

// Classify wraps a pipeline error with the code matching its domain sentinel
func Classify(err error, message string) error {
	if err == nil {
		return nil
	}
	if IsAppError(err) {
		return Wrap(err, message)
	}

	code := CodeInternalError
	switch {
	case core.IsParseError(err):
		code = CodeParseError
	case core.IsNoCandidateError(err):
		code = CodeNoCandidate
	case core.IsNotFoundError(err):
		code = CodeNotFound
	case stderrors.Is(err, core.ErrInvalidTimezone):
		code = CodeInvalidTimezone
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, resource+" not found")
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// ExternalServiceError marks a failure of a collaborator outside the process
// (data source, Telegram, database)
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: service + " service error",
		Cause:   cause,
	}
}

func asAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
