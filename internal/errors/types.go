// Package errors is the structured error type shared by the harness, the
// transports and the CLI. A case failure is classified by its ErrorType so
// that reports can tell a dead network from a wrong answer.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies a CheckError
type ErrorType string

const (
	// ErrorTypeNetwork covers transport failures: DNS, refused connections, timeouts
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeAssertion is an actual status or body that differs from the expectation
	ErrorTypeAssertion ErrorType = "assertion"
	// ErrorTypeMalformedResponse is a body that could not be read as JSON when a field was requested
	ErrorTypeMalformedResponse ErrorType = "malformed_response"
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeConfig            ErrorType = "config"
	ErrorTypeInternal          ErrorType = "internal"
)

// CheckError carries a kind, a message and loose key/value context (field,
// url, case, suggestion...) that UserMessage and DebugInfo render.
type CheckError struct {
	Type    ErrorType
	Message string
	Context map[string]interface{}
	Cause   error
}

func (e *CheckError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *CheckError) Unwrap() error {
	return e.Cause
}

// Is matches any CheckError of the same kind, so
// errors.Is(err, New(ErrorTypeNetwork, "")) asks "is this a network failure".
func (e *CheckError) Is(target error) bool {
	t, ok := target.(*CheckError)
	return ok && t.Type == e.Type
}

// WithContext sets key and returns e for chaining.
func (e *CheckError) WithContext(key string, value interface{}) *CheckError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func New(errType ErrorType, message string) *CheckError {
	return Wrap(nil, errType, message)
}

func Newf(errType ErrorType, format string, args ...interface{}) *CheckError {
	return New(errType, fmt.Sprintf(format, args...))
}

// Wrap classifies err. The cause stays reachable through errors.Is/As.
func Wrap(err error, errType ErrorType, message string) *CheckError {
	return &CheckError{
		Type:    errType,
		Message: message,
		Context: make(map[string]interface{}),
		Cause:   err,
	}
}

func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *CheckError {
	return Wrap(err, errType, fmt.Sprintf(format, args...))
}

// IsType reports whether err or any error it wraps is a CheckError of
// errType. Unlike errors.As it keeps looking past a CheckError of another
// kind.
func IsType(err error, errType ErrorType) bool {
	for ; err != nil; err = stderrors.Unwrap(err) {
		if cErr, ok := err.(*CheckError); ok && cErr.Type == errType {
			return true
		}
	}
	return false
}

// GetType returns the kind of the outermost CheckError in err's chain, or
// ErrorTypeInternal when there is none.
func GetType(err error) ErrorType {
	var cErr *CheckError
	if stderrors.As(err, &cErr) {
		return cErr.Type
	}
	return ErrorTypeInternal
}

// GetContext returns the context of the outermost CheckError in err's chain.
func GetContext(err error) map[string]interface{} {
	var cErr *CheckError
	if stderrors.As(err, &cErr) {
		return cErr.Context
	}
	return nil
}
