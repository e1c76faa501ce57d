package estimator

import (
	"errors"
	"fmt"
)

// ErrorKind names the input an InputError is about
type ErrorKind string

const (
	KindReport      ErrorKind = "report"
	KindResourceMap ErrorKind = "resource_map"
	KindRegion      ErrorKind = "region"
)

// InputError reports malformed run input. It aborts the whole run.
type InputError struct {
	Kind    ErrorKind
	Message string
	Context map[string]interface{}
	Cause   error
}

// NewInputError creates an InputError of the given kind
func NewInputError(kind ErrorKind, message string, cause error) *InputError {
	return &InputError{Kind: kind, Message: message, Cause: cause}
}

func (e *InputError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Kind, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *InputError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair for logging
func (e *InputError) WithContext(key string, value interface{}) *InputError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsInputError reports whether err is or wraps an InputError
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
