// Package apperror defines the error kinds the service reports to clients and
// the HTTP status each one maps to.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidQuery
	KindRateLimitExceeded
	KindLLMService
	KindConfiguration
	KindDocumentLoading
	KindVectorStore
)

// String returns the name clients see in the "error" field.
func (k Kind) String() string {
	switch k {
	case KindInvalidQuery:
		return "InvalidQuery"
	case KindRateLimitExceeded:
		return "RateLimitExceeded"
	case KindLLMService:
		return "LLMServiceException"
	case KindConfiguration:
		return "ConfigurationError"
	case KindDocumentLoading:
		return "DocumentLoadingException"
	case KindVectorStore:
		return "VectorStoreException"
	default:
		return "InternalServerError"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindInvalidQuery:
		return http.StatusBadRequest
	case KindRateLimitExceeded:
		return http.StatusTooManyRequests
	case KindLLMService:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a Kind, a client-safe message, optional operator details and
// the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail sets a details entry and returns e for chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func InvalidQuery(message string) *Error {
	return New(KindInvalidQuery, message)
}

func Configuration(message string) *Error {
	return New(KindConfiguration, message)
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of err; anything that is not an *Error is internal.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}
