package model

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine-readable classification surfaced to callers.
type ErrorCode string

const (
	CodeValidation    ErrorCode = "validation_error"
	CodeNotFound      ErrorCode = "not_found"
	CodeDataQuality   ErrorCode = "data_quality_error"
	CodeParse         ErrorCode = "parse_error"
	CodeRateLimited   ErrorCode = "rate_limited"
	CodeAPI           ErrorCode = "upstream_error"
	CodeConfiguration ErrorCode = "configuration_error"
	CodeTimeout       ErrorCode = "timeout"
)

// Error is the service error type. Message is safe to return to callers;
// anything sensitive stays in the wrapped cause, which is logged but never
// serialized.
type Error struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus maps the error code to its response status.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDataQuality, CodeParse:
		return http.StatusUnprocessableEntity
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeAPI:
		return http.StatusBadGateway
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// E constructs an *Error with an optional wrapped cause.
func E(code ErrorCode, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, cause: cause}
}

// WithContext attaches diagnostic key/values and returns the error.
func (e *Error) WithContext(kv map[string]interface{}) *Error {
	e.Context = kv
	return e
}

// NewValidation builds a 400-class error for bad caller input.
func NewValidation(msg string) *Error { return E(CodeValidation, msg, nil) }

// NewNotFound builds a 404-class error.
func NewNotFound(msg string) *Error { return E(CodeNotFound, msg, nil) }

// NewDataQuality builds a 422-class error with the missing-field context the
// resolver collected.
func NewDataQuality(msg string, ctx map[string]interface{}) *Error {
	return E(CodeDataQuality, msg, nil).WithContext(ctx)
}

// NewParse builds a 422-class error for unparsable upstream payloads.
func NewParse(msg string, cause error) *Error { return E(CodeParse, msg, cause) }

// NewAPI builds an upstream-failure error carrying the upstream status.
func NewAPI(msg string, status int, cause error) *Error {
	return E(CodeAPI, msg, cause).WithContext(map[string]interface{}{"upstreamStatus": status})
}

// NewConfiguration builds a missing-credential error.
func NewConfiguration(msg string) *Error { return E(CodeConfiguration, msg, nil) }

// NewRateLimited builds a 429 error with limit metadata.
func NewRateLimited(msg string, ctx map[string]interface{}) *Error {
	return E(CodeRateLimited, msg, nil).WithContext(ctx)
}

// AsError unwraps err to a *model.Error when one is present in the chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the error's code, or CodeAPI for unclassified errors.
func CodeOf(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return CodeAPI
}
