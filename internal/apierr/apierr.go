// Package apierr defines the error shape shared by the page pipeline and the HTTP layer.
//
// Every error that leaves the service, either inline inside a page field or as the
// whole response, is rendered as {message, status, code}. Code is usually a string
// constant, but upstream services sometimes send numeric codes and those are kept as-is.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Well-known codes produced by this service.
const (
	CodeInvalidDomain    = "INVALID_DOMAIN"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeUnknownPage      = "UNKNOWN_PAGE_TYPE"
	CodeNotFound         = "NOT_FOUND"
	CodeUpstreamTimeout  = "UPSTREAM_TIMEOUT"
	CodeRequestCancelled = "REQUEST_CANCELLED"
	CodeUpstreamPanic    = "UPSTREAM_PANIC"
	CodeUpstreamError    = "UPSTREAM_ERROR"
	CodeUnavailable      = "UPSTREAM_UNAVAILABLE"
)

// StatusClientClosedRequest is the non-standard status used when the caller went away.
const StatusClientClosedRequest = 499

// Error is a normalized service error.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Code    any    `json:"code"`

	cause error
}

// New creates an Error.
func New(status int, code any, message string) *Error {
	return &Error{Message: message, Status: status, Code: code}
}

// Wrap creates an Error that keeps err as its cause.
func Wrap(err error, status int, code any) *Error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Error{Message: msg, Status: status, Code: code, cause: err}
}

// BadRequest creates a 400 error.
func BadRequest(code any, format string, args ...any) *Error {
	return New(http.StatusBadRequest, code, fmt.Sprintf(format, args...))
}

// NotFound creates a 404 error.
func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s (status %d, code %v)", e.Message, e.Status, e.Code)
}

// HTTPStatus returns the status code.
func (e *Error) HTTPStatus() int { return e.Status }

// ErrorCode returns the machine-readable code.
func (e *Error) ErrorCode() any { return e.Code }

// Unwrap returns the original error, if any.
func (e *Error) Unwrap() error { return e.cause }

// statusCarrier is implemented by errors that know their HTTP status.
type statusCarrier interface {
	HTTPStatus() int
}

// codeCarrier is implemented by errors that know their machine-readable code.
type codeCarrier interface {
	ErrorCode() any
}

// From normalizes any error into an *Error.
//
// Status and code are preserved when some error in the chain carries them.
// A status outside 100-599 is replaced by 500. Otherwise status and code default to 500, except for context errors which
// map to 504 (deadline) and 499 (cancelled).
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var ae *Error
	if errors.As(err, &ae) {
		if ae.Message == "" {
			ae = &Error{Message: err.Error(), Status: ae.Status, Code: ae.Code, cause: ae.cause}
		}
		return ae.withDefaults()
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, http.StatusGatewayTimeout, CodeUpstreamTimeout)
	case errors.Is(err, context.Canceled):
		return Wrap(err, StatusClientClosedRequest, CodeRequestCancelled)
	}

	out := Wrap(err, 0, nil)
	var sc statusCarrier
	if errors.As(err, &sc) {
		out.Status = sc.HTTPStatus()
	}
	var cc codeCarrier
	if errors.As(err, &cc) {
		out.Code = cc.ErrorCode()
	}
	return out.withDefaults()
}

// validStatus reports whether status can be written on the wire.
func validStatus(status int) bool {
	return status >= 100 && status <= 599
}

func (e *Error) withDefaults() *Error {
	noCode := e.Code == nil || e.Code == ""
	if validStatus(e.Status) && !noCode {
		return e
	}
	cp := *e
	if !validStatus(cp.Status) {
		cp.Status = http.StatusInternalServerError
	}
	if noCode {
		cp.Code = cp.Status
	}
	return &cp
}
