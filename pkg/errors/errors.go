package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the API's error currency: a stable code for clients, an
// HTTP status for the transport layer, and an optional structured
// Details payload (for example the list of unmet prerequisite codes).
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds a fresh Error.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap builds an Error around a lower-level cause.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Transport-level sentinels.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Admission-check rejections. Expected outcomes of an enroll attempt,
// not failures.
var (
	ErrAlreadyEnrolled      = New("ALREADY_ENROLLED", http.StatusConflict, "student already enrolled in this course")
	ErrCourseFull           = New("COURSE_FULL", http.StatusConflict, "course has reached its enrollment capacity")
	ErrScheduleConflict     = New("SCHEDULE_CONFLICT", http.StatusConflict, "course conflicts with the current schedule")
	ErrMissingPrerequisites = New("MISSING_PREREQUISITES", http.StatusPreconditionFailed, "prerequisites not satisfied")
	ErrEnrollmentNotFound   = New("ENROLLMENT_NOT_FOUND", http.StatusNotFound, "enrollment not found")
)

// FromError coerces any error to *Error. Unknown errors become a
// wrapped ErrInternal so their cause stays out of the response body.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies err, overriding the message when one is given. The
// sentinels above are shared; mutate copies, never the originals.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	out := *err
	if message != "" {
		out.Message = message
	}
	return &out
}

// WithDetails copies err and attaches a structured Details payload.
func WithDetails(err *Error, message string, details interface{}) *Error {
	out := Clone(err, message)
	if out == nil {
		return nil
	}
	out.Details = details
	return out
}
