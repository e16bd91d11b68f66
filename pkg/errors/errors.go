package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`

	// Data is diagnostic context for logs; it never reaches the client.
	Data map[string]interface{} `json:"-"`
	// Extensions are merged into the problem document.
	Extensions map[string]interface{} `json:"-"`
	// Fields holds per-field validation messages.
	Fields map[string][]string `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned errors still compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// WithData attaches diagnostic data and returns the receiver.
func (e *Error) WithData(key string, value interface{}) *Error {
	if e.Data == nil {
		e.Data = make(map[string]interface{})
	}
	e.Data[key] = value
	return e
}

// WithExtension attaches a client visible problem extension and returns the receiver.
func (e *Error) WithExtension(key string, value interface{}) *Error {
	if e.Extensions == nil {
		e.Extensions = make(map[string]interface{})
	}
	e.Extensions[key] = value
	return e
}

// WithField appends a validation message for the given field.
func (e *Error) WithField(field, message string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrBadRequest          = New("BAD_REQUEST", http.StatusBadRequest, "bad request")
	ErrNotFound            = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden           = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized        = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict            = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation          = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrResourceValidation  = New("RESOURCE_VALIDATION", http.StatusUnprocessableEntity, "one or more validation errors occurred")
	ErrTooManyRequests     = New("TOO_MANY_REQUESTS", http.StatusTooManyRequests, "too many requests")
	ErrPayloadTooLarge     = New("PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge, "payload too large")
	ErrInternal            = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss           = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrServiceUnavailable  = New("SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "service unavailable")
	ErrInvalidCredentials  = New("INVALID_USER_CREDENTIALS", http.StatusUnauthorized, "invalid user credentials")
	ErrUserNotConfirmed    = New("USER_IS_NOT_CONFIRMED", http.StatusBadRequest, "user is not confirmed")
	ErrUserLockedOut       = New("USER_LOCKED_OUT", http.StatusBadRequest, "user is locked out")
	ErrDuplicateUser       = New("DUPLICATE_EMAIL_OR_PHONE_NUMBER", http.StatusBadRequest, "email or phone number is already taken")
	ErrInvalidToken        = New("INVALID_TOKEN", http.StatusBadRequest, "invalid token")
	ErrUserNotFound        = New("USER_NOT_FOUND", http.StatusNotFound, "user not found")
	ErrUserImageNotFound   = New("USER_IMAGE_COULD_NOT_BE_FOUND", http.StatusNotFound, "user image could not be found")
	ErrEmailConfirmed      = New("EMAIL_ALREADY_CONFIRMED", http.StatusBadRequest, "email is already confirmed")
	ErrPhoneConfirmed      = New("PHONE_ALREADY_CONFIRMED", http.StatusBadRequest, "phone number is already confirmed")
	ErrTwoFactorNotEnabled = New("TWO_FACTOR_NOT_ENABLED", http.StatusBadRequest, "two factor authentication is not enabled")
)

// FromError normalises any error into an *Error.
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

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Data = nil
	clone.Extensions = nil
	clone.Fields = nil
	if message != "" {
		clone.Message = message
	}
	return &clone
}
