package api

import (
	"net/http"
	"sort"
	"strings"
)

// Error defines the standard error shape for the API.
type Error struct {
	// HTTP Status Code (e.g., 400, 429, 500)
	Code int
	// Safe message for the client
	Message string
	// Field level validation messages, keyed by json field name
	Fields map[string]string
	// Original error for internal logging
	Log error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Log
}

// Response renders the error in the envelope the front-end expects.
func (e *Error) Response() ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error:   e.Message,
		Errors:  e.Fields,
	}
}

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// ValidationError creates a 400 from per-field validation messages.
func ValidationError(fields map[string]string) *Error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fields[k])
	}

	return &Error{
		Code:    http.StatusBadRequest,
		Message: strings.Join(msgs, "; "),
		Fields:  fields,
	}
}

func BadRequestError(msg string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: msg}
}

func NotFoundError(msg string) *Error {
	return &Error{Code: http.StatusNotFound, Message: msg}
}

// InternalError creates a standard error for any internal server error
func InternalError(msg string, err error) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: msg, Log: err}
}

// ProviderError is an upstream generation failure. The relay reports these as 500
// with the raw upstream message so the browser can show it.
func ProviderError(msg string, err error) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: msg, Log: err}
}

func RateLimitError(msg string) *Error {
	return &Error{Code: http.StatusTooManyRequests, Message: msg}
}
