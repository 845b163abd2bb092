package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Code is an error code. Codes reuse http status codes so they can be served as-is.
type Code int

const (
	Internal    Code = http.StatusInternalServerError
	NotFound    Code = http.StatusNotFound
	Forbidden   Code = http.StatusForbidden
	Validation  Code = http.StatusBadRequest
	Unavailable Code = http.StatusServiceUnavailable
)

// Error is a custom error
type Error struct {
	Code     Code     `json:"code"`
	Messages []string `json:"messages"`
	Err      error    `json:"err,omitempty"`
}

// Error returns the Error as a json string
func (e *Error) Error() string {
	if e.Code == 0 {
		e.Code = http.StatusOK
	}
	bits, _ := json.Marshal(struct {
		Code     Code     `json:"code"`
		Messages []string `json:"messages"`
		Err      string   `json:"err,omitempty"`
	}{
		Code:     e.Code,
		Messages: e.Messages,
		Err:      errString(e.Err),
	})
	return string(bits)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the most recent message on the error, falling back to the wrapped error's text
func (e *Error) Message() string {
	if len(e.Messages) > 0 {
		return e.Messages[len(e.Messages)-1]
	}
	return errString(e.Err)
}

// RemoveError removes the error from the Error and leaves it's messages and code
func (e *Error) RemoveError() *Error {
	return &Error{
		Code:     e.Code,
		Messages: e.Messages,
		Err:      nil,
	}
}

// New creates a new error with the given code and message
func New(code Code, msg string, args ...any) error {
	return &Error{
		Code:     code,
		Messages: []string{fmt.Sprintf(msg, args...)},
	}
}

// Extract extracts the custom Error from the given error
func Extract(err error) *Error {
	if err == nil {
		return nil
	}
	e, ok := err.(*Error)
	if !ok {
		return &Error{
			Code:     0,
			Messages: nil,
			Err:      err,
		}
	}
	return e
}

// Wrap wraps the given error and returns a new one. A nil error returns nil.
func Wrap(err error, code Code, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	e, ok := err.(*Error)
	if ok {
		if msg != "" {
			e.Messages = append(e.Messages, fmt.Sprintf(msg, args...))
		}
		if code > 0 {
			e.Code = code
		}
		return e
	}
	e = &Error{
		Code: code,
		Err:  err,
	}
	if msg != "" {
		e.Messages = append(e.Messages, fmt.Sprintf(msg, args...))
	}
	return e
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
