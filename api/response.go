// Package api serves the tools over HTTP: routing, the JSON envelope,
// request validation and the middleware chain.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"seotools/domaininfo"
	"seotools/fetch"
	"seotools/imaging"
	"seotools/pdfprocessor"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ValidationError is a client mistake: a missing or malformed field.
// It is reported with HTTP 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// InternalError is an unexpected failure while serving a tool. Message is
// the tool-specific summary and Err the underlying cause; both are sent to
// the client with HTTP 500.
type InternalError struct {
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Messages used outside individual tools.
const (
	MessageInvalidJSON  = "Invalid JSON body"
	MessageRateLimited  = "Too many requests from this IP, please try again later"
	MessageNotFound     = "Not found"
	MessageUnauthorized = "Authentication required"
	MessageInternal     = "Internal server error"
)

// clientErrors are collaborator errors caused by the request itself, such
// as an unreachable scheme or an undecodable image. They are reported as
// ValidationErrors instead of InternalErrors.
var clientErrors = []error{
	fetch.ErrEmptyURL,
	fetch.ErrUnsupportedScheme,
	fetch.ErrTooLarge,
	fetch.ErrMalformedDataURL,
	fetch.ErrForbiddenAddress,
	imaging.ErrEmptyImage,
	imaging.ErrInvalidImage,
	imaging.ErrInvalidDimensions,
	imaging.ErrImageTooLarge,
	imaging.ErrUnsupportedFormat,
	pdfprocessor.ErrNotPDF,
	domaininfo.ErrInvalidDomain,
}

// classify turns a collaborator error into the error the client sees.
// failMessage is the tool's summary for unexpected failures.
func classify(err error, failMessage string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return NewValidationError(err.Error())
		}
	}
	var statusErr *fetch.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
		return NewValidationError(err.Error())
	}
	return &InternalError{Message: failMessage, Err: err}
}

// writeJSON writes v with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeSuccess writes {success:true, data}.
func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// writeMessage writes {success:false, message} with status.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: false, Message: message})
}

// writeError maps err to a status and envelope.
func writeError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		writeMessage(w, http.StatusBadRequest, ve.Message)
		return
	}
	var ie *InternalError
	if errors.As(err, &ie) {
		env := Envelope{Success: false, Message: ie.Message}
		if ie.Err != nil {
			env.Error = ie.Err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, env)
		return
	}
	writeJSON(w, http.StatusInternalServerError, Envelope{Success: false, Message: MessageInternal, Error: err.Error()})
}
