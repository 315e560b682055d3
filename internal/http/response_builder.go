// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// and the mapping from ledger errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Error codes carried in error bodies.
const (
	CodeInvalidAmount      = "invalid_amount"
	CodeInvalidDate        = "invalid_date"
	CodeEmptyName          = "empty_name"
	CodeBadRequest         = "bad_request"
	CodeNotFound           = "not_found"
	CodeStorageUnavailable = "storage_unavailable"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal"
)

// errBadInput marks request problems that are not ledger validation errors:
// malformed JSON, unparsable query parameters, bad path ids.
var errBadInput = errors.New("bad input")

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body. A nil body writes
// only the status line.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	data, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"response encoding failed","code":"internal"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n"))
}

// ErrorResponse creates an error response with the given status and code.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Error: message, Code: code})
}

// classify maps an error to its status code and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, core.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, CodeStorageUnavailable
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, CodeInvalidAmount
	case errors.Is(err, core.ErrInvalidDate):
		return http.StatusUnprocessableEntity, CodeInvalidDate
	case errors.Is(err, core.ErrEmptyName):
		return http.StatusUnprocessableEntity, CodeEmptyName
	case errors.Is(err, errBadInput):
		return http.StatusUnprocessableEntity, CodeBadRequest
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// FromError builds the error response for err. Server errors are logged
// and their message is not exposed.
func FromError(r *http.Request, err error) *JSONResponseBuilder {
	status, code := classify(err)
	logger := log.FromContext(r.Context())
	message := err.Error()
	switch {
	case status >= 500:
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err, log.FieldPath, r.URL.Path)
		if status == http.StatusInternalServerError {
			message = "internal error"
		} else {
			message = core.ErrStorageUnavailable.Error()
		}
	default:
		logger.DebugContext(r.Context(), "Request rejected", log.FieldError, err, log.FieldPath, r.URL.Path)
	}
	return ErrorResponse(status, code, message)
}

// writeError is shorthand for FromError(r, err).Write(w).
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	FromError(r, err).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}
