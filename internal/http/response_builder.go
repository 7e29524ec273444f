// Package http exposes the accounts, transactions and projections as a JSON API.
//
// This file implements a small builder for JSON responses and the mapping
// from domain errors to status codes.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/middleware/trace"
	"budget/internal/store"
)

// errBadRequest marks malformed input that never reached the domain.
var errBadRequest = errors.New("bad request")

// validationErrors are reported as 422 Unprocessable Entity.
var validationErrors = []error{
	core.ErrInvalidBalance,
	core.ErrInvalidMonth,
	core.ErrInvalidDate,
	core.ErrInvalidAmount,
	core.ErrEmptyLabel,
	core.ErrLabelTooLong,
	core.ErrInvalidCategory,
	core.ErrInvalidDirection,
	core.ErrInvalidAccountType,
	core.ErrUnknownBank,
}

// ErrorBody is the payload of every error response. RequestID matches the
// X-Request-ID response header.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// JSONResponse provides a fluent API for building JSON responses.
type JSONResponse struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponse {
	return &JSONResponse{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponse) Status(code int) *JSONResponse {
	b.statusCode = code
	return b
}

func (b *JSONResponse) Header(name, value string) *JSONResponse {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body. A nil body writes no content.
func (b *JSONResponse) Body(v any) *JSONResponse {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponse) Write(w http.ResponseWriter) {
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
		_, _ = w.Write([]byte(`{"error":"encoding failed"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(data, '\n'))
}

// ErrorResponse creates a JSON error response tagged with the request ID.
func ErrorResponse(r *http.Request, statusCode int, message string) *JSONResponse {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{
		Error:     message,
		RequestID: trace.GetRequestID(r.Context()),
	})
}

// StatusFor maps an error returned by the store, the stats service or the
// request parsers to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateID):
		return http.StatusConflict
	case isValidation(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func isValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeError reports err to the client and logs it with its category.
// Internal errors are replaced by a generic message; a negative balance always
// carries the fixed message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	errorType := errorTypeFor(err)

	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(), "Request failed", err,
		errorType, applog.ComponentHTTP, operationFor(r, err),
		applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", "").WithAccount(r.PathValue("id"), r.PathValue("txID")))

	msg := err.Error()
	switch errorType {
	case applog.ErrorTypeInternal:
		msg = "internal error"
	case applog.ErrorTypeBalance:
		msg = core.ErrInvalidBalance.Error()
	}
	ErrorResponse(r, status, msg).Write(w)
}

func errorTypeFor(err error) string {
	switch {
	case errors.Is(err, errBadRequest):
		return applog.ErrorTypeRequest
	case errors.Is(err, store.ErrNotFound):
		return applog.ErrorTypeNotFound
	case errors.Is(err, store.ErrDuplicateID):
		return applog.ErrorTypeConflict
	case errors.Is(err, core.ErrInvalidBalance):
		return applog.ErrorTypeBalance
	case isValidation(err):
		return applog.ErrorTypeValidation
	default:
		return applog.ErrorTypeInternal
	}
}

// operationFor names what the failed request was doing.
func operationFor(r *http.Request, err error) string {
	switch {
	case errors.Is(err, errBadRequest):
		return applog.OpParse
	case strings.HasSuffix(r.Pattern, "/toggle"):
		return applog.OpToggle
	}
	switch r.Method {
	case http.MethodPost:
		return applog.OpCreate
	case http.MethodPut, http.MethodPatch:
		return applog.OpUpdate
	case http.MethodDelete:
		return applog.OpDelete
	}
	if strings.HasSuffix(r.Pattern, "}") || strings.HasSuffix(r.Pattern, "/balance") {
		return applog.OpRead
	}
	return applog.OpList
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}
