package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ppiankov/taskgraph/internal/history"
	"github.com/ppiankov/taskgraph/internal/task"
)

// ErrBodyTooLarge is returned when a request body exceeds the configured limit.
var ErrBodyTooLarge = errors.New("request body too large")

// ErrorCode is the machine-readable code in an error response.
type ErrorCode string

const (
	CodeInvalidInput   ErrorCode = "invalid_input"
	CodeDuplicateID    ErrorCode = "duplicate_id"
	CodeCycle          ErrorCode = "dependency_cycle"
	CodeBodyTooLarge   ErrorCode = "body_too_large"
	CodeReportNotFound ErrorCode = "report_not_found"
	CodeHistoryOff     ErrorCode = "history_disabled"
	CodeCancelled      ErrorCode = "cancelled"
	CodeInternalError  ErrorCode = "internal_error"
)

// errHistoryDisabled is returned by report endpoints when no store is configured.
var errHistoryDisabled = errors.New("report history is disabled")

// HTTPError is an error with its HTTP status and response code.
type HTTPError struct {
	StatusCode int
	Code       ErrorCode
	Err        error
}

func (e *HTTPError) Error() string {
	return e.Err.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// MapError maps a domain error to an HTTPError.
func MapError(err error) *HTTPError {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return &HTTPError{http.StatusRequestEntityTooLarge, CodeBodyTooLarge, err}

	case errors.Is(err, task.ErrDuplicateID):
		return &HTTPError{http.StatusBadRequest, CodeDuplicateID, err}

	case errors.Is(err, task.ErrInvalidInput):
		return &HTTPError{http.StatusBadRequest, CodeInvalidInput, err}

	case errors.Is(err, task.ErrCycle):
		return &HTTPError{http.StatusUnprocessableEntity, CodeCycle, err}

	case errors.Is(err, history.ErrNotFound):
		return &HTTPError{http.StatusNotFound, CodeReportNotFound, err}

	case errors.Is(err, errHistoryDisabled):
		return &HTTPError{http.StatusNotFound, CodeHistoryOff, err}

	case errors.Is(err, context.Canceled):
		// 499: client closed request
		return &HTTPError{499, CodeCancelled, err}

	default:
		return &HTTPError{http.StatusInternalServerError, CodeInternalError, err}
	}
}

type errorBody struct {
	Error errorDTO `json:"error"`
}

type errorDTO struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cycle   []string  `json:"cycle,omitempty"`
}

// WriteError writes err as a JSON error response.
func WriteError(w http.ResponseWriter, err error) {
	httpErr := MapError(err)
	if httpErr == nil {
		return
	}

	dto := errorDTO{Code: httpErr.Code, Message: httpErr.Error()}
	var ce *task.CycleError
	if errors.As(err, &ce) {
		dto.Cycle = ce.Cycle
	}
	writeJSON(w, httpErr.StatusCode, errorBody{Error: dto})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
