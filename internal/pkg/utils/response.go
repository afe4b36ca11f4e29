package utils

import (
	"encoding/json"
	"net/http"

	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
)

// Response statuses.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Payload wraps the returned document or documents under data.data.
type Payload struct {
	Data interface{} `json:"data"`
}

// SuccessResponse represents a successful API response
type SuccessResponse struct {
	Status       string  `json:"status"`
	Results      *int    `json:"results,omitempty"`
	TotalResults *int64  `json:"totalResults,omitempty"`
	TotalPages   *int    `json:"totalPages,omitempty"`
	Page         *int    `json:"page,omitempty"`
	Data         Payload `json:"data"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

// ErrorDetail contains error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a single document
func WriteSuccess(w http.ResponseWriter, status int, data interface{}) error {
	return WriteJSON(w, status, SuccessResponse{
		Status: StatusSuccess,
		Data:   Payload{Data: data},
	})
}

// WriteList writes a page of documents with its counters
func WriteList(w http.ResponseWriter, status int, data interface{}, results int, page Page) error {
	return WriteJSON(w, status, SuccessResponse{
		Status:       StatusSuccess,
		Results:      &results,
		TotalResults: &page.TotalResults,
		TotalPages:   &page.TotalPages,
		Page:         &page.Page,
		Data:         Payload{Data: data},
	})
}

// WriteNoContent writes an empty 204 response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes an error JSON response from AppError. Client errors are
// reported as "fail", server errors as "error".
func WriteError(w http.ResponseWriter, err *errors.AppError) error {
	status := StatusFail
	if err.StatusCode >= http.StatusInternalServerError {
		status = StatusError
	}
	return WriteJSON(w, err.StatusCode, ErrorResponse{
		Status: status,
		Error: ErrorDetail{
			Code:    err.Code,
			Message: err.Message,
			Details: err.Details,
		},
	})
}

// WriteErrorMessage writes a simple error message
func WriteErrorMessage(w http.ResponseWriter, status int, code, message string) error {
	return WriteError(w, errors.New(code, message, status))
}
