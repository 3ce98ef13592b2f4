// Package httpapi holds the JSON response helpers shared by the service
// HTTP handlers.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/ftgo/order-system/shared/apperrors"
)

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes v with the given status
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto a status code
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusOf(err), ErrorResponse{Error: err.Error()})
}

// StatusOf returns the HTTP status for an application error
func StatusOf(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsStateTransition(err), apperrors.IsOptimisticLock(err):
		return http.StatusConflict
	case apperrors.IsBusinessRule(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a JSON request body into v
func Decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.Validation("invalid request body: %v", err)
	}
	return nil
}
