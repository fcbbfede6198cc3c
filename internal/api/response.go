package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloo-solutions/grootai/internal/domain"
)

// SuccessResponse wraps successful API responses
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Success writes a successful JSON response
func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, SuccessResponse{Data: data})
}

// Error writes an error JSON response
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// BadBody answers a request whose JSON body could not be decoded. Bodies cut
// off by MaxBodyBytes get 413, everything else 400.
func BadBody(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		JSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large", Kind: domain.ErrCodeValidation})
		return
	}
	JSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Kind: domain.ErrCodeValidation})
}

// KindToHTTP maps a domain error code or outcome failure kind to a status
func KindToHTTP(kind string) int {
	switch kind {
	case domain.ErrCodeValidation:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrCodeProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// DomainErrorToHTTP maps domain errors to HTTP status codes
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError
	}
	return KindToHTTP(domainErr.Code)
}

// HandleError writes an appropriate error response based on the error type
func HandleError(w http.ResponseWriter, err error) {
	JSON(w, DomainErrorToHTTP(err), ErrorResponse{Error: err.Error(), Kind: domain.CodeOf(err)})
}

// Outcome writes a tool outcome: 200 with the outcome on success, otherwise
// the status of its failure kind with the outcome as body.
func Outcome(w http.ResponseWriter, outcome domain.Outcome) {
	if outcome.OK() {
		JSON(w, http.StatusOK, outcome)
		return
	}
	JSON(w, KindToHTTP(outcome.Failure.Kind), outcome)
}
