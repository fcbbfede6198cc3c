package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/grootai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "value", result["key"])
}

func TestJSON_NilData(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, http.StatusCreated, map[string]string{"id": "123"})

	assert.Equal(t, http.StatusCreated, w.Code)

	var result SuccessResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "123", data["id"])
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusBadRequest, "invalid input")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var result ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "invalid input", result.Error)
}

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, http.StatusOK},
		{"validation error", domain.ErrEmptyQuery, http.StatusBadRequest},
		{"not found error", domain.ErrConversationNotFound, http.StatusNotFound},
		{"provider error", domain.Wrap(domain.ErrSearchProvider, errors.New("503")), http.StatusBadGateway},
		{"unauthorized error", domain.NewDomainError(domain.ErrCodeUnauthorized, "no"), http.StatusUnauthorized},
		{"internal error", domain.ErrDimensionMismatch, http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DomainErrorToHTTP(tt.err))
		})
	}
}

func TestHandleError(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, domain.ErrToolNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var result ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, domain.ErrCodeNotFound, result.Kind)
	assert.Equal(t, "[NOT_FOUND] tool not found", result.Error)
}

func TestOutcome(t *testing.T) {
	w := httptest.NewRecorder()
	Outcome(w, domain.Success([]string{"a"}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"value":["a"]}`, w.Body.String())

	w = httptest.NewRecorder()
	Outcome(w, domain.Fail(domain.Wrap(domain.ErrWeatherProvider, errors.New("down"))))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"failure":{"kind":"PROVIDER_ERROR","detail":"[PROVIDER_ERROR] weather provider failed: down"}}`, w.Body.String())
}

func TestBadBody(t *testing.T) {
	w := httptest.NewRecorder()
	BadBody(w, &http.MaxBytesError{Limit: 8})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"error":"request body too large","kind":"VALIDATION_ERROR"}`, w.Body.String())

	w = httptest.NewRecorder()
	BadBody(w, errors.New("unexpected EOF"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request body","kind":"VALIDATION_ERROR"}`, w.Body.String())
}
