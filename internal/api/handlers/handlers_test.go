package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
)

// requestWithParam builds a request whose chi route context carries key=value.
func requestWithParam(method, url string, body []byte, key, value string) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	if body == nil {
		req = httptest.NewRequest(method, url, nil)
	}
	req.Header.Set("Content-Type", "application/json")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
