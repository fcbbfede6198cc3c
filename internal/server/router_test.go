package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloo-solutions/grootai/internal/api/handlers"
	"github.com/cloo-solutions/grootai/internal/conversation"
	"github.com/cloo-solutions/grootai/internal/domain"
	"github.com/cloo-solutions/grootai/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	chunks []string
	err    error
}

func (s stubSearcher) Search(ctx context.Context, query string) ([]string, error) {
	return s.chunks, s.err
}

func newTestServer(t *testing.T, token string, svc tools.Services) *httptest.Server {
	t.Helper()
	dir, err := tools.Builtins(svc)
	require.NoError(t, err)
	store := conversation.NewStore()

	srv := httptest.NewServer(NewRouter(RouterConfig{
		APIToken:            token,
		ToolsHandler:        handlers.NewToolsHandler(dir, store),
		ConversationHandler: handlers.NewConversationHandler(store),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouter_HealthIsPublic(t *testing.T) {
	srv := newTestServer(t, "secret", tools.Services{})

	resp := do(t, http.MethodGet, srv.URL+"/health", "", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRouter_RequiresToken(t *testing.T) {
	srv := newTestServer(t, "secret", tools.Services{})

	assert.Equal(t, http.StatusUnauthorized, do(t, http.MethodGet, srv.URL+"/tools", "", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, do(t, http.MethodGet, srv.URL+"/tools", "wrong", "").StatusCode)
	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/tools", "secret", "").StatusCode)
}

func TestRouter_ListTools(t *testing.T) {
	srv := newTestServer(t, "", tools.Services{})

	resp := do(t, http.MethodGet, srv.URL+"/tools", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data handlers.ListToolsResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data.Tools, 4)
	assert.Equal(t, tools.HistoryName, body.Data.Tools[0].Function.Name)
	assert.Contains(t, body.Data.Guidance, "weather_tool:")
}

func TestRouter_ConversationThenHistory(t *testing.T) {
	srv := newTestServer(t, "", tools.Services{})

	resp := do(t, http.MethodPut, srv.URL+"/conversations/c-1", "", `{"turns":[{"role":"user","text":"hi"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/tools/history", "", `{"conversation_id":"c-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Value []domain.Turn `json:"value"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, []domain.Turn{{Role: domain.TurnRoleUser, Text: "hi"}}, out.Value)

	resp = do(t, http.MethodDelete, srv.URL+"/conversations/c-1", "", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/tools/history", "", `{"conversation_id":"c-1"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_ToolStatuses(t *testing.T) {
	srv := newTestServer(t, "", tools.Services{
		WebSearch: stubSearcher{err: domain.Wrap(domain.ErrSearchProvider, errors.New("HTTP 503"))},
	})

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown tool", "/tools/calculator", `{}`, http.StatusNotFound},
		{"bad arguments", "/tools/web_search_tool", `{"arguments":{"query":42}}`, http.StatusBadRequest},
		{"provider failure", "/tools/web_search_tool", `{"arguments":{"query":"x"}}`, http.StatusBadGateway},
		{"not configured", "/tools/weather_tool", `{"arguments":{"area":"Oslo"}}`, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+tt.path, "", tt.body)

			assert.Equal(t, tt.status, resp.StatusCode)
			var out domain.Outcome
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.NotNil(t, out.Failure)
		})
	}
}

func TestRouter_WebSearchSuccess(t *testing.T) {
	srv := newTestServer(t, "", tools.Services{WebSearch: stubSearcher{chunks: []string{"a", "b"}}})

	resp := do(t, http.MethodPost, srv.URL+"/tools/web_search_tool", "", `{"arguments":{"query":"x"}}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Value []string `json:"value"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, []string{"a", "b"}, out.Value)
}

func TestRouter_OversizedBodies(t *testing.T) {
	dir, err := tools.Builtins(tools.Services{})
	require.NoError(t, err)
	router := NewRouter(RouterConfig{ToolsHandler: handlers.NewToolsHandler(dir, nil)})
	body := `{"arguments":{"query":"` + strings.Repeat("a", int(maxBodyBytes)) + `"}}`

	t.Run("declared length", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tools/web_search_tool", strings.NewReader(body)))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("unknown length", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/tools/web_search_tool", io.MultiReader(strings.NewReader(body)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "request body too large")
	})
}
