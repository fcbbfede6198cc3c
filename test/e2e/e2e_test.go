//go:build e2e

package e2e

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/cloo-solutions/grootai/internal/api/handlers"
	"github.com/cloo-solutions/grootai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestE2E_Auth(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	status, _ := env.Do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.Do(http.MethodGet, "/tools", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.Do(http.MethodGet, "/tools", nil, "wrong")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.Do(http.MethodGet, "/tools", nil, apiToken)
	assert.Equal(t, http.StatusOK, status)
}

func TestE2E_WebSearch(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	call := handlers.InvokeToolRequest{Arguments: json.RawMessage(`{"query":"electric car sales"}`)}

	t.Run("ranks chunks by relevance to the query", func(t *testing.T) {
		status, body := env.CallTool("web_search_tool", call)
		require.Equal(t, http.StatusOK, status, string(body))

		var out struct {
			Value []string `json:"value"`
		}
		require.NoError(t, json.Unmarshal(body, &out))
		require.Len(t, out.Value, 3)
		assert.Contains(t, out.Value[0], "Electric car sales grew")
		assert.Contains(t, out.Value[1], "lentil soup")
		assert.Contains(t, out.Value[2], "weather stays mild")
		for _, chunk := range out.Value {
			assert.NotContains(t, chunk, "var x")
			assert.NotContains(t, chunk, "past the result limit")
		}
	})

	t.Run("caches chunk and query embeddings", func(t *testing.T) {
		n, err := env.Cache.Count(env.Ctx, embeddingModel)
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		before := env.EmbeddingCalls.Load()
		status, _ := env.CallTool("web_search_tool", call)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, before, env.EmbeddingCalls.Load())
	})

	t.Run("expired entries are pruned", func(t *testing.T) {
		removed, err := env.Cache.PruneOlderThan(env.Ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(4), removed)
	})

	t.Run("empty query is a validation failure", func(t *testing.T) {
		status, body := env.CallTool("web_search_tool", handlers.InvokeToolRequest{Arguments: json.RawMessage(`{"query":"  "}`)})

		assert.Equal(t, http.StatusBadRequest, status)
		var out domain.Outcome
		require.NoError(t, json.Unmarshal(body, &out))
		require.NotNil(t, out.Failure)
		assert.Equal(t, domain.ErrCodeValidation, out.Failure.Kind)
	})
}

func TestE2E_Visual(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	t.Run("describes the image and keeps a scratch copy", func(t *testing.T) {
		args, _ := json.Marshal(map[string]string{
			"prompt":    "what breed is this dog?",
			"image_url": env.Web.URL + "/images/dog.png",
		})
		status, body := env.CallTool("visual_tool", handlers.InvokeToolRequest{Arguments: args})
		require.Equal(t, http.StatusOK, status, string(body))

		var out struct {
			Value string `json:"value"`
		}
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, "A beagle sitting on grass.", out.Value)

		removed, err := env.S3Client.Prune(env.Ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 1, removed)
	})

	t.Run("missing image is a provider failure", func(t *testing.T) {
		args, _ := json.Marshal(map[string]string{
			"prompt":    "what is this?",
			"image_url": env.Web.URL + "/images/missing.png",
		})
		status, body := env.CallTool("visual_tool", handlers.InvokeToolRequest{Arguments: args})

		assert.Equal(t, http.StatusBadGateway, status)
		var out domain.Outcome
		require.NoError(t, json.Unmarshal(body, &out))
		require.NotNil(t, out.Failure)
		assert.Contains(t, out.Failure.Detail, "image fetch returned status 404")
	})
}

func TestE2E_ConversationHistory(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	turns := []domain.Turn{
		{Role: domain.TurnRoleUser, Text: "What's the weather in Lagos?"},
		{Role: domain.TurnRoleAssistant, Text: "Warm and humid."},
	}
	status, _ := env.Do(http.MethodPut, "/conversations/c-1", map[string]any{"turns": turns}, apiToken)
	require.Equal(t, http.StatusOK, status)

	status, body := env.CallTool("history", handlers.InvokeToolRequest{ConversationID: "c-1"})
	require.Equal(t, http.StatusOK, status)

	var out struct {
		Value []domain.Turn `json:"value"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, turns, out.Value)

	status, body = env.CallTool("weather_tool", handlers.InvokeToolRequest{Arguments: json.RawMessage(`{"area":"Lagos"}`)})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, string(body), "weather provider not configured")
}
