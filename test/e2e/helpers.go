//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloo-solutions/grootai/internal/api/handlers"
	"github.com/cloo-solutions/grootai/internal/conversation"
	"github.com/cloo-solutions/grootai/internal/fetch"
	"github.com/cloo-solutions/grootai/internal/openai"
	"github.com/cloo-solutions/grootai/internal/repository"
	"github.com/cloo-solutions/grootai/internal/search"
	"github.com/cloo-solutions/grootai/internal/server"
	"github.com/cloo-solutions/grootai/internal/service"
	"github.com/cloo-solutions/grootai/internal/storage"
	"github.com/cloo-solutions/grootai/internal/testutil"
	"github.com/cloo-solutions/grootai/internal/tools"
	"github.com/jackc/pgx/v5/pgxpool"
	goopenai "github.com/sashabaranov/go-openai"
)

const (
	apiToken       = "grt_e2e_token"
	embeddingModel = "fake-embedding"
	cacheTTL       = time.Hour
)

// keywords give every text a 3-dimensional direction in the fake embedding space.
var keywords = []string{"electric", "weather", "recipe"}

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	RustFSC    *testutil.RustFSContainer
	Pool       *pgxpool.Pool
	Cache      *repository.EmbeddingCacheRepository
	S3Client   *storage.S3Client
	Web        *httptest.Server
	OpenAI     *httptest.Server
	Server     *httptest.Server
	HTTPClient *http.Client

	// EmbeddingCalls counts requests that reached the embeddings endpoint
	EmbeddingCalls atomic.Int64
}

// SetupE2EEnv starts Postgres and RustFS, fake web and OpenAI endpoints, and
// a tool server wired the way grootd wires it.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     testutil.RustFSAccessKey,
		SecretAccessKey: testutil.RustFSSecretKey,
		Bucket:          "test-scratch",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	testutil.Retry(t, 10, func() error { return s3Client.EnsureBucket(ctx) })

	env := &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		RustFSC:    s3C,
		Pool:       pool,
		Cache:      repository.NewEmbeddingCacheRepository(pool),
		S3Client:   s3Client,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	env.Web = httptest.NewServer(env.webHandler())
	env.OpenAI = httptest.NewServer(env.openAIHandler())
	env.Server = httptest.NewServer(env.router())

	return env
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	for _, srv := range []*httptest.Server{e.Server, e.OpenAI, e.Web} {
		if srv != nil {
			srv.Close()
		}
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

func (e *E2ETestEnv) router() http.Handler {
	client := openai.NewClientWithConfig(openai.Config{
		APIKey:              "sk-e2e",
		BaseURL:             e.OpenAI.URL + "/v1",
		EmbeddingModel:      goopenai.EmbeddingModel(embeddingModel),
		EmbeddingDimensions: len(keywords),
		VisionModel:         "fake-vision",
	})
	embedder := service.NewCachedEmbeddingClient(client, e.Cache, client.Model(), cacheTTL)

	tokenizer, err := service.NewTiktokenTokenizer("cl100k_base")
	if err != nil {
		e.T.Fatalf("failed to load tokenizer: %v", err)
	}
	chunker := service.NewTokenChunker(tokenizer, service.DefaultChunkConfig())
	fetcher := fetch.NewHTTPFetcher(fetch.Config{})
	searcher := search.NewDuckDuckGoClient(search.Config{BaseURL: e.Web.URL + "/search"})

	dir, err := tools.Builtins(tools.Services{
		WebSearch: service.NewWebSearchService(searcher, fetcher, chunker, embedder, service.DefaultWebSearchConfig()),
		Visual:    service.NewVisualService(fetcher, e.S3Client, client),
	})
	if err != nil {
		e.T.Fatalf("failed to build tools: %v", err)
	}

	store := conversation.NewStore()
	return server.NewRouter(server.RouterConfig{
		APIToken:            apiToken,
		ToolsHandler:        handlers.NewToolsHandler(dir, store),
		ConversationHandler: handlers.NewConversationHandler(store),
	})
}

// webHandler serves a DuckDuckGo-style result page and the pages it links.
// Results are ranked recipe, EV, weather so relevance has to reorder them.
func (e *E2ETestEnv) webHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		fmt.Fprintf(w, `<html><body>
<div class="result"><a class="result__a" href="%[1]s/pages/recipe">Recipes</a></div>
<div class="result"><a class="result__a" href="%[1]s/pages/ev">EV market</a></div>
<div class="result"><a class="result__a" href="%[1]s/pages/weather">Weather</a></div>
<div class="result"><a class="result__a" href="%[1]s/pages/extra">Extra</a></div>
</body></html>`, base)
	})
	pages := map[string]string{
		"recipe":  "A quick recipe for lentil soup.",
		"ev":      "Electric car sales grew again as electric models got cheaper.",
		"weather": "The weather stays mild this week.",
		"extra":   "This page is past the result limit.",
	}
	mux.HandleFunc("/pages/", func(w http.ResponseWriter, r *http.Request) {
		text, ok := pages[strings.TrimPrefix(r.URL.Path, "/pages/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><head><title>t</title><script>var x = 1;</script></head><body><p>%s</p></body></html>", text)
	})
	mux.HandleFunc("/images/dog.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	})
	return mux
}

// openAIHandler fakes the embeddings and chat completions endpoints.
func (e *E2ETestEnv) openAIHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		e.EmbeddingCalls.Add(1)
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data := make([]map[string]any, len(req.Input))
		for i, text := range req.Input {
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": keywordVector(text)}
		}
		writeJSON(w, map[string]any{"object": "list", "model": req.Model, "data": data})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		answer := "no image received"
		if bytes.Contains(body, []byte("data:image/png;base64,")) {
			answer = "A beagle sitting on grass."
		}
		writeJSON(w, map[string]any{
			"id":     "chatcmpl-e2e",
			"object": "chat.completion",
			"model":  "fake-vision",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": answer},
			}},
		})
	})
	return mux
}

// keywordVector is the unit vector of keyword counts in text, or zero.
func keywordVector(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(keywords))
	var norm float64
	for i, k := range keywords {
		n := float64(strings.Count(lower, k))
		vec[i] = float32(n)
		norm += n * n
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// Do sends a JSON request to the tool server and returns status and body.
func (e *E2ETestEnv) Do(method, path string, body any, token string) (int, []byte) {
	e.T.Helper()
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.T.Fatalf("failed to marshal body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.Server.URL+path, reqBody)
	if err != nil {
		e.T.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		e.T.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read body: %v", err)
	}
	return resp.StatusCode, respBody
}

// CallTool invokes a tool with the test token.
func (e *E2ETestEnv) CallTool(name string, req handlers.InvokeToolRequest) (int, []byte) {
	return e.Do(http.MethodPost, "/tools/"+name, req, apiToken)
}

// pngBytes is a 1x1 transparent PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
