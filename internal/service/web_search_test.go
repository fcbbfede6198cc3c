package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloo-solutions/grootai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSearchProvider mocks the search engine client
type MockSearchProvider struct {
	mock.Mock
}

func (m *MockSearchProvider) Search(ctx context.Context, query string, max int) ([]domain.SearchResult, error) {
	args := m.Called(ctx, query, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchResult), args.Error(1)
}

// MockDocumentFetcher mocks the page fetcher
type MockDocumentFetcher struct {
	mock.Mock
}

func (m *MockDocumentFetcher) Fetch(ctx context.Context, url string) (*domain.Document, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

// lookupEmbedder returns a fixed vector per text and records every batch.
type lookupEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	batches [][]string
	err     error
}

func (e *lookupEmbedder) GenerateEmbeddings(ctx context.Context, input []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batches = append(e.batches, input)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(input))
	for i, text := range input {
		vec, ok := e.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", text)
		}
		out[i] = vec
	}
	return out, nil
}

func pageWords(prefix string, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(words, " ")
}

func searchResults(urls ...string) []domain.SearchResult {
	out := make([]domain.SearchResult, len(urls))
	for i, u := range urls {
		out[i] = domain.SearchResult{URL: u}
	}
	return out
}

// Each 8-word page splits into two 5-token chunks sharing one token.
func newTestWebSearch(provider SearchProvider, fetcher DocumentFetcher, embedder EmbeddingClient) *WebSearchService {
	chunker := NewTokenChunker(newWordTokenizer(), ChunkConfig{MaxTokens: 5, Overlap: 1})
	return NewWebSearchService(provider, fetcher, chunker, embedder, WebSearchConfig{
		MaxResults:       3,
		TopK:             4,
		FetchConcurrency: 3,
		Timeout:          5 * time.Second,
	})
}

func TestWebSearchService_ReturnsClosestChunks(t *testing.T) {
	provider := new(MockSearchProvider)
	fetcher := new(MockDocumentFetcher)

	provider.On("Search", mock.Anything, "electric car sales", 3).
		Return(searchResults("https://a", "https://b", "https://c"), nil)
	fetcher.On("Fetch", mock.Anything, "https://a").Return(&domain.Document{SourceURL: "https://a", Text: pageWords("a", 8)}, nil)
	fetcher.On("Fetch", mock.Anything, "https://b").Return(&domain.Document{SourceURL: "https://b", Text: pageWords("b", 8)}, nil)
	fetcher.On("Fetch", mock.Anything, "https://c").Return(&domain.Document{SourceURL: "https://c", Text: pageWords("c", 8)}, nil)

	embedder := &lookupEmbedder{vectors: map[string][]float32{
		"electric car sales": {0, 0},
		"a0 a1 a2 a3 a4":     {5, 0},
		"a4 a5 a6 a7":        {1, 0},
		"b0 b1 b2 b3 b4":     {0, 3},
		"b4 b5 b6 b7":        {6, 0},
		"c0 c1 c2 c3 c4":     {2, 0},
		"c4 c5 c6 c7":        {0, 4},
	}}

	svc := newTestWebSearch(provider, fetcher, embedder)
	out, err := svc.Search(context.Background(), "  electric car sales ")

	require.NoError(t, err)
	assert.Equal(t, []string{"a4 a5 a6 a7", "c0 c1 c2 c3 c4", "b0 b1 b2 b3 b4", "c4 c5 c6 c7"}, out)
	require.Len(t, embedder.batches, 2)
	assert.Len(t, embedder.batches[0], 6, "all chunks embedded in one call")
	assert.Equal(t, []string{"electric car sales"}, embedder.batches[1])
	provider.AssertExpectations(t)
	fetcher.AssertExpectations(t)
}

func TestWebSearchService_AllFetchesFailReturnsEmpty(t *testing.T) {
	provider := new(MockSearchProvider)
	fetcher := new(MockDocumentFetcher)
	embedder := &lookupEmbedder{}

	provider.On("Search", mock.Anything, "q", 3).Return(searchResults("https://a", "https://b"), nil)
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	out, err := newTestWebSearch(provider, fetcher, embedder).Search(context.Background(), "q")

	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Empty(t, embedder.batches)
}

func TestWebSearchService_NoResultsSkipsFetchAndEmbed(t *testing.T) {
	provider := new(MockSearchProvider)
	fetcher := new(MockDocumentFetcher)
	embedder := &lookupEmbedder{}

	provider.On("Search", mock.Anything, "nothing", 3).Return([]domain.SearchResult{}, nil)

	out, err := newTestWebSearch(provider, fetcher, embedder).Search(context.Background(), "nothing")

	require.NoError(t, err)
	assert.Equal(t, []string{}, out)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	assert.Empty(t, embedder.batches)
}

func TestWebSearchService_PartialFetchUsesSurvivors(t *testing.T) {
	provider := new(MockSearchProvider)
	fetcher := new(MockDocumentFetcher)

	provider.On("Search", mock.Anything, "q", 3).Return(searchResults("https://a", "https://b", "https://c"), nil)
	fetcher.On("Fetch", mock.Anything, "https://a").Return(nil, errors.New("timeout"))
	fetcher.On("Fetch", mock.Anything, "https://b").Return(&domain.Document{SourceURL: "https://b", Text: "only page"}, nil)
	fetcher.On("Fetch", mock.Anything, "https://c").Return(nil, errors.New("HTTP 500"))

	embedder := &lookupEmbedder{vectors: map[string][]float32{
		"q":         {1},
		"only page": {2},
	}}

	out, err := newTestWebSearch(provider, fetcher, embedder).Search(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, []string{"only page"}, out)
}

func TestWebSearchService_EmptyPagesProduceNoChunks(t *testing.T) {
	provider := new(MockSearchProvider)
	fetcher := new(MockDocumentFetcher)
	embedder := &lookupEmbedder{}

	provider.On("Search", mock.Anything, "q", 3).Return(searchResults("https://a"), nil)
	fetcher.On("Fetch", mock.Anything, "https://a").Return(&domain.Document{SourceURL: "https://a", Text: " \n "}, nil)

	out, err := newTestWebSearch(provider, fetcher, embedder).Search(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, []string{}, out)
	assert.Empty(t, embedder.batches)
}

func TestWebSearchService_SearchProviderError(t *testing.T) {
	provider := new(MockSearchProvider)
	fetcher := new(MockDocumentFetcher)

	provider.On("Search", mock.Anything, "q", 3).Return(nil, errors.New("search returned HTTP 503"))

	_, err := newTestWebSearch(provider, fetcher, &lookupEmbedder{}).Search(context.Background(), "q")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSearchProvider)
	assert.Equal(t, domain.ErrCodeProvider, domain.CodeOf(err))
	assert.Contains(t, err.Error(), "HTTP 503")
}

func TestWebSearchService_EmbeddingProviderError(t *testing.T) {
	provider := new(MockSearchProvider)
	fetcher := new(MockDocumentFetcher)
	embedder := &lookupEmbedder{err: errors.New("invalid api key")}

	provider.On("Search", mock.Anything, "q", 3).Return(searchResults("https://a"), nil)
	fetcher.On("Fetch", mock.Anything, "https://a").Return(&domain.Document{SourceURL: "https://a", Text: "some text"}, nil)

	_, err := newTestWebSearch(provider, fetcher, embedder).Search(context.Background(), "q")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingProvider)
	assert.Equal(t, domain.ErrCodeProvider, domain.CodeOf(err))
}

func TestWebSearchService_EmptyQuery(t *testing.T) {
	provider := new(MockSearchProvider)

	_, err := newTestWebSearch(provider, new(MockDocumentFetcher), &lookupEmbedder{}).Search(context.Background(), "   ")

	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	provider.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebSearchService_TruncatesExtraResults(t *testing.T) {
	provider := new(MockSearchProvider)
	fetcher := new(MockDocumentFetcher)

	provider.On("Search", mock.Anything, "q", 3).
		Return(searchResults("https://a", "https://b", "https://c", "https://d"), nil)
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(nil, errors.New("down"))

	_, err := newTestWebSearch(provider, fetcher, &lookupEmbedder{}).Search(context.Background(), "q")

	require.NoError(t, err)
	fetcher.AssertNumberOfCalls(t, "Fetch", 3)
}

// blockingFetcher waits until its context ends.
type blockingFetcher struct{}

func (blockingFetcher) Fetch(ctx context.Context, url string) (*domain.Document, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestWebSearchService_DeadlineCancelsSlowFetches(t *testing.T) {
	provider := new(MockSearchProvider)
	provider.On("Search", mock.Anything, "q", 3).Return(searchResults("https://slow"), nil)
	embedder := &lookupEmbedder{}

	chunker := NewTokenChunker(newWordTokenizer(), ChunkConfig{MaxTokens: 5, Overlap: 1})
	svc := NewWebSearchService(provider, blockingFetcher{}, chunker, embedder, WebSearchConfig{
		Timeout: 50 * time.Millisecond,
	})

	start := time.Now()
	out, err := svc.Search(context.Background(), "q")

	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrSearchInterrupted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.ErrCodeProvider, domain.CodeOf(err))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Empty(t, embedder.batches)
}

func TestWebSearchService_CallerCancellationDuringFetch(t *testing.T) {
	provider := new(MockSearchProvider)
	provider.On("Search", mock.Anything, "q", 3).Return(searchResults("https://slow"), nil)
	embedder := &lookupEmbedder{}

	chunker := NewTokenChunker(newWordTokenizer(), ChunkConfig{MaxTokens: 5, Overlap: 1})
	svc := NewWebSearchService(provider, blockingFetcher{}, chunker, embedder, WebSearchConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	out, err := svc.Search(ctx, "q")

	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrSearchInterrupted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, embedder.batches)
}
