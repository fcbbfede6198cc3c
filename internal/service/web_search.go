package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cloo-solutions/grootai/internal/domain"
	"github.com/cloo-solutions/grootai/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// SearchProvider returns result URLs for a query in rank order.
type SearchProvider interface {
	Search(ctx context.Context, query string, max int) ([]domain.SearchResult, error)
}

// DocumentFetcher retrieves the text of one page.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*domain.Document, error)
}

// WebSearchConfig tunes the retrieval pipeline.
type WebSearchConfig struct {
	MaxResults       int
	TopK             int
	FetchConcurrency int
	Timeout          time.Duration
}

// DefaultWebSearchConfig fetches three pages and returns four chunks.
func DefaultWebSearchConfig() WebSearchConfig {
	return WebSearchConfig{
		MaxResults:       3,
		TopK:             4,
		FetchConcurrency: 3,
		Timeout:          60 * time.Second,
	}
}

// WebSearchService answers a query with the page chunks closest to it. Each
// call builds and discards its own index; only the collaborators are shared.
type WebSearchService struct {
	provider SearchProvider
	fetcher  DocumentFetcher
	chunker  *TokenChunker
	embedder EmbeddingClient
	cfg      WebSearchConfig
}

func NewWebSearchService(
	provider SearchProvider,
	fetcher DocumentFetcher,
	chunker *TokenChunker,
	embedder EmbeddingClient,
	cfg WebSearchConfig,
) *WebSearchService {
	defaults := DefaultWebSearchConfig()
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaults.MaxResults
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaults.TopK
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = defaults.FetchConcurrency
	}
	return &WebSearchService{
		provider: provider,
		fetcher:  fetcher,
		chunker:  chunker,
		embedder: embedder,
		cfg:      cfg,
	}
}

// Search runs fanout, fetch, chunk, embed, index and retrieve, returning at
// most TopK chunk texts, closest first.
func (s *WebSearchService) Search(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	ctx, span := telemetry.StartSpan(ctx, "web_search.pipeline", telemetry.SpanAttributes{Tool: "web_search_tool"})
	defer span.End()

	results, err := s.fanout(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if len(results) == 0 {
		return []string{}, nil
	}

	docs := s.fetchAll(ctx, results)
	if err := ctx.Err(); err != nil {
		err = domain.Wrap(domain.ErrSearchInterrupted, err)
		span.SetError(err)
		return nil, err
	}

	chunks := s.chunker.SplitAll(docs)
	span.SetData("documents", len(docs))
	span.SetData("chunks", len(chunks))
	if len(chunks) == 0 {
		return []string{}, nil
	}

	index, err := s.buildIndex(ctx, chunks)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	hits, err := s.retrieve(ctx, index, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	out := make([]string, len(hits))
	for i, hit := range hits {
		out[i] = hit.Chunk.Text
	}
	return out, nil
}

func (s *WebSearchService) fanout(ctx context.Context, query string) ([]domain.SearchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "web_search.fanout", telemetry.SpanAttributes{Stage: "fanout"})
	defer span.End()

	results, err := s.provider.Search(ctx, query, s.cfg.MaxResults)
	if err != nil {
		return nil, domain.Wrap(domain.ErrSearchProvider, err)
	}
	if len(results) > s.cfg.MaxResults {
		results = results[:s.cfg.MaxResults]
	}
	span.SetData("results", len(results))
	return results, nil
}

// fetchAll fetches pages concurrently and returns the successful ones in
// search-rank order. Failed fetches are dropped.
func (s *WebSearchService) fetchAll(ctx context.Context, results []domain.SearchResult) []domain.Document {
	ctx, span := telemetry.StartSpan(ctx, "web_search.fetch", telemetry.SpanAttributes{Stage: "fetch"})
	defer span.End()

	fetched := make([]*domain.Document, len(results))
	var mu sync.Mutex
	failed := make(map[string]error)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)
	for i, r := range results {
		g.Go(func() error {
			doc, err := s.fetcher.Fetch(gctx, r.URL)
			if err != nil {
				mu.Lock()
				failed[r.URL] = err
				mu.Unlock()
				return nil
			}
			fetched[i] = doc
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		partial := &domain.PartialDataError{Attempted: len(results), Failed: failed}
		log.Printf("[web_search] %v", partial)
		for url, err := range failed {
			log.Printf("[web_search] dropped %s: %v", url, err)
		}
		telemetry.AddBreadcrumb(ctx, "web_search", partial.Error())
	}

	docs := make([]domain.Document, 0, len(fetched))
	for _, doc := range fetched {
		if doc != nil {
			docs = append(docs, *doc)
		}
	}
	span.SetData("fetched", len(docs))
	return docs
}

func (s *WebSearchService) buildIndex(ctx context.Context, chunks []domain.Chunk) (*FlatIndex, error) {
	ctx, span := telemetry.StartSpan(ctx, "web_search.embed", telemetry.SpanAttributes{Stage: "embed"})
	defer span.End()

	inputs := make([]string, len(chunks))
	for i, c := range chunks {
		inputs[i] = c.Text
	}

	vectors, err := s.embedder.GenerateEmbeddings(ctx, inputs)
	if err != nil {
		return nil, domain.Wrap(domain.ErrEmbeddingProvider, err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.Wrap(domain.ErrEmbeddingProvider, fmt.Errorf("expected %d embeddings, got %d", len(chunks), len(vectors)))
	}

	index := NewFlatIndex()
	for i, c := range chunks {
		if err := index.Add(domain.EmbeddedChunk{Chunk: c, Vector: vectors[i]}); err != nil {
			return nil, err
		}
	}
	return index, nil
}

func (s *WebSearchService) retrieve(ctx context.Context, index *FlatIndex, query string) ([]domain.ScoredChunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "web_search.retrieve", telemetry.SpanAttributes{Stage: "retrieve"})
	defer span.End()

	vectors, err := s.embedder.GenerateEmbeddings(ctx, []string{query})
	if err != nil {
		return nil, domain.Wrap(domain.ErrEmbeddingProvider, err)
	}
	if len(vectors) != 1 {
		return nil, domain.Wrap(domain.ErrEmbeddingProvider, fmt.Errorf("expected 1 query embedding, got %d", len(vectors)))
	}

	return index.Search(vectors[0], s.cfg.TopK)
}
