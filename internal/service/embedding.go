package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"
)

// EmbeddingClient defines the interface for generating embeddings. One
// instance serves both chunks and queries so they share a vector space.
type EmbeddingClient interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingCache stores vectors keyed by model and text hash.
type EmbeddingCache interface {
	GetEmbeddings(ctx context.Context, model string, hashes []string, notBefore time.Time) (map[string][]float32, error)
	PutEmbeddings(ctx context.Context, model string, entries map[string][]float32) error
}

// CachedEmbeddingClient serves embeddings from an EmbeddingCache and only
// sends misses to the wrapped client. Entries older than ttl are treated as
// misses. Cache failures degrade to uncached embedding.
type CachedEmbeddingClient struct {
	client EmbeddingClient
	cache  EmbeddingCache
	model  string
	ttl    time.Duration
	now    func() time.Time
}

func NewCachedEmbeddingClient(client EmbeddingClient, cache EmbeddingCache, model string, ttl time.Duration) *CachedEmbeddingClient {
	return &CachedEmbeddingClient{
		client: client,
		cache:  cache,
		model:  model,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *CachedEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	hashes := make([]string, len(texts))
	for i, text := range texts {
		hashes[i] = TextHash(text)
	}

	cached, err := c.cache.GetEmbeddings(ctx, c.model, hashes, c.now().Add(-c.ttl))
	if err != nil {
		log.Printf("embedding cache read failed (continuing uncached): %v", err)
		cached = nil
	}

	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, h := range hashes {
		if vec, ok := cached[h]; ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, texts[i])
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := c.client.GenerateEmbeddings(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missTexts), len(fresh))
	}

	entries := make(map[string][]float32, len(fresh))
	for j, vec := range fresh {
		out[missIdx[j]] = vec
		entries[hashes[missIdx[j]]] = vec
	}
	if err := c.cache.PutEmbeddings(ctx, c.model, entries); err != nil {
		log.Printf("embedding cache write failed: %v", err)
	}

	return out, nil
}

// TextHash is the cache key of a text.
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
