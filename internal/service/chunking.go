package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/grootai/internal/domain"
	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Tokenizer converts text to token ids and back.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// ChunkConfig controls token-window chunking for retrieval.
type ChunkConfig struct {
	MaxTokens int
	Overlap   int
}

// DefaultChunkConfig matches the retriever's embedding context budget.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxTokens: 512,
		Overlap:   64,
	}
}

// TokenChunker splits documents into overlapping windows of tokens.
type TokenChunker struct {
	tokenizer Tokenizer
	cfg       ChunkConfig
}

func NewTokenChunker(tokenizer Tokenizer, cfg ChunkConfig) *TokenChunker {
	if cfg.MaxTokens <= 0 {
		cfg = DefaultChunkConfig()
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.MaxTokens {
		cfg.Overlap = 0
	}
	return &TokenChunker{tokenizer: tokenizer, cfg: cfg}
}

// Split returns the chunks of doc in order. Consecutive chunks share at least
// cfg.Overlap tokens; an empty document yields no chunks. Window edges never
// fall inside a multi-token character, so every chunk is valid UTF-8.
func (c *TokenChunker) Split(doc domain.Document, docIndex int) []domain.Chunk {
	clean := strings.TrimSpace(doc.Text)
	if clean == "" {
		return nil
	}

	tokens := c.tokenizer.Encode(clean)
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) <= c.cfg.MaxTokens {
		return []domain.Chunk{{
			Text:       clean,
			SourceURL:  doc.SourceURL,
			DocIndex:   docIndex,
			Index:      0,
			TokenCount: len(tokens),
		}}
	}

	boundary := c.runeBoundaries(tokens)
	step := c.cfg.MaxTokens - c.cfg.Overlap
	chunks := make([]domain.Chunk, 0, len(tokens)/step+1)
	start := 0
	for {
		end := prevBoundary(boundary, min(start+c.cfg.MaxTokens, len(tokens)), start)
		if end == start {
			end = nextBoundary(boundary, start+1)
		}

		chunks = append(chunks, domain.Chunk{
			Text:       c.tokenizer.Decode(tokens[start:end]),
			SourceURL:  doc.SourceURL,
			DocIndex:   docIndex,
			Index:      len(chunks),
			TokenCount: end - start,
		})

		if end == len(tokens) {
			break
		}
		next := prevBoundary(boundary, end-c.cfg.Overlap, start)
		if next == start {
			next = end
		}
		start = next
	}

	return chunks
}

// runeBoundaries marks the token positions where a character starts. A
// byte-level BPE can split one character across several tokens.
func (c *TokenChunker) runeBoundaries(tokens []int) []bool {
	boundary := make([]bool, len(tokens)+1)
	boundary[0], boundary[len(tokens)] = true, true
	for i := 1; i < len(tokens); i++ {
		piece := c.tokenizer.Decode(tokens[i : i+1])
		boundary[i] = piece == "" || utf8.RuneStart(piece[0])
	}
	return boundary
}

// prevBoundary returns the last boundary in (floor, i], or floor if none.
func prevBoundary(boundary []bool, i, floor int) int {
	for j := i; j > floor; j-- {
		if boundary[j] {
			return j
		}
	}
	return floor
}

func nextBoundary(boundary []bool, i int) int {
	for !boundary[i] {
		i++
	}
	return i
}

// SplitAll chunks documents in order.
func (c *TokenChunker) SplitAll(docs []domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for i, doc := range docs {
		chunks = append(chunks, c.Split(doc, i)...)
	}
	return chunks
}

// TiktokenTokenizer counts tokens with an OpenAI BPE encoding.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads encoding from the BPE ranks bundled in the
// binary, so no network access is needed.
func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	if encoding == "" {
		encoding = tiktoken.MODEL_CL100K_BASE
	}
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer %q: %w", encoding, err)
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

func (t *TiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *TiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}
