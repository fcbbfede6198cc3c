package domain

// SearchResult is one raw hit returned by a web-search provider.
type SearchResult struct {
	URL   string
	Title string
}

// Document is the full text of a fetched page.
type Document struct {
	SourceURL string
	Text      string
}

// Chunk is a token-bounded slice of one document.
type Chunk struct {
	Text       string
	SourceURL  string
	DocIndex   int // position of the source document in search-rank order
	Index      int // position within the source document
	TokenCount int
}

// EmbeddedChunk pairs a chunk with its vector.
type EmbeddedChunk struct {
	Chunk  Chunk
	Vector []float32
}

// ScoredChunk is a retrieval hit; Distance is squared L2, lower is closer.
type ScoredChunk struct {
	Chunk    Chunk
	Distance float32
}
