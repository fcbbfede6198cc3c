package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// EmbeddingCacheRepository persists embeddings keyed by model and text hash.
type EmbeddingCacheRepository struct {
	db  dbtx
	now func() time.Time
}

func NewEmbeddingCacheRepository(pool *pgxpool.Pool) *EmbeddingCacheRepository {
	return &EmbeddingCacheRepository{db: pool, now: time.Now}
}

func NewEmbeddingCacheRepositoryWithTx(tx pgx.Tx) *EmbeddingCacheRepository {
	return &EmbeddingCacheRepository{db: tx, now: time.Now}
}

// GetEmbeddings returns the cached vectors among hashes that were written at
// or after notBefore. Missing hashes are simply absent from the map.
func (r *EmbeddingCacheRepository) GetEmbeddings(ctx context.Context, model string, hashes []string, notBefore time.Time) (map[string][]float32, error) {
	out := make(map[string][]float32, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT text_hash, embedding FROM embedding_cache
		 WHERE model = $1 AND text_hash = ANY($2) AND created_at >= $3`,
		model, hashes, notBefore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query embedding cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		var vec pgvector.Vector
		if err := rows.Scan(&hash, &vec); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		out[hash] = vec.Slice()
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// PutEmbeddings upserts entries in one batch, refreshing created_at.
func (r *EmbeddingCacheRepository) PutEmbeddings(ctx context.Context, model string, entries map[string][]float32) error {
	if len(entries) == 0 {
		return nil
	}

	createdAt := r.now().UTC()
	batch := &pgx.Batch{}
	for hash, vec := range entries {
		batch.Queue(
			`INSERT INTO embedding_cache (model, text_hash, embedding, created_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (model, text_hash)
			 DO UPDATE SET embedding = EXCLUDED.embedding, created_at = EXCLUDED.created_at`,
			model, hash, pgvector.NewVector(vec), createdAt,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to store embedding: %w", err)
		}
	}
	return nil
}

// PruneOlderThan deletes entries written before cutoff.
func (r *EmbeddingCacheRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM embedding_cache WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune embedding cache: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the number of cached entries for model.
func (r *EmbeddingCacheRepository) Count(ctx context.Context, model string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM embedding_cache WHERE model = $1`, model).Scan(&n)
	return n, err
}
