package rag_service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/serisow/autbot/pipeline_type"
)

const chunkTable = "autbot_chunks"

// PGVectorStore keeps chunk embeddings in Postgres with the pgvector extension.
// The table is rebuilt on every Reset since the corpus is re-indexed at startup.
type PGVectorStore struct {
	db           *pgxpool.Pool
	logger       *slog.Logger
	indexManager *IndexManager
}

func NewPGVectorStore(db *pgxpool.Pool, logger *slog.Logger) *PGVectorStore {
	return &PGVectorStore{
		db:           db,
		logger:       logger,
		indexManager: NewIndexManager(db, chunkTable, logger),
	}
}

func (s *PGVectorStore) Reset(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}

	if _, err := s.db.Exec(ctx, "DROP TABLE IF EXISTS "+chunkTable); err != nil {
		return fmt.Errorf("failed to drop chunk table: %w", err)
	}

	createSQL := fmt.Sprintf(`
		CREATE TABLE %s (
			id          BIGSERIAL PRIMARY KEY,
			document_id TEXT NOT NULL,
			chunk_index INT NOT NULL,
			content     TEXT NOT NULL,
			category    TEXT,
			weight      DOUBLE PRECISION,
			embedding   vector(%d) NOT NULL
		)`, chunkTable, dimension)
	if _, err := s.db.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create chunk table: %w", err)
	}

	s.logger.Info("Chunk table created",
		slog.String("table", chunkTable),
		slog.Int("dimension", dimension))
	return nil
}

func (s *PGVectorStore) Upsert(ctx context.Context, chunks []pipeline_type.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch")
	}

	insertSQL := fmt.Sprintf(`INSERT INTO %s (document_id, chunk_index, content, category, weight, embedding)
		VALUES ($1, $2, $3, $4, $5, $6::vector)`, chunkTable)

	batch := &pgx.Batch{}
	for i, chunk := range chunks {
		var category *string
		var weight *float64
		if chunk.Meta != nil {
			c := string(chunk.Meta.Category)
			w := chunk.Meta.Weight
			category, weight = &c, &w
		}
		batch.Queue(insertSQL, chunk.DocumentID, chunk.Index, chunk.Text, category, weight, pgvector.NewVector(vectors[i]))
	}

	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}

	return s.indexManager.CreateOrUpdateIndex(ctx)
}

func (s *PGVectorStore) Search(ctx context.Context, vector []float32, k int) ([]pipeline_type.SearchHit, error) {
	if k <= 0 {
		k = 5
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin search transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// With few rows per list the default single probe misses neighbours.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL ivfflat.probes = %d", s.indexManager.Lists())); err != nil {
		return nil, fmt.Errorf("failed to set probes: %w", err)
	}

	query := fmt.Sprintf(`SELECT document_id, chunk_index, content, category, weight, 1 - (embedding <=> $1::vector) AS score
		FROM %s ORDER BY embedding <=> $1::vector, id LIMIT $2`, chunkTable)
	rows, err := tx.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var hits []pipeline_type.SearchHit
	for rows.Next() {
		var hit pipeline_type.SearchHit
		var category *string
		var weight *float64
		if err := rows.Scan(&hit.Chunk.DocumentID, &hit.Chunk.Index, &hit.Chunk.Text, &category, &weight, &hit.Score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if category != nil && weight != nil {
			hit.Chunk.Meta = &pipeline_type.DocumentMeta{
				Category: pipeline_type.Category(*category),
				Weight:   *weight,
			}
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunks: %w", err)
	}

	return hits, tx.Commit(ctx)
}

func (s *PGVectorStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+chunkTable).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}
