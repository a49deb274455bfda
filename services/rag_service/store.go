package rag_service

import (
	"context"

	"github.com/serisow/autbot/pipeline_type"
)

// VectorStore holds chunk embeddings and answers top-k cosine queries.
// Search returns hits ordered by descending similarity.
type VectorStore interface {
	Reset(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []pipeline_type.Chunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, k int) ([]pipeline_type.SearchHit, error)
	Count(ctx context.Context) (int, error)
}
