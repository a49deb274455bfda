package rag_service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/serisow/autbot/apperror"
	"github.com/serisow/autbot/pipeline_type"
)

const embedBatchSize = 64

// Index is the searchable form of the corpus. It is built once and only read afterwards.
type Index struct {
	embedder Embedder
	store    VectorStore
	logger   *slog.Logger
	chunks   int
}

// BuildIndex chunks docs, embeds every chunk and loads the vectors into store.
func BuildIndex(ctx context.Context, docs []pipeline_type.Document, chunker *SentenceChunker, embedder Embedder, store VectorStore, logger *slog.Logger) (*Index, error) {
	var chunks []pipeline_type.Chunk
	for _, doc := range docs {
		chunks = append(chunks, chunker.Chunk(doc)...)
	}
	if len(chunks) == 0 {
		return nil, apperror.New(apperror.KindVectorStore, "corpus produced no chunks")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	if err := embedder.Prepare(ctx, texts); err != nil {
		return nil, apperror.Wrap(apperror.KindVectorStore, err, "failed to prepare embedder").
			WithDetail("embedder", embedder.Name())
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, apperror.Wrap(apperror.KindVectorStore, err, "failed to embed chunks").
				WithDetail("embedder", embedder.Name())
		}
		vectors = append(vectors, batch...)
	}

	if err := store.Reset(ctx, len(vectors[0])); err != nil {
		return nil, apperror.Wrap(apperror.KindVectorStore, err, "failed to reset vector store")
	}
	if err := store.Upsert(ctx, chunks, vectors); err != nil {
		return nil, apperror.Wrap(apperror.KindVectorStore, err, "failed to store chunk vectors")
	}

	logger.Info("Index built",
		slog.Int("documents", len(docs)),
		slog.Int("chunks", len(chunks)),
		slog.String("embedder", embedder.Name()),
		slog.Int("dimension", len(vectors[0])))

	return &Index{embedder: embedder, store: store, logger: logger, chunks: len(chunks)}, nil
}

// Search returns up to k chunks most similar to query, most similar first.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]pipeline_type.SearchHit, error) {
	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected one query vector, received %d", len(vectors))
	}

	hits, err := ix.store.Search(ctx, vectors[0], k)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindVectorStore, err, "vector search failed")
	}
	return hits, nil
}

func (ix *Index) ChunkCount() int {
	return ix.chunks
}
