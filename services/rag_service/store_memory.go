package rag_service

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/serisow/autbot/pipeline_type"
)

// MemoryStore is a brute-force in-process vector store.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	chunks    []pipeline_type.Chunk
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Reset(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.chunks = nil
	return nil
}

func (s *MemoryStore) Upsert(ctx context.Context, chunks []pipeline_type.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

// Search ranks every stored chunk by cosine similarity. Equal scores keep
// insertion order.
func (s *MemoryStore) Search(ctx context.Context, vector []float32, k int) ([]pipeline_type.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(vector) != s.dimension {
		return nil, errors.New("query vector dimension mismatch")
	}
	if k <= 0 {
		k = 5
	}

	hits := make([]pipeline_type.SearchHit, len(s.vectors))
	for i := range s.vectors {
		hits[i] = pipeline_type.SearchHit{Chunk: s.chunks[i], Score: cosine(s.vectors[i], vector)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
