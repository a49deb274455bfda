package rag_service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/serisow/autbot/pipeline_type"
)

// Searcher is the raw similarity search the retriever re-ranks.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]pipeline_type.SearchHit, error)
}

// WeightedRetriever scales raw similarity by the weight of each chunk's
// source document and re-sorts the candidates.
type WeightedRetriever struct {
	searcher            Searcher
	candidateMultiplier int
	logger              *slog.Logger
}

func NewWeightedRetriever(searcher Searcher, candidateMultiplier int, logger *slog.Logger) *WeightedRetriever {
	if candidateMultiplier < 1 {
		candidateMultiplier = 1
	}
	return &WeightedRetriever{
		searcher:            searcher,
		candidateMultiplier: candidateMultiplier,
		logger:              logger,
	}
}

// Retrieve fetches k*candidateMultiplier candidates, re-ranks them by
// weighted score and keeps the best k.
func (r *WeightedRetriever) Retrieve(ctx context.Context, query string, k int) ([]pipeline_type.ScoredChunk, error) {
	hits, err := r.searcher.Search(ctx, query, k*r.candidateMultiplier)
	if err != nil {
		return nil, err
	}

	scored := Rerank(hits)
	if r.logger.Enabled(ctx, slog.LevelDebug) {
		r.logger.DebugContext(ctx, "Retrieval candidates", slog.String("candidates", spew.Sdump(scored)))
	}

	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Rerank applies document weights to hits and sorts by weighted score,
// descending. Hits with equal weighted scores keep their search order.
func Rerank(hits []pipeline_type.SearchHit) []pipeline_type.ScoredChunk {
	scored := make([]pipeline_type.ScoredChunk, len(hits))
	for i, hit := range hits {
		weight := 1.0
		if hit.Chunk.Meta != nil {
			weight = hit.Chunk.Meta.Weight
		}
		scored[i] = pipeline_type.ScoredChunk{
			Chunk:         hit.Chunk,
			RawScore:      hit.Score,
			WeightedScore: hit.Score * weight,
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].WeightedScore > scored[j].WeightedScore
	})
	return scored
}
