package rag_service

import (
	"context"
	"errors"
	"testing"

	"github.com/serisow/autbot/logging"
	"github.com/serisow/autbot/pipeline_type"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	hits  []pipeline_type.SearchHit
	err   error
	gotK  int
	calls int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, k int) ([]pipeline_type.SearchHit, error) {
	f.calls++
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.hits) {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

func hit(id, text string, score float64, meta *pipeline_type.DocumentMeta) pipeline_type.SearchHit {
	return pipeline_type.SearchHit{
		Chunk: pipeline_type.Chunk{DocumentID: id, Text: text, Meta: meta},
		Score: score,
	}
}

var (
	resumeMeta   = &pipeline_type.DocumentMeta{Category: pipeline_type.CategoryResume, Weight: 2.0}
	funFactsMeta = &pipeline_type.DocumentMeta{Category: pipeline_type.CategoryFunFacts, Weight: 0.5}
	kudosMeta    = &pipeline_type.DocumentMeta{Category: pipeline_type.CategoryKudos, Weight: 0.5}
)

func TestRerank_WeightBeatsRawSimilarity(t *testing.T) {
	scored := Rerank([]pipeline_type.SearchHit{
		hit("funfacts.txt", "likes hiking", 0.9, funFactsMeta),
		hit("resume.txt", "worked at Automattic", 0.5, resumeMeta),
	})

	require.Len(t, scored, 2)
	assert.Equal(t, "resume.txt", scored[0].Chunk.DocumentID)
	assert.InDelta(t, 1.0, scored[0].WeightedScore, 1e-9)
	assert.InDelta(t, 0.5, scored[0].RawScore, 1e-9)
	assert.InDelta(t, 0.45, scored[1].WeightedScore, 1e-9)
}

func TestRerank_TiesKeepSearchOrder(t *testing.T) {
	scored := Rerank([]pipeline_type.SearchHit{
		hit("kudos.txt", "first", 0.8, kudosMeta),
		hit("funfacts.txt", "second", 0.8, funFactsMeta),
		hit("other.txt", "third", 0.4, &pipeline_type.DocumentMeta{Weight: 1.0}),
	})

	texts := []string{scored[0].Chunk.Text, scored[1].Chunk.Text, scored[2].Chunk.Text}
	assert.Equal(t, []string{"first", "second", "third"}, texts)
}

func TestRerank_MissingMetaDefaultsToWeightOne(t *testing.T) {
	scored := Rerank([]pipeline_type.SearchHit{hit("x.txt", "x", 0.7, nil)})
	assert.InDelta(t, 0.7, scored[0].WeightedScore, 1e-9)
}

func TestRerank_DoesNotMutateHits(t *testing.T) {
	hits := []pipeline_type.SearchHit{
		hit("funfacts.txt", "a", 0.9, funFactsMeta),
		hit("resume.txt", "b", 0.5, resumeMeta),
	}
	Rerank(hits)
	assert.Equal(t, "funfacts.txt", hits[0].Chunk.DocumentID)
	assert.Equal(t, 0.9, hits[0].Score)
}

func TestWeightedRetriever_FetchesCandidatePoolAndTruncates(t *testing.T) {
	searcher := &fakeSearcher{hits: []pipeline_type.SearchHit{
		hit("funfacts.txt", "a", 0.9, funFactsMeta),
		hit("kudos.txt", "b", 0.85, kudosMeta),
		hit("funfacts.txt", "c", 0.8, funFactsMeta),
		hit("resume.txt", "d", 0.3, resumeMeta),
		hit("resume.txt", "e", 0.2, resumeMeta),
	}}

	retriever := NewWeightedRetriever(searcher, 2, logging.Discard())
	got, err := retriever.Retrieve(context.Background(), "q", 2)

	require.NoError(t, err)
	assert.Equal(t, 4, searcher.gotK)
	require.Len(t, got, 2)
	assert.Equal(t, "d", got[0].Chunk.Text)
	assert.Equal(t, "a", got[1].Chunk.Text)
}

func TestWeightedRetriever_PropagatesSearchError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("index offline")}

	_, err := NewWeightedRetriever(searcher, 0, logging.Discard()).Retrieve(context.Background(), "q", 3)

	assert.EqualError(t, err, "index offline")
	assert.Equal(t, 3, searcher.gotK)
}
