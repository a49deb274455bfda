package rag_service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/serisow/autbot/db"
	"github.com/serisow/autbot/logging"
	"github.com/serisow/autbot/pipeline_type"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimalLists(t *testing.T) {
	tests := []struct {
		count, lists int
	}{
		{0, 1}, {3, 1}, {4, 2}, {99, 9}, {10000, 100},
	}
	for _, tt := range tests {
		if got := OptimalLists(tt.count); got != tt.lists {
			t.Errorf("OptimalLists(%d): expected %d, got %d", tt.count, tt.lists, got)
		}
	}
}

func TestPGVectorStore(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, dbURL, db.ConnectOptions{MaxRetries: 1, RetryDelay: time.Second}, logging.Discard())
	require.NoError(t, err)
	defer pool.Close()

	store := NewPGVectorStore(pool, logging.Discard())
	require.NoError(t, store.Reset(ctx, 3))

	chunks := []pipeline_type.Chunk{
		{DocumentID: "resume.txt", Index: 0, Text: "lead at Automattic", Meta: resumeMeta},
		{DocumentID: "funfacts.txt", Index: 0, Text: "likes hiking", Meta: funFactsMeta},
		{DocumentID: "other.txt", Index: 0, Text: "no meta"},
	}
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	require.NoError(t, store.Upsert(ctx, chunks, vectors))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	hits, err := store.Search(ctx, []float32{0.9, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "resume.txt", hits[0].Chunk.DocumentID)
	require.NotNil(t, hits[0].Chunk.Meta)
	assert.Equal(t, 2.0, hits[0].Chunk.Meta.Weight)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}
