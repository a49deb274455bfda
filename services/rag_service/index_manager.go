package rag_service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"
)

// IndexManager handles the ivfflat index over a chunk table.
type IndexManager struct {
	db     *pgxpool.Pool
	table  string
	logger *slog.Logger
	lists  atomic.Int64
}

func NewIndexManager(db *pgxpool.Pool, table string, logger *slog.Logger) *IndexManager {
	im := &IndexManager{
		db:     db,
		table:  table,
		logger: logger,
	}
	im.lists.Store(1)
	return im
}

// Lists returns the list count of the most recently built index.
func (im *IndexManager) Lists() int {
	return int(im.lists.Load())
}

// OptimalLists is the square root of the row count, at least 1.
func OptimalLists(count int) int {
	lists := int(math.Sqrt(float64(count)))
	if lists < 1 {
		lists = 1
	}
	return lists
}

// CreateOrUpdateIndex rebuilds the cosine index sized for the current row count.
func (im *IndexManager) CreateOrUpdateIndex(ctx context.Context) error {
	var count int
	err := im.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+im.table).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}

	lists := OptimalLists(count)
	indexName := "idx_" + im.table + "_embedding"

	_, err = im.db.Exec(ctx, "DROP INDEX IF EXISTS "+indexName)
	if err != nil {
		return fmt.Errorf("failed to drop existing index: %w", err)
	}

	createIndexSQL := fmt.Sprintf(`
		CREATE INDEX %s
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = %d)
	`, indexName, im.table, lists)

	_, err = im.db.Exec(ctx, createIndexSQL)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	im.lists.Store(int64(lists))

	im.logger.Info("Vector index created/updated successfully",
		slog.Int("chunk_count", count),
		slog.Int("list_count", lists))

	return nil
}
