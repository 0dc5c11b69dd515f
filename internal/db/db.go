// Package db defines the vector store capability consumed by the repository
// layer. Storage, indexing, and nearest-neighbor search are supplied by the
// backend; this package only names the contract.
package db

import (
	"context"
	"time"
)

// Store is the vector store facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces, not on Store itself.
type Store interface {
	Pinger
	HashStore
	IndexManager
	Searcher
	Flusher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for a pipelined write.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides flat field-map record operations.
type HashStore interface {
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides nearest-neighbor and exact-match queries.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchFilter(ctx context.Context, index, query string, limit int, fields []string) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Flusher makes prior writes durable. Search consistency is only guaranteed
// after an explicit flush; a crash between write and flush is an acknowledged
// durability gap.
type Flusher interface {
	Flush(ctx context.Context) error
}
