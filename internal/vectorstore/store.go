// Package vectorstore indexes routing documents by embedding and serves
// similarity lookups over them.
package vectorstore

import (
	"context"

	"waypoint/pkg/models"
)

// Embedder turns text into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Match is one similarity-search hit.
type Match struct {
	Document models.RoutingDocument
	// Score is cosine similarity in [-1, 1]; higher is closer.
	Score float64
}

// Store holds the routing index. Replace swaps the full document set —
// a rebuild, never an incremental merge — so each server name maps to at
// most one live document.
type Store interface {
	Replace(ctx context.Context, docs []models.RoutingDocument) error
	Search(ctx context.Context, query string, k int) ([]Match, error)
}
