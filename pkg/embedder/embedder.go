// Package embedder generates fixed-dimension embedding vectors through an
// external service. Failures surface as UpstreamServiceError so callers can
// choose a degrade path instead of failing a whole search.
package embedder

import (
	"context"
)

// Client generates embeddings.
type Client interface {
	// Embed returns the embedding for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedMany returns embeddings for a batch of texts, in input order.
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}
