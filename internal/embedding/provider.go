package embedding

import "context"

// Provider generates embeddings from text.
type Provider interface {
	// Embed generates an embedding for one text.
	Embed(ctx context.Context, text string) (Embedding, error)

	// EmbedBatch generates embeddings for texts in one round trip. The
	// result is index-aligned with texts.
	EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}
