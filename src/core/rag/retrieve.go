package rag

import (
	"context"
	"fmt"
)

const DefaultTopK = 4

// SearchService answers "which stored passages are closest to this
// question". An empty result is a valid outcome, not an error.
type SearchService struct {
	embedder Embedder
	store    VectorStore
	defaultK int
}

func NewSearchService(embedder Embedder, store VectorStore, defaultK int) *SearchService {
	if defaultK <= 0 {
		defaultK = DefaultTopK
	}
	return &SearchService{
		embedder: embedder,
		store:    store,
		defaultK: defaultK,
	}
}

// Retrieve embeds the question and returns the store's top-k passages in the
// store's own (descending similarity) order.
func (s *SearchService) Retrieve(ctx context.Context, question string, k int) ([]Passage, error) {
	if k <= 0 {
		k = s.defaultK
	}

	vectors, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected one query vector, got %d", ErrUpstreamUnavailable, len(vectors))
	}

	passages, err := s.store.Search(ctx, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("searching store: %w", err)
	}
	return passages, nil
}
