package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/streed/ml-todos/internal/config"
	"github.com/streed/ml-todos/internal/embeddings"
	interrors "github.com/streed/ml-todos/internal/errors"
	"github.com/streed/ml-todos/internal/logger"
	"github.com/streed/ml-todos/internal/models"
)

// SearchProvider answers free-text queries with the closest notes.
type SearchProvider interface {
	Search(ctx context.Context, query string, k int) ([]Result, error)
}

// NoteIndex is the nearest-neighbour capability of the note store.
type NoteIndex interface {
	NearestNeighbors(ctx context.Context, q models.VectorQuery) ([]models.ScoredNote, error)
}

// Result is a search hit. Only id and text reach HTTP clients.
type Result struct {
	ID    string  `json:"_id"`
	Text  string  `json:"text"`
	Score float32 `json:"-"`
}

type Engine struct {
	embedder   embeddings.Embedder
	index      NoteIndex
	limit      int
	candidates int
}

func NewEngine(embedder embeddings.Embedder, index NoteIndex, cfg *config.Config) *Engine {
	return &Engine{
		embedder:   embedder,
		index:      index,
		limit:      cfg.SearchLimit,
		candidates: cfg.SearchCandidates,
	}
}

// Search embeds query and returns the top k notes by cosine similarity. A
// non-positive k uses the configured default. Any failure aborts the search.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, interrors.NewValidationError("query", interrors.ErrEmptyQuery)
	}
	if k <= 0 {
		k = e.limit
	}
	candidates := e.candidates
	if candidates < k {
		candidates = k
	}

	logger.Debug("Performing vector search for: %s (k=%d, candidates=%d)", query, k, candidates)
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get query embedding: %w", err)
	}

	hits, err := e.index.NearestNeighbors(ctx, models.VectorQuery{
		Vector:        vec,
		NumCandidates: candidates,
		Limit:         k,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{ID: hit.Note.ID, Text: hit.Note.Text, Score: hit.Score})
	}
	logger.Debug("Vector search found %d notes", len(results))
	return results, nil
}
