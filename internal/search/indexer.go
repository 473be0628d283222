package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/streed/ml-todos/internal/embeddings"
	interrors "github.com/streed/ml-todos/internal/errors"
	"github.com/streed/ml-todos/internal/logger"
	"github.com/streed/ml-todos/internal/models"
)

// VectorStore is the part of the note store the indexer writes to.
type VectorStore interface {
	SetEmbedding(ctx context.Context, id, text string, vec []float32, model string) error
	ClearEmbedding(ctx context.Context, id string) error
	ClearAllEmbeddings(ctx context.Context) (int, error)
	ListWithoutEmbedding(ctx context.Context, model string) ([]*models.Note, error)
}

// Indexer computes and stores note embeddings.
type Indexer struct {
	embedder    embeddings.Embedder
	store       VectorStore
	concurrency int
}

type ReindexResult struct {
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

func NewIndexer(embedder embeddings.Embedder, store VectorStore, concurrency int) *Indexer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Indexer{embedder: embedder, store: store, concurrency: concurrency}
}

// IndexNote replaces the stored vector of one note with the embedding of text.
// When the note was edited in the meantime nothing is stored and the returned
// error wraps ErrTextChanged; the edit is responsible for its own vector.
func (ix *Indexer) IndexNote(ctx context.Context, id, text string) error {
	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed note %s: %w", id, err)
	}
	if err := ix.store.SetEmbedding(ctx, id, text, vec, ix.embedder.ModelInfo()); err != nil {
		return fmt.Errorf("failed to store embedding for note %s: %w", id, err)
	}
	logger.Debug("Indexed note %s", id)
	return nil
}

// Invalidate drops the vector of a note whose text changed without a new embedding.
func (ix *Indexer) Invalidate(ctx context.Context, id string) error {
	return ix.store.ClearEmbedding(ctx, id)
}

// Rebuild drops every stored vector before reindexing all notes.
func (ix *Indexer) Rebuild(ctx context.Context) (ReindexResult, error) {
	cleared, err := ix.store.ClearAllEmbeddings(ctx)
	if err != nil {
		return ReindexResult{}, fmt.Errorf("failed to clear embeddings: %w", err)
	}
	logger.Debug("Cleared %d stored embeddings", cleared)
	return ix.Reindex(ctx)
}

// Reindex embeds every note that has no vector, or a vector from another
// model. Individual failures are counted and logged; only cancellation or a
// failure to list notes aborts the run.
func (ix *Indexer) Reindex(ctx context.Context) (ReindexResult, error) {
	notes, err := ix.store.ListWithoutEmbedding(ctx, ix.embedder.ModelInfo())
	if err != nil {
		return ReindexResult{}, fmt.Errorf("failed to list notes to index: %w", err)
	}
	logger.Info("Reindexing %d notes with %s", len(notes), ix.embedder.ModelInfo())

	var indexed, failed, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.concurrency)

	for _, note := range notes {
		if strings.TrimSpace(note.Text) == "" {
			skipped.Add(1)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := ix.IndexNote(gctx, note.ID, note.Text); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if errors.Is(err, interrors.ErrTextChanged) || interrors.IsNotFound(err) {
					logger.Debug("Reindex: note %s changed while embedding, skipped", note.ID)
					skipped.Add(1)
					return nil
				}
				logger.Error("Reindex: %v", err)
				failed.Add(1)
				return nil
			}
			indexed.Add(1)
			return nil
		})
	}

	err = g.Wait()
	result := ReindexResult{
		Indexed: int(indexed.Load()),
		Failed:  int(failed.Load()),
		Skipped: int(skipped.Load()),
	}
	if err != nil {
		return result, fmt.Errorf("reindex interrupted: %w", err)
	}
	logger.Info("Reindex complete: %d indexed, %d failed, %d skipped", result.Indexed, result.Failed, result.Skipped)
	return result, nil
}
