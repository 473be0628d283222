package models

import (
	"container/heap"
	"context"
	"sort"

	"github.com/viant/vec/search"

	interrors "github.com/streed/ml-todos/internal/errors"
)

// VectorQuery describes a nearest-neighbour lookup. NumCandidates bounds how
// many notes are kept while scanning; Limit is how many are returned.
type VectorQuery struct {
	Vector        []float32
	NumCandidates int
	Limit         int
}

// ScoredNote pairs a note with its cosine similarity to the query vector.
type ScoredNote struct {
	Note  *Note
	Score float32
}

// NearestNeighbors ranks embedded notes by cosine similarity to q.Vector.
// Notes whose vector length differs from the query are skipped.
func (r *NoteRepository) NearestNeighbors(ctx context.Context, q VectorQuery) ([]ScoredNote, error) {
	if q.Limit <= 0 {
		return []ScoredNote{}, nil
	}
	if q.NumCandidates < q.Limit {
		q.NumCandidates = q.Limit
	}

	query := search.Float32s(q.Vector)
	if query.Magnitude() == 0 {
		return []ScoredNote{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE embedding IS NOT NULL ORDER BY seq")
	if err != nil {
		return nil, interrors.NewStoreError("vector search", err)
	}
	defer rows.Close()

	candidates := &candidateHeap{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, interrors.NewStoreError("vector search", err)
		}
		if len(note.Embedding) != len(q.Vector) {
			continue
		}

		if search.Float32s(note.Embedding).Magnitude() == 0 {
			continue
		}
		score := 1 - query.CosineDistance(note.Embedding)

		if candidates.Len() < q.NumCandidates {
			heap.Push(candidates, ScoredNote{Note: note, Score: score})
		} else if score > (*candidates)[0].Score {
			(*candidates)[0] = ScoredNote{Note: note, Score: score}
			heap.Fix(candidates, 0)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, interrors.NewStoreError("vector search", err)
	}

	results := []ScoredNote(*candidates)
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > q.Limit {
		results = results[:q.Limit]
	}
	for _, res := range results {
		res.Note.Embedding = nil
	}
	return results, nil
}

// candidateHeap is a min-heap on score so the weakest candidate is evicted first.
type candidateHeap []ScoredNote

func (h candidateHeap) Len() int           { return len(h) }
func (h candidateHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) { *h = append(*h, x.(ScoredNote)) }

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
