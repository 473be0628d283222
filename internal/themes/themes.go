// Package themes derives naive theme labels from the leading word of each note.
package themes

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/streed/ml-todos/internal/models"
)

// NoteSource is the read side of the note store used for theme extraction.
type NoteSource interface {
	List(ctx context.Context) ([]*models.Note, error)
	ListWithEmbedding(ctx context.Context) ([]*models.Note, error)
	FindByTextPrefix(ctx context.Context, prefix string, caseInsensitive bool) ([]*models.Note, error)
}

type Extractor struct {
	notes        NoteSource
	embeddedOnly bool
}

func NewExtractor(notes NoteSource, embeddedOnly bool) *Extractor {
	return &Extractor{notes: notes, embeddedOnly: embeddedOnly}
}

// ComputeThemes returns up to limit theme keys ordered by descending frequency.
func (e *Extractor) ComputeThemes(ctx context.Context, limit int) ([]string, error) {
	var (
		notes []*models.Note
		err   error
	)
	if e.embeddedOnly {
		notes, err = e.notes.ListWithEmbedding(ctx)
	} else {
		notes, err = e.notes.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notes for themes: %w", err)
	}
	return RankThemes(notes, limit), nil
}

// TasksByTheme returns notes whose text starts with theme, ignoring case.
func (e *Extractor) TasksByTheme(ctx context.Context, theme string) ([]*models.Note, error) {
	return e.notes.FindByTextPrefix(ctx, theme, true)
}

// Key is the first whitespace-delimited token of text, or "" if there is none.
func Key(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// RankThemes counts theme keys across notes. Equal counts keep the order in
// which the key was first seen.
func RankThemes(notes []*models.Note, limit int) []string {
	if limit <= 0 {
		return []string{}
	}

	counts := make(map[string]int)
	order := []string{}
	for _, n := range notes {
		key := Key(n.Text)
		if key == "" {
			continue
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}
