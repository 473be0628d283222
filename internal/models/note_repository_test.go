package models

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streed/ml-todos/internal/database"
	interrors "github.com/streed/ml-todos/internal/errors"
)

func setupTestRepo(t *testing.T) *NoteRepository {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewNoteRepository(db.Conn())
}

func createNotes(t *testing.T, repo *NoteRepository, texts ...string) []*Note {
	t.Helper()
	notes := make([]*Note, 0, len(texts))
	for _, text := range texts {
		n, err := repo.Create(context.Background(), text)
		require.NoError(t, err)
		notes = append(notes, n)
	}
	return notes
}

func texts(notes []*Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Text
	}
	return out
}

func TestCreateThenList(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	createNotes(t, repo, "first", "second")

	before, err := repo.List(ctx)
	require.NoError(t, err)

	created, err := repo.Create(ctx, "Buy milk")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Done)
	assert.False(t, created.HasEmbedding())
	assert.False(t, created.CreatedAt.IsZero())

	after, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)

	matches := 0
	for _, n := range after {
		if n.ID == created.ID {
			matches++
			assert.Equal(t, "Buy milk", n.Text)
			assert.False(t, n.Done)
		}
	}
	assert.Equal(t, 1, matches)
	assert.Equal(t, []string{"first", "second", "Buy milk"}, texts(after), "insertion order")
}

func TestListEmptyIsNotNil(t *testing.T) {
	notes, err := setupTestRepo(t).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, notes)
	assert.Empty(t, notes)
}

func TestUpdateText(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	notes := createNotes(t, repo, "Work: finish report", "Home: clean")

	updated, err := repo.UpdateText(ctx, notes[0].ID, "Work: ship report")
	require.NoError(t, err)
	assert.Equal(t, notes[0].ID, updated.ID)
	assert.Equal(t, "Work: ship report", updated.Text)
	assert.Equal(t, notes[0].Done, updated.Done)

	other, err := repo.GetByID(ctx, notes[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Home: clean", other.Text)

	_, err = repo.UpdateText(ctx, "does-not-exist", "x")
	assert.ErrorIs(t, err, interrors.ErrNoteNotFound)
}

func TestDeleteTwice(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	notes := createNotes(t, repo, "temporary")

	require.NoError(t, repo.Delete(ctx, notes[0].ID))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.ErrorIs(t, repo.Delete(ctx, notes[0].ID), interrors.ErrNoteNotFound)

	_, err = repo.GetByID(ctx, notes[0].ID)
	assert.ErrorIs(t, err, interrors.ErrNoteNotFound)
}

func TestFindByTextPrefix(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	createNotes(t, repo, "Buy milk", "buy eggs", "I'll buy later", "Buyer meeting", "100% done", "100 pushups")

	tests := []struct {
		name            string
		prefix          string
		caseInsensitive bool
		want            []string
	}{
		{
			name:            "case insensitive",
			prefix:          "Buy ",
			caseInsensitive: true,
			want:            []string{"Buy milk", "buy eggs"},
		},
		{
			name:            "anchored word prefix",
			prefix:          "Buy",
			caseInsensitive: true,
			want:            []string{"Buy milk", "buy eggs", "Buyer meeting"},
		},
		{
			name:            "case sensitive",
			prefix:          "buy",
			caseInsensitive: false,
			want:            []string{"buy eggs"},
		},
		{
			name:            "wildcards are literal",
			prefix:          "100%",
			caseInsensitive: true,
			want:            []string{"100% done"},
		},
		{
			name:            "no match",
			prefix:          "later",
			caseInsensitive: true,
			want:            []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes, err := repo.FindByTextPrefix(ctx, tt.prefix, tt.caseInsensitive)
			require.NoError(t, err)
			assert.Equal(t, tt.want, texts(notes))
		})
	}
}

func TestFindByTextPrefixFoldsUnicode(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	createNotes(t, repo, "Élan party", "élan vital", "Über plan", "über task", "Straße fest")

	notes, err := repo.FindByTextPrefix(ctx, "élan", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Élan party", "élan vital"}, texts(notes))

	notes, err = repo.FindByTextPrefix(ctx, "Über", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Über plan", "über task"}, texts(notes))

	notes, err = repo.FindByTextPrefix(ctx, "STRASSE", true)
	require.NoError(t, err)
	assert.Empty(t, notes, "simple folding only")

	notes, err = repo.FindByTextPrefix(ctx, "Über", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Über plan"}, texts(notes))
}

func TestEmbeddingLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	notes := createNotes(t, repo, "a", "b", "c")

	require.NoError(t, repo.SetEmbedding(ctx, notes[0].ID, "a", []float32{1, 0}, "m1"))
	require.NoError(t, repo.SetEmbedding(ctx, notes[1].ID, "b", []float32{0, 1}, "m2"))

	embedded, err := repo.ListWithEmbedding(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, texts(embedded))
	assert.Equal(t, []float32{1, 0}, embedded[0].Embedding)

	missing, err := repo.ListWithoutEmbedding(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, texts(missing))

	stale, err := repo.ListWithoutEmbedding(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, texts(stale))

	require.NoError(t, repo.ClearEmbedding(ctx, notes[0].ID))
	n, err := repo.CountWithEmbedding(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	assert.ErrorIs(t, repo.SetEmbedding(ctx, "nope", "a", []float32{1}, "m"), interrors.ErrNoteNotFound)

	cleared, err := repo.ClearAllEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)
	n, err = repo.CountWithEmbedding(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSetEmbeddingRequiresCurrentText(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	notes := createNotes(t, repo, "Buy milk")

	_, err := repo.UpdateText(ctx, notes[0].ID, "Buy oat milk")
	require.NoError(t, err)

	err = repo.SetEmbedding(ctx, notes[0].ID, "Buy milk", []float32{1, 0}, "m")
	assert.ErrorIs(t, err, interrors.ErrTextChanged)
	stored, err := repo.GetByID(ctx, notes[0].ID)
	require.NoError(t, err)
	assert.False(t, stored.HasEmbedding(), "a vector of the old text is not stored")

	require.NoError(t, repo.SetEmbedding(ctx, notes[0].ID, "Buy oat milk", []float32{1, 0}, "m"))
}

func TestStoreErrorOnClosedDB(t *testing.T) {
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	repo := NewNoteRepository(db.Conn())
	require.NoError(t, db.Close())

	_, err = repo.Create(context.Background(), "lost")
	assert.True(t, interrors.IsStore(err))

	_, err = repo.List(context.Background())
	assert.True(t, interrors.IsStore(err))
}
