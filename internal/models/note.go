package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/streed/ml-todos/internal/embeddings"
	interrors "github.com/streed/ml-todos/internal/errors"
)

// Note is the only persisted entity. Embedding is never serialized.
type Note struct {
	ID        string    `json:"_id"`
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *Note) HasEmbedding() bool {
	return len(n.Embedding) > 0
}

// NoteRepository is the store adapter over the notes table.
type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

const noteColumns = "id, text, done, embedding, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*Note, error) {
	var (
		note Note
		blob []byte
	)
	if err := row.Scan(&note.ID, &note.Text, &note.Done, &blob, &note.CreatedAt, &note.UpdatedAt); err != nil {
		return nil, err
	}
	if len(blob) > 0 {
		vec, err := embeddings.BytesToEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("note %s: %w", note.ID, err)
		}
		note.Embedding = vec
	}
	return &note, nil
}

func (r *NoteRepository) query(ctx context.Context, op, query string, args ...any) ([]*Note, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, interrors.NewStoreError(op, err)
	}
	defer rows.Close()

	notes := []*Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, interrors.NewStoreError(op, fmt.Errorf("failed to scan note: %w", err))
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, interrors.NewStoreError(op, err)
	}
	return notes, nil
}

// Create inserts a note with done=false and no embedding.
func (r *NoteRepository) Create(ctx context.Context, text string) (*Note, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, "INSERT INTO notes (id, text, done) VALUES (?, ?, 0)", id, text)
	if err != nil {
		return nil, interrors.NewStoreError("create", err)
	}
	return r.GetByID(ctx, id)
}

func (r *NoteRepository) GetByID(ctx context.Context, id string) (*Note, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = ?", id)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interrors.ErrNoteNotFound
	}
	if err != nil {
		return nil, interrors.NewStoreError("get", err)
	}
	return note, nil
}

// List returns every note in insertion order.
func (r *NoteRepository) List(ctx context.Context) ([]*Note, error) {
	return r.query(ctx, "list", "SELECT "+noteColumns+" FROM notes ORDER BY seq")
}

// UpdateText replaces the text of one note and leaves every other field alone.
func (r *NoteRepository) UpdateText(ctx context.Context, id, text string) (*Note, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE notes SET text = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		text, id,
	)
	if err := checkAffected("update", result, err); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	return checkAffected("delete", result, err)
}

func checkAffected(op string, result sql.Result, err error) error {
	if err != nil {
		return interrors.NewStoreError(op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return interrors.NewStoreError(op, fmt.Errorf("failed to get rows affected: %w", err))
	}
	if n == 0 {
		return interrors.ErrNoteNotFound
	}
	return nil
}

// FindByTextPrefix returns notes whose text starts with prefix. The prefix is
// literal. SQLite only folds ASCII case, so the case-insensitive match runs in
// Go with Unicode folding.
func (r *NoteRepository) FindByTextPrefix(ctx context.Context, prefix string, caseInsensitive bool) ([]*Note, error) {
	if !caseInsensitive {
		return r.query(ctx, "find by prefix",
			"SELECT "+noteColumns+" FROM notes WHERE substr(text, 1, length(?)) = ? ORDER BY seq", prefix, prefix)
	}

	notes, err := r.query(ctx, "find by prefix", "SELECT "+noteColumns+" FROM notes ORDER BY seq")
	if err != nil {
		return nil, err
	}
	matched := notes[:0]
	for _, n := range notes {
		if hasPrefixFold(n.Text, prefix) {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

// hasPrefixFold compares rune by rune, since folded forms may differ in byte length.
func hasPrefixFold(s, prefix string) bool {
	for prefix != "" {
		if s == "" {
			return false
		}
		pr, pn := utf8.DecodeRuneInString(prefix)
		sr, sn := utf8.DecodeRuneInString(s)
		if pr != sr && !strings.EqualFold(string(pr), string(sr)) {
			return false
		}
		prefix, s = prefix[pn:], s[sn:]
	}
	return true
}

// ListWithEmbedding returns notes that carry a vector.
func (r *NoteRepository) ListWithEmbedding(ctx context.Context) ([]*Note, error) {
	return r.query(ctx, "list embedded",
		"SELECT "+noteColumns+" FROM notes WHERE embedding IS NOT NULL ORDER BY seq")
}

// ListWithoutEmbedding returns notes that still need a vector, or whose vector
// came from a model other than model when model is non-empty.
func (r *NoteRepository) ListWithoutEmbedding(ctx context.Context, model string) ([]*Note, error) {
	if model == "" {
		return r.query(ctx, "list unembedded",
			"SELECT "+noteColumns+" FROM notes WHERE embedding IS NULL ORDER BY seq")
	}
	return r.query(ctx, "list unembedded",
		"SELECT "+noteColumns+" FROM notes WHERE embedding IS NULL OR embedding_model IS NOT ? ORDER BY seq", model)
}

// SetEmbedding stores the vector computed from text. The write only lands if
// the note still has that text; otherwise ErrTextChanged is returned.
func (r *NoteRepository) SetEmbedding(ctx context.Context, id, text string, vec []float32, model string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE notes SET embedding = ?, embedding_model = ? WHERE id = ? AND text = ?",
		embeddings.EmbeddingToBytes(vec), model, id, text,
	)
	err = checkAffected("set embedding", result, err)
	if !errors.Is(err, interrors.ErrNoteNotFound) {
		return err
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM notes WHERE id = ?)", id).Scan(&exists); err != nil {
		return interrors.NewStoreError("set embedding", err)
	}
	if exists {
		return interrors.ErrTextChanged
	}
	return interrors.ErrNoteNotFound
}

// ClearEmbedding drops the vector of one note, e.g. when it no longer matches the text.
func (r *NoteRepository) ClearEmbedding(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE notes SET embedding = NULL, embedding_model = NULL WHERE id = ?", id)
	return checkAffected("clear embedding", result, err)
}

// ClearAllEmbeddings drops every stored vector and reports how many were removed.
func (r *NoteRepository) ClearAllEmbeddings(ctx context.Context) (int, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE notes SET embedding = NULL, embedding_model = NULL WHERE embedding IS NOT NULL")
	if err != nil {
		return 0, interrors.NewStoreError("clear embeddings", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, interrors.NewStoreError("clear embeddings", err)
	}
	return int(n), nil
}

func (r *NoteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&n); err != nil {
		return 0, interrors.NewStoreError("count", err)
	}
	return n, nil
}

func (r *NoteRepository) CountWithEmbedding(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes WHERE embedding IS NOT NULL").Scan(&n)
	if err != nil {
		return 0, interrors.NewStoreError("count embedded", err)
	}
	return n, nil
}
