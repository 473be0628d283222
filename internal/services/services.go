package services

import (
	"context"
	"errors"
	"strings"

	"github.com/streed/ml-todos/internal/config"
	"github.com/streed/ml-todos/internal/embeddings"
	interrors "github.com/streed/ml-todos/internal/errors"
	"github.com/streed/ml-todos/internal/logger"
	"github.com/streed/ml-todos/internal/models"
	"github.com/streed/ml-todos/internal/search"
	"github.com/streed/ml-todos/internal/themes"
)

// Services contains all the service dependencies
type Services struct {
	Config *config.Config
	Notes  *NotesService
	Search *SearchService
	Themes *ThemesService
}

// NewServices creates a new services container
func NewServices(cfg *config.Config, noteRepo *models.NoteRepository, embedder embeddings.Embedder) *Services {
	indexer := search.NewIndexer(embedder, noteRepo, cfg.ReindexConcurrency)
	engine := search.NewEngine(embedder, noteRepo, cfg)
	extractor := themes.NewExtractor(noteRepo, cfg.ThemesEmbeddedOnly)

	return &Services{
		Config: cfg,
		Notes:  NewNotesService(noteRepo, indexer, cfg.EmbedOnWrite),
		Search: NewSearchService(engine, indexer, cfg.SearchLimit),
		Themes: NewThemesService(extractor, cfg.ThemeLimit),
	}
}

// NotesService handles note operations
type NotesService struct {
	repo         *models.NoteRepository
	indexer      *search.Indexer
	embedOnWrite bool
}

func NewNotesService(repo *models.NoteRepository, indexer *search.Indexer, embedOnWrite bool) *NotesService {
	return &NotesService{
		repo:         repo,
		indexer:      indexer,
		embedOnWrite: embedOnWrite,
	}
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return interrors.NewValidationError("text", interrors.ErrEmptyText)
	}
	return nil
}

func (s *NotesService) List(ctx context.Context) ([]*models.Note, error) {
	return s.repo.List(ctx)
}

func (s *NotesService) Get(ctx context.Context, id string) (*models.Note, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores a new note. With embed-on-write the embedding is computed
// afterwards; a provider failure leaves the note without a vector.
func (s *NotesService) Create(ctx context.Context, text string) (*models.Note, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	note, err := s.repo.Create(ctx, text)
	if err != nil {
		return nil, err
	}

	if s.embedOnWrite && s.indexer != nil {
		if err := s.indexer.IndexNote(ctx, note.ID, note.Text); err != nil {
			if superseded(err) {
				logger.Debug("Note %s was edited before its embedding was stored", note.ID)
			} else {
				logger.Warn("Note %s created without embedding: %v", note.ID, err)
			}
		}
	}
	return note, nil
}

// UpdateText replaces the text of a note. The stored vector is recomputed,
// or cleared when it cannot be, so it never describes old text.
func (s *NotesService) UpdateText(ctx context.Context, id, text string) (*models.Note, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	note, err := s.repo.UpdateText(ctx, id, text)
	if err != nil {
		return nil, err
	}
	if s.indexer == nil {
		return note, nil
	}

	if s.embedOnWrite {
		err := s.indexer.IndexNote(ctx, note.ID, note.Text)
		if err == nil {
			return note, nil
		}
		if superseded(err) {
			logger.Debug("Note %s was edited again before its embedding was stored", note.ID)
			return note, nil
		}
		logger.Warn("Failed to re-embed note %s: %v", note.ID, err)
	}
	if err := s.indexer.Invalidate(ctx, note.ID); err != nil && !interrors.IsNotFound(err) {
		logger.Error("Failed to clear stale embedding for note %s: %v", note.ID, err)
	}
	return note, nil
}

func (s *NotesService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Embed computes and stores the embedding of one note. Failures are returned.
func (s *NotesService) Embed(ctx context.Context, id string) (*models.Note, error) {
	note, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.indexer.IndexNote(ctx, note.ID, note.Text)
	if errors.Is(err, interrors.ErrTextChanged) {
		// Edited mid-flight; embed the text it has now.
		if note, err = s.repo.GetByID(ctx, id); err != nil {
			return nil, err
		}
		err = s.indexer.IndexNote(ctx, note.ID, note.Text)
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}

// superseded reports whether an embedding was discarded because the note
// changed or disappeared after its text was read.
func superseded(err error) bool {
	return errors.Is(err, interrors.ErrTextChanged) || interrors.IsNotFound(err)
}

// Stats reports the total number of notes and how many carry a vector.
func (s *NotesService) Stats(ctx context.Context) (total, embedded int, err error) {
	if total, err = s.repo.Count(ctx); err != nil {
		return 0, 0, err
	}
	if embedded, err = s.repo.CountWithEmbedding(ctx); err != nil {
		return 0, 0, err
	}
	return total, embedded, nil
}

// SearchService handles search operations
type SearchService struct {
	engine  *search.Engine
	indexer *search.Indexer
	limit   int
}

func NewSearchService(engine *search.Engine, indexer *search.Indexer, limit int) *SearchService {
	return &SearchService{engine: engine, indexer: indexer, limit: limit}
}

// Search returns the closest notes to query. A non-positive limit uses the
// configured default.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	if limit <= 0 {
		limit = s.limit
	}
	return s.engine.Search(ctx, query, limit)
}

func (s *SearchService) Reindex(ctx context.Context) (search.ReindexResult, error) {
	return s.indexer.Reindex(ctx)
}

// Rebuild re-embeds every note, including those already indexed with the
// current model.
func (s *SearchService) Rebuild(ctx context.Context) (search.ReindexResult, error) {
	return s.indexer.Rebuild(ctx)
}

// ThemesService handles theme derivation
type ThemesService struct {
	extractor *themes.Extractor
	limit     int
}

func NewThemesService(extractor *themes.Extractor, limit int) *ThemesService {
	return &ThemesService{extractor: extractor, limit: limit}
}

func (s *ThemesService) List(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = s.limit
	}
	return s.extractor.ComputeThemes(ctx, limit)
}

func (s *ThemesService) Notes(ctx context.Context, theme string) ([]*models.Note, error) {
	return s.extractor.TasksByTheme(ctx, theme)
}
