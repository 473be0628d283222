package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/streed/ml-todos/internal/config"
	interrors "github.com/streed/ml-todos/internal/errors"
	"github.com/streed/ml-todos/internal/logger"
	"github.com/streed/ml-todos/internal/services"
)

// AssetProvider interface for accessing web assets
type AssetProvider interface {
	GetStaticHandler() http.Handler
	HasEmbeddedAssets() bool
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type APIServer struct {
	cfg      *config.Config
	db       Pinger
	services *services.Services
	assets   AssetProvider
	server   *http.Server
}

type TextRequest struct {
	Text string `json:"text"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewAPIServer(cfg *config.Config, db Pinger, svc *services.Services, assetProvider AssetProvider) *APIServer {
	return &APIServer{
		cfg:      cfg,
		db:       db,
		services: svc,
		assets:   assetProvider,
	}
}

// pathVar returns a route variable with its percent-encoding removed.
func pathVar(r *http.Request, name string) string {
	v := mux.Vars(r)[name]
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// Handler builds the routed, CORS-wrapped handler.
func (s *APIServer) Handler() http.Handler {
	// Match on the escaped path so a theme such as "w/o" arrives as one segment.
	router := mux.NewRouter().UseEncodedPath()
	router.Use(loggingMiddleware)

	api := router.PathPrefix("/api").Subrouter()

	// search must be registered before the {theme} catch-all
	api.HandleFunc("/todos/search", s.handleSearch).Methods("GET")
	api.HandleFunc("/todos", s.handleListNotes).Methods("GET")
	api.HandleFunc("/todos", s.handleCreateNote).Methods("POST")
	api.HandleFunc("/todos/{id}", s.handleUpdateNote).Methods("PATCH", "PUT")
	api.HandleFunc("/todos/{id}", s.handleDeleteNote).Methods("DELETE")
	api.HandleFunc("/todos/{id}/embedding", s.handleEmbedNote).Methods("POST")
	api.HandleFunc("/todos/{theme}", s.handleNotesByTheme).Methods("GET")

	api.HandleFunc("/themes", s.handleListThemes).Methods("GET")
	api.HandleFunc("/themes/{theme}", s.handleNotesByTheme).Methods("GET")

	api.HandleFunc("/reindex", s.handleReindex).Methods("POST")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Path used by the browser client for search
	router.HandleFunc("/search", s.handleSearch).Methods("GET")

	if s.assets != nil && s.assets.HasEmbeddedAssets() {
		static := s.assets.GetStaticHandler()
		router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", static))
		router.Handle("/", static).Methods("GET")
		router.Handle("/{file:[^/]+\\.(?:js|css|html|ico)}", static).Methods("GET")
		logger.Debug("Web UI enabled, serving embedded static assets")
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
	return c.Handler(router)
}

func (s *APIServer) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Starting HTTP API server on %s", s.server.Addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *APIServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger.LogRequest(r.Method, r.URL.Path, r.RemoteAddr)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.LogResponse(r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func (s *APIServer) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response: %v", err)
	}
}

// writeError maps err onto a status code. Internal failures are logged with
// their cause and answered with the generic message only.
func (s *APIServer) writeError(w http.ResponseWriter, r *http.Request, err error, generic string) {
	switch {
	case interrors.IsValidation(err):
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case interrors.IsNotFound(err):
		s.writeJSON(w, http.StatusNotFound, MessageResponse{Message: "Todo not found"})
	default:
		logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: generic})
	}
}

func decodeText(r *http.Request) (string, error) {
	var req TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", interrors.NewValidationError("body", fmt.Errorf("invalid JSON: %w", err))
	}
	return req.Text, nil
}

// Handlers

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"embedding": s.cfg.EmbeddingProvider,
	}

	if err := s.db.Ping(r.Context()); err != nil {
		health["status"] = "unhealthy"
		health["database_error"] = err.Error()
		s.writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}

	total, embedded, err := s.services.Notes.Stats(r.Context())
	if err != nil {
		health["status"] = "unhealthy"
		health["database_error"] = err.Error()
		s.writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}
	health["notes"] = total
	health["embedded"] = embedded

	s.writeJSON(w, http.StatusOK, health)
}

func (s *APIServer) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.services.Notes.List(r.Context())
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch todos")
		return
	}
	s.writeJSON(w, http.StatusOK, notes)
}

func (s *APIServer) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	text, err := decodeText(r)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	note, err := s.services.Notes.Create(r.Context(), text)
	if err != nil {
		s.writeError(w, r, err, "Failed to create todo")
		return
	}
	s.writeJSON(w, http.StatusOK, note)
}

func (s *APIServer) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id := pathVar(r, "id")
	text, err := decodeText(r)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	note, err := s.services.Notes.UpdateText(r.Context(), id, text)
	if err != nil {
		s.writeError(w, r, err, "Server error")
		return
	}
	s.writeJSON(w, http.StatusOK, note)
}

func (s *APIServer) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id := pathVar(r, "id")
	if err := s.services.Notes.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err, "Failed to delete todo")
		return
	}
	s.writeJSON(w, http.StatusOK, MessageResponse{Message: "Todo deleted"})
}

func (s *APIServer) handleEmbedNote(w http.ResponseWriter, r *http.Request) {
	id := pathVar(r, "id")
	note, err := s.services.Notes.Embed(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "Failed to compute embedding")
		return
	}
	s.writeJSON(w, http.StatusOK, note)
}

func (s *APIServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, r, interrors.NewValidationError("limit", fmt.Errorf("must be a positive integer, got %q", v)), "")
			return
		}
		limit = n
	}

	results, err := s.services.Search.Search(r.Context(), query, limit)
	if err != nil {
		s.writeError(w, r, err, "Failed to perform vector search")
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *APIServer) handleListThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := s.services.Themes.List(r.Context(), 0)
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch themes")
		return
	}
	s.writeJSON(w, http.StatusOK, themes)
}

func (s *APIServer) handleNotesByTheme(w http.ResponseWriter, r *http.Request) {
	theme := pathVar(r, "theme")
	notes, err := s.services.Themes.Notes(r.Context(), theme)
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch tasks")
		return
	}
	s.writeJSON(w, http.StatusOK, notes)
}

func (s *APIServer) handleReindex(w http.ResponseWriter, r *http.Request) {
	result, err := s.services.Search.Reindex(r.Context())
	if err != nil {
		s.writeError(w, r, err, "Failed to reindex todos")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
