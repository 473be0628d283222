package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/streed/ml-todos/internal/config"
	"github.com/streed/ml-todos/internal/constants"
	"github.com/streed/ml-todos/internal/logger"
	"github.com/streed/ml-todos/internal/models"
	"github.com/streed/ml-todos/internal/services"
)

type TodosServer struct {
	cfg       *config.Config
	services  *services.Services
	mcpServer *server.MCPServer
}

func NewTodosServer(cfg *config.Config, svc *services.Services, version string) *TodosServer {
	ts := &TodosServer{
		cfg:      cfg,
		services: svc,
	}

	ts.mcpServer = server.NewMCPServer(
		"ml-todos",
		version,
		server.WithToolCapabilities(true),
	)

	ts.registerTools()
	ts.registerResources()
	ts.registerPrompts()

	return ts
}

func (s *TodosServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *TodosServer) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes in insertion order"),
	), s.handleListNotes)

	s.mcpServer.AddTool(mcp.NewTool("add_note",
		mcp.WithDescription("Add a new note"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The text of the note"),
		),
	), s.handleAddNote)

	s.mcpServer.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace the text of an existing note"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The note ID"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The new text"),
		),
	), s.handleUpdateNote)

	s.mcpServer.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note by ID"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The note ID"),
		),
	), s.handleDeleteNote)

	s.mcpServer.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Find the notes most similar in meaning to a query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 3)"),
		),
	), s.handleSearchNotes)

	s.mcpServer.AddTool(mcp.NewTool("list_themes",
		mcp.WithDescription("List the most frequent leading words across notes"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of themes (default: 5)"),
		),
	), s.handleListThemes)

	s.mcpServer.AddTool(mcp.NewTool("notes_by_theme",
		mcp.WithDescription("List notes whose text starts with a theme, ignoring case"),
		mcp.WithString("theme",
			mcp.Required(),
			mcp.Description("Theme as returned by list_themes"),
		),
	), s.handleNotesByTheme)

	s.mcpServer.AddTool(mcp.NewTool("reindex_notes",
		mcp.WithDescription("Compute embeddings for notes that have none"),
	), s.handleReindex)
}

func (s *TodosServer) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("todos://stats",
		"Notes Statistics",
		mcp.WithResourceDescription("Note and embedding counts"),
		mcp.WithMIMEType("text/plain"),
	), s.handleStats)
}

func (s *TodosServer) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt("search_notes",
		mcp.WithPromptDescription("Search notes by meaning"),
		mcp.WithArgument("query",
			mcp.ArgumentDescription("Search query string"),
		),
	), s.handleSearchPrompt)
}

func formatNotes(notes []*models.Note) string {
	var b strings.Builder
	for i, note := range notes {
		fmt.Fprintf(&b, "%d. [ID: %s] %s\n", i+1, note.ID, truncateString(note.Text, constants.PreviewLength))
	}
	return b.String()
}

// Tool handlers
func (s *TodosServer) handleListNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: list_notes")

	notes, err := s.services.Notes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText("No notes found."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Listing %d notes:\n\n%s", len(notes), formatNotes(notes))), nil
}

func (s *TodosServer) handleAddNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: add_note")

	text, err := request.RequireString("text")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'text': %w", err)
	}

	note, err := s.services.Notes.Create(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Note created successfully with ID: %s", note.ID)), nil
}

func (s *TodosServer) handleUpdateNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: update_note")

	id, err := request.RequireString("id")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'id': %w", err)
	}
	text, err := request.RequireString("text")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'text': %w", err)
	}

	note, err := s.services.Notes.UpdateText(ctx, id, text)
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Successfully updated note %s", note.ID)), nil
}

func (s *TodosServer) handleDeleteNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: delete_note")

	id, err := request.RequireString("id")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'id': %w", err)
	}
	if err := s.services.Notes.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete note: %w", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Successfully deleted note %s", id)), nil
}

func (s *TodosServer) handleSearchNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: search_notes")

	query, err := request.RequireString("query")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'query': %w", err)
	}
	limit := request.GetInt("limit", s.cfg.SearchLimit)

	results, err := s.services.Search.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No notes found matching your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d notes:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "%d. [ID: %s] (score %.3f) %s\n", i+1, r.ID, r.Score, truncateString(r.Text, constants.PreviewLength))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *TodosServer) handleListThemes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: list_themes")

	themes, err := s.services.Themes.List(ctx, request.GetInt("limit", 0))
	if err != nil {
		return nil, fmt.Errorf("failed to compute themes: %w", err)
	}
	if len(themes) == 0 {
		return mcp.NewToolResultText("No themes found."), nil
	}
	return mcp.NewToolResultText("Themes: " + strings.Join(themes, ", ")), nil
}

func (s *TodosServer) handleNotesByTheme(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: notes_by_theme")

	theme, err := request.RequireString("theme")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'theme': %w", err)
	}
	notes, err := s.services.Themes.Notes(ctx, theme)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes for theme: %w", err)
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No notes start with %q.", theme)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Notes for theme %s:\n\n%s", theme, formatNotes(notes))), nil
}

func (s *TodosServer) handleReindex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: reindex_notes")

	result, err := s.services.Search.Reindex(ctx)
	if err != nil {
		return nil, fmt.Errorf("reindex failed: %w", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reindex complete: %d indexed, %d failed, %d skipped",
		result.Indexed, result.Failed, result.Skipped)), nil
}

// Resource handlers
func (s *TodosServer) handleStats(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	logger.Debug("MCP resource read: todos://stats")

	total, embedded, err := s.services.Notes.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get note count: %w", err)
	}

	content := fmt.Sprintf(`Notes Database Statistics:
- Total Notes: %d
- Embedded Notes: %d
- Database Path: %s
- Embedding Provider: %s`,
		total, embedded, s.cfg.GetDatabasePath(), s.cfg.EmbeddingProvider)

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     content,
		},
	}, nil
}

// Prompt handlers
func (s *TodosServer) handleSearchPrompt(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	query := request.Params.Arguments["query"]
	prompt := fmt.Sprintf("Search my notes for: %s\n\nUse the search_notes tool and summarize what you find.", query)
	return &mcp.GetPromptResult{
		Description: "Search prompt for notes",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(prompt),
			},
		},
	}, nil
}

func truncateString(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
