package cmd

import (
	"errors"
	"io"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/streed/ml-todos/internal/logger"
	"github.com/streed/ml-todos/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for LLM integration",
	Long: `Start a Model Context Protocol (MCP) server on stdio so LLM clients can
manage the todo board.

Tools:
- list_notes, add_note, update_note, delete_note
- search_notes: semantic search
- list_themes, notes_by_theme
- reindex_notes

Resources:
- todos://stats: note and embedding counts

Prompts:
- search_notes

To use with Claude Desktop, add this to your claude_desktop_config.json:
{
  "mcpServers": {
    "ml-todos": {
      "command": "ml-todos",
      "args": ["mcp"]
    }
  }
}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	logger.Info("Starting MCP server...")

	todosServer := mcp.NewTodosServer(appConfig, svc, Version)

	logger.Info("MCP server ready. Listening on stdio...")
	if err := server.ServeStdio(todosServer.GetMCPServer()); err != nil && !errors.Is(err, io.EOF) {
		logger.Error("MCP server error: %v", err)
		return err
	}

	logger.Info("MCP server shutting down")
	return nil
}
