package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/streed/ml-todos/internal/constants"
	"github.com/streed/ml-todos/internal/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all notes",
	Long:  `List all notes, newest first, with their ID and creation time.`,
	RunE:  runList,
}

var (
	listShort bool
	listJSON  bool
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVarP(&listShort, "short", "s", false, "Show only ID and text")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print notes as JSON in insertion order")
}

func runList(cmd *cobra.Command, args []string) error {
	notes, err := svc.Notes.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list notes: %w", err)
	}

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(notes)
	}

	if len(notes) == 0 {
		fmt.Println("No notes found.")
		return nil
	}

	fmt.Printf("Found %d notes:\n\n", len(notes))
	printNotes(newestFirst(notes), listShort)
	return nil
}

func newestFirst(notes []*models.Note) []*models.Note {
	out := make([]*models.Note, len(notes))
	for i, n := range notes {
		out[len(notes)-1-i] = n
	}
	return out
}

func printNotes(notes []*models.Note, short bool) {
	for _, note := range notes {
		if short {
			fmt.Printf("[%s] %s\n", note.ID, preview(note.Text))
			continue
		}
		fmt.Printf("ID: %s\n", note.ID)
		fmt.Printf("Text: %s\n", preview(note.Text))
		fmt.Printf("Created: %s\n", formatTime(note.CreatedAt))
		if note.HasEmbedding() {
			fmt.Printf("Embedded: yes\n")
		}
		fmt.Println(strings.Repeat("-", 60))
	}
}

func preview(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) > constants.PreviewLength {
		return string(runes[:constants.PreviewLength-3]) + "..."
	}
	return text
}

func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		minutes := int(diff.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}
