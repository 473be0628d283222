package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update <id> <text...>",
	Short: "Replace the text of a note",
	Long: `Replace the text of an existing note.

When embed-on-write is enabled the note is re-embedded; otherwise its stored
vector is dropped until the next 'ml-todos reindex'.`,
	Aliases: []string{"edit"},
	Args:    cobra.MinimumNArgs(2),
	RunE:    runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id := args[0]
	text := strings.Join(args[1:], " ")

	note, err := svc.Notes.UpdateText(commandContext(cmd), id, text)
	if err != nil {
		return fmt.Errorf("failed to update note %s: %w", id, err)
	}

	fmt.Printf("Note %s updated.\n", note.ID)
	fmt.Printf("Text: %s\n", preview(note.Text))
	return nil
}
