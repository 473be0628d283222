package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	interrors "github.com/streed/ml-todos/internal/errors"
	"github.com/streed/ml-todos/internal/logger"
	"github.com/streed/ml-todos/internal/models"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [note IDs...]",
	Short: "Delete one or more notes",
	Long: `Delete notes by their IDs.

By default, you will be prompted for confirmation before deletion.
Use --force to skip the confirmation prompt.`,
	Args:    cobra.MinimumNArgs(1),
	Aliases: []string{"rm", "remove"},
	RunE:    runDelete,
}

var forceDelete bool

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&forceDelete, "force", "f", false, "Skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	notesToDelete := make([]*models.Note, 0, len(args))
	for _, id := range args {
		note, err := svc.Notes.Get(ctx, id)
		if interrors.IsNotFound(err) {
			fmt.Printf("Warning: Note with ID %s not found\n", id)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to get note %s: %w", id, err)
		}
		notesToDelete = append(notesToDelete, note)
	}

	if len(notesToDelete) == 0 {
		fmt.Println("No valid notes to delete.")
		return nil
	}

	fmt.Println("The following notes will be deleted:")
	fmt.Println(strings.Repeat("-", 60))
	for _, note := range notesToDelete {
		fmt.Printf("  [%s] %s\n", note.ID, preview(note.Text))
	}
	fmt.Println(strings.Repeat("-", 60))

	if !forceDelete && !confirmDeletion(len(notesToDelete)) {
		fmt.Println("Deletion cancelled.")
		return nil
	}

	successCount := 0
	failCount := 0
	for _, note := range notesToDelete {
		if err := svc.Notes.Delete(ctx, note.ID); err != nil {
			logger.Error("Failed to delete note %s: %v", note.ID, err)
			fmt.Printf("✗ Failed to delete note %s: %v\n", note.ID, err)
			failCount++
			continue
		}
		fmt.Printf("✓ Deleted note %s\n", note.ID)
		successCount++
	}

	fmt.Println(strings.Repeat("=", 60))
	if failCount == 0 {
		fmt.Printf("Successfully deleted %d note(s).\n", successCount)
	} else {
		fmt.Printf("Deleted %d note(s), failed to delete %d note(s).\n", successCount, failCount)
	}
	return nil
}

func confirmDeletion(count int) bool {
	prompt := "Are you sure you want to delete this note? (y/N): "
	if count > 1 {
		prompt = fmt.Sprintf("Are you sure you want to delete %d notes? (y/N): ", count)
	}

	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))

	return response == "y" || response == "yes"
}
