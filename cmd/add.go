package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a new note",
	Long: `Add a new note. The text is taken from the arguments, or from stdin
when nothing is given and input is piped.

Examples:
  ml-todos add "Work: finish report"
  echo "Home: clean" | ml-todos add`,
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if text == "" {
		stat, _ := os.Stdin.Stat()
		if stat != nil && (stat.Mode()&os.ModeCharDevice) == 0 {
			scanner := bufio.NewScanner(os.Stdin)
			var lines []string
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			text = strings.Join(lines, "\n")
		}
	}

	note, err := svc.Notes.Create(commandContext(cmd), text)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	fmt.Printf("Note created successfully!\n")
	fmt.Printf("ID: %s\n", note.ID)
	fmt.Printf("Text: %s\n", note.Text)
	return nil
}
