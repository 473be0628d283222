package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Find notes by meaning",
	Long: `Embed the query and list the closest notes by cosine similarity.

Examples:
  ml-todos search groceries
  ml-todos search --limit 10 "things for the house"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var (
	searchLimit int
	searchJSON  bool
)

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "Maximum number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print results as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	results, err := svc.Search.Search(commandContext(cmd), query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No matching notes found.")
		return nil
	}

	fmt.Printf("Found %d notes matching %q:\n\n", len(results), query)
	for _, r := range results {
		fmt.Printf("[%s] %.3f  %s\n", r.ID, r.Score, preview(r.Text))
	}
	return nil
}
