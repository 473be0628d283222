package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var themesCmd = &cobra.Command{
	Use:   "themes [theme]",
	Short: "List themes or the notes under one",
	Long: `Without an argument, list the most common leading words of notes
("Work:", "Home:"). With a theme, list the notes that start with it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runThemes,
}

var themesLimit int

func init() {
	rootCmd.AddCommand(themesCmd)
	themesCmd.Flags().IntVarP(&themesLimit, "limit", "l", 0, "Maximum number of themes (default from config)")
}

func runThemes(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	if len(args) == 1 {
		notes, err := svc.Themes.Notes(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to fetch notes for theme %q: %w", args[0], err)
		}
		if len(notes) == 0 {
			fmt.Printf("No notes start with %q.\n", args[0])
			return nil
		}
		fmt.Printf("Notes under %q:\n\n", args[0])
		printNotes(newestFirst(notes), true)
		return nil
	}

	themes, err := svc.Themes.List(ctx, themesLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch themes: %w", err)
	}
	if len(themes) == 0 {
		fmt.Println("No themes yet.")
		return nil
	}
	for i, theme := range themes {
		fmt.Printf("%2d. %s\n", i+1, theme)
	}
	return nil
}
