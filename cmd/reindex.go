package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streed/ml-todos/internal/config"
	"github.com/streed/ml-todos/internal/logger"
	"github.com/streed/ml-todos/internal/search"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Embed notes with the current embedding configuration",
	Long: `Embed every note that has no vector, or a vector from a different model.
This is necessary after changing the embedding provider, model or dimensions.

Use --force to drop all stored vectors and embed every note again.`,
	RunE: runReindex,
}

var forceReindex bool

func init() {
	rootCmd.AddCommand(reindexCmd)
	reindexCmd.Flags().BoolVarP(&forceReindex, "force", "f", false, "Re-embed every note, even ones already indexed")
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	fmt.Printf("Reindexing notes with:\n")
	fmt.Printf("  Provider:   %s\n", appConfig.EmbeddingProvider)
	fmt.Printf("  Model:      %s\n", appConfig.EmbeddingModel)
	fmt.Printf("  Dimensions: %d\n", appConfig.VectorDimensions)
	fmt.Println()

	var (
		result search.ReindexResult
		err    error
	)
	if forceReindex {
		result, err = svc.Search.Rebuild(ctx)
	} else {
		result, err = svc.Search.Reindex(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Reindexing complete: %d indexed, %d failed, %d skipped.\n",
		result.Indexed, result.Failed, result.Skipped)

	if result.Failed > 0 {
		fmt.Println("Some notes could not be embedded. Run with --debug for details.")
		return nil
	}
	return saveVectorConfigVersion()
}

// saveVectorConfigVersion records the embedding configuration the store now
// matches. The file is reloaded so environment overrides are not persisted.
func saveVectorConfigVersion() error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	fileCfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	fileCfg.VectorConfigVersion = appConfig.GetVectorConfigHash()
	if err := config.SaveFile(fileCfg, path); err != nil {
		logger.Error("Failed to update configuration: %v", err)
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}
