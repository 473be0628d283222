package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streed/ml-todos/internal/config"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Manage ml-todos configuration",
	Long:        `View and manage ml-todos configuration settings.`,
	Annotations: map[string]string{skipStore: "true"},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration: the config file with environment
overrides (.env, OPENAI_API_KEY, PORT, ...) applied.`,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value.

Available keys:
  - data-dir: Data directory for storing the todo database
  - database-path: Explicit path of the SQLite database
  - host, port: Address the web server listens on
  - embedding-provider: openai or hash
  - embedding-model: Embedding model name
  - embedding-base-url: OpenAI-compatible endpoint
  - vector-dimensions: Number of vector dimensions
  - embedding-timeout: Seconds to wait for the embedding provider
  - embed-on-write: Embed notes as they are created (true/false)
  - search-limit: Default number of search results
  - search-candidates: Candidate pool size for vector search
  - theme-limit: Maximum number of themes returned
  - themes-embedded-only: Only count embedded notes towards themes (true/false)
  - query-cache-size: Number of query embeddings kept in memory (0 disables)
  - reindex-concurrency: Parallel embedding requests during reindex
  - debug: Enable/disable debug logging (true/false)

The API key is never stored; set OPENAI_API_KEY in the environment or a .env file.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	apiKey := "not set"
	if cfg.APIKey != "" {
		apiKey = "set"
	}

	fmt.Println("=== ML Todos Configuration ===")
	fmt.Printf("Config file:           %s\n", configPath)
	fmt.Printf("data-dir:              %s\n", cfg.DataDirectory)
	fmt.Printf("database-path:         %s\n", cfg.GetDatabasePath())
	fmt.Printf("listen address:        %s\n", cfg.Addr())
	fmt.Printf("embedding-provider:    %s\n", cfg.EmbeddingProvider)
	fmt.Printf("embedding-model:       %s\n", cfg.EmbeddingModel)
	if cfg.EmbeddingBaseURL != "" {
		fmt.Printf("embedding-base-url:    %s\n", cfg.EmbeddingBaseURL)
	}
	fmt.Printf("vector-dimensions:     %d\n", cfg.VectorDimensions)
	fmt.Printf("embedding-timeout:     %ds\n", cfg.EmbeddingTimeoutSeconds)
	fmt.Printf("embed-on-write:        %v\n", cfg.EmbedOnWrite)
	fmt.Printf("search-limit:          %d\n", cfg.SearchLimit)
	fmt.Printf("search-candidates:     %d\n", cfg.SearchCandidates)
	fmt.Printf("theme-limit:           %d\n", cfg.ThemeLimit)
	fmt.Printf("themes-embedded-only:  %v\n", cfg.ThemesEmbeddedOnly)
	fmt.Printf("query-cache-size:      %d\n", cfg.QueryCacheSize)
	fmt.Printf("reindex-concurrency:   %d\n", cfg.ReindexConcurrency)
	fmt.Printf("debug:                 %v\n", cfg.Debug)
	fmt.Printf("API key:               %s\n", apiKey)
	if cfg.VectorConfigVersion != "" {
		fmt.Printf("Vector config hash:    %s\n", cfg.VectorConfigVersion)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	fmt.Println(configPath)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if key == "data-dir" {
		value = expandPath(value)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	// The file alone, so environment overrides are not written back.
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	needsReindex, err := cfg.Set(key, value)
	if err != nil {
		return err
	}

	if err := config.SaveFile(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Printf("Configuration updated: %s = %s\n", key, value)
	if needsReindex {
		fmt.Println("\nWarning: Embedding configuration has changed.")
		fmt.Println("You should run 'ml-todos reindex' to update all note embeddings.")
	}
	return nil
}
