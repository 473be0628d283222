package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streed/ml-todos/internal/config"
	"github.com/streed/ml-todos/internal/constants"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize ml-todos configuration",
	Long: `Initialize ml-todos configuration interactively or with flags.
This command writes the configuration file and creates the data directory.`,
	Annotations: map[string]string{skipStore: "true"},
	RunE:        runInit,
}

var (
	initDataDir           string
	initEmbeddingProvider string
	initInteractive       bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initDataDir, "data-dir", "", "Data directory for storing the todo database")
	initCmd.Flags().StringVar(&initEmbeddingProvider, "embedding-provider", "", "Embedding provider (openai or hash)")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Run interactive setup")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Configuration already exists at: %s\n", configPath)
		fmt.Print("Do you want to overwrite it? (y/N): ")

		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Configuration initialization cancelled.")
			return nil
		}
	}

	if initInteractive {
		fmt.Println("=== ML Todos Configuration Setup ===")
		fmt.Println()

		defaultDataDir := config.GetDefaultDataDirectory()
		fmt.Printf("Data directory [%s]: ", defaultDataDir)
		if input := readLine(reader); input != "" {
			initDataDir = expandPath(input)
		}

		fmt.Printf("Embedding provider (%s/%s) [%s]: ", constants.EmbeddingProviderOpenAI,
			constants.EmbeddingProviderHash, constants.EmbeddingProviderOpenAI)
		if input := readLine(reader); input != "" {
			initEmbeddingProvider = input
		}
	} else if initDataDir != "" {
		initDataDir = expandPath(initDataDir)
	}

	if initEmbeddingProvider != "" &&
		initEmbeddingProvider != constants.EmbeddingProviderOpenAI &&
		initEmbeddingProvider != constants.EmbeddingProviderHash {
		return fmt.Errorf("unknown embedding provider %q", initEmbeddingProvider)
	}

	cfg, err := config.InitializeConfig(initDataDir, initEmbeddingProvider)
	if err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	fmt.Println("\n=== Configuration Summary ===")
	fmt.Printf("Config file:         %s\n", configPath)
	fmt.Printf("Data directory:      %s\n", cfg.DataDirectory)
	fmt.Printf("Database path:       %s\n", cfg.GetDatabasePath())
	fmt.Printf("Embedding provider:  %s\n", cfg.EmbeddingProvider)
	fmt.Printf("Embedding model:     %s\n", cfg.EmbeddingModel)
	fmt.Printf("Vector dimensions:   %d\n", cfg.VectorDimensions)

	fmt.Println("\nConfiguration initialized successfully!")
	if cfg.EmbeddingProvider == constants.EmbeddingProviderOpenAI {
		fmt.Println("Set OPENAI_API_KEY in your environment or a .env file before adding notes.")
	}
	return nil
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[2:])
		}
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
