package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streed/ml-todos/internal/api"
	"github.com/streed/ml-todos/internal/config"
	"github.com/streed/ml-todos/internal/database"
	"github.com/streed/ml-todos/internal/embeddings"
	"github.com/streed/ml-todos/internal/logger"
	"github.com/streed/ml-todos/internal/models"
	"github.com/streed/ml-todos/internal/services"
)

// skipStore marks commands that run without opening the database.
const skipStore = "skip-store"

var (
	db            *database.DB
	noteRepo      *models.NoteRepository
	svc           *services.Services
	appConfig     *config.Config
	assetProvider api.AssetProvider
	debugFlag     bool
	Version       = "dev" // Version is set from main.go
)

var rootCmd = &cobra.Command{
	Use:     "ml-todos",
	Short:   "A todo board with semantic search",
	Version: Version,
	Long: `ml-todos keeps a list of short notes, embeds them with an OpenAI-compatible
model and finds them again by meaning. Notes can also be grouped by their
leading word ("Work:", "Home:").

Run 'ml-todos serve' for the web board, or use the subcommands directly.`,
	SilenceUsage:       true,
	PersistentPreRunE:  openStore,
	PersistentPostRunE: closeStore,
}

func Execute() error {
	rootCmd.Version = Version
	err := rootCmd.Execute()
	// PersistentPostRunE is skipped when a command fails.
	if cerr := closeStore(rootCmd, nil); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// SetAssetProvider sets the web assets served by the serve command.
func SetAssetProvider(provider api.AssetProvider) {
	assetProvider = provider
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

func loadConfig() error {
	var err error
	appConfig, err = config.Load()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w (run 'ml-todos init' to create one)", err)
	}

	if debugFlag || appConfig.Debug {
		logger.SetDebugMode(true)
		logger.Debug("Configuration loaded from: %s", func() string {
			path, _ := config.GetConfigPath()
			return path
		}())
		logger.Debug("Database path: %s", appConfig.GetDatabasePath())
		logger.Debug("Embedding provider: %s (%s, %d dimensions)", appConfig.EmbeddingProvider,
			appConfig.EmbeddingModel, appConfig.VectorDimensions)
	}
	return nil
}

func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipStore] == "true" {
			return false
		}
	}
	return cmd.Runnable()
}

func openStore(cmd *cobra.Command, args []string) error {
	if debugFlag {
		logger.SetDebugMode(true)
	}
	if !needsStore(cmd) {
		return nil
	}
	if err := loadConfig(); err != nil {
		return err
	}

	var err error
	db, err = database.New(commandContext(cmd), appConfig)
	if err != nil {
		return fmt.Errorf("error initializing database: %w", err)
	}

	embedder, err := embeddings.New(appConfig)
	if err != nil {
		return errors.Join(err, closeStore(cmd, args))
	}

	noteRepo = models.NewNoteRepository(db.Conn())
	svc = services.NewServices(appConfig, noteRepo, embedder)

	checkAndReindex()
	return nil
}

func closeStore(cmd *cobra.Command, args []string) error {
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

func checkAndReindex() {
	if appConfig.VectorConfigVersion != "" && appConfig.NeedsReindex(appConfig.VectorConfigVersion) {
		logger.Info("Embedding configuration has changed. Reindexing is recommended.")
		logger.Info("Run 'ml-todos reindex' to update all embeddings.")
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
