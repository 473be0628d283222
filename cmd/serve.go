package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/streed/ml-todos/internal/api"
	"github.com/streed/ml-todos/internal/logger"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web board and HTTP API",
	Long: `Start an HTTP server that serves the browser board and the JSON API.

Endpoints:
  GET    /api/todos                 list notes
  POST   /api/todos                 create a note {"text": "..."}
  PATCH  /api/todos/{id}            replace a note's text
  DELETE /api/todos/{id}            delete a note
  GET    /api/todos/search?query=   semantic search (top 3)
  GET    /api/themes                most frequent leading words
  GET    /api/todos/{theme}         notes starting with a theme
  POST   /api/reindex               embed notes that have no vector
  GET    /api/health                database and index status

Examples:
  ml-todos serve                              # http://localhost:3000
  ml-todos serve --host 0.0.0.0 --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind the server to (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to bind the server to (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveHost != "" {
		appConfig.Host = serveHost
	}
	if servePort != 0 {
		appConfig.Port = servePort
	}

	logger.Info("Initializing HTTP API server...")
	apiServer := api.NewAPIServer(appConfig, db, svc, assetProvider)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- apiServer.Start()
	}()

	fmt.Printf("\nml-todos\n")
	if assetProvider != nil && assetProvider.HasEmbeddedAssets() {
		fmt.Printf("  Board:   http://%s\n", appConfig.Addr())
	}
	fmt.Printf("  API:     http://%s/api/todos\n", appConfig.Addr())
	fmt.Printf("  Health:  http://%s/api/health\n", appConfig.Addr())
	fmt.Printf("\nPress Ctrl+C to stop the server\n\n")

	select {
	case sig := <-sigChan:
		logger.Info("Received signal %v, shutting down gracefully...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiServer.Stop(ctx); err != nil {
			logger.Error("Error during server shutdown: %v", err)
			return err
		}
		logger.Info("Server stopped successfully")
		return nil
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error: %v", err)
			return err
		}
		return nil
	}
}
