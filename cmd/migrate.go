package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/streed/ml-todos/internal/migrations"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration management",
	Long: `Manage database migrations and schema changes.

Migrations run automatically whenever the database is opened, so these
commands are mostly useful for troubleshooting.`,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of database migrations",
	RunE:  showMigrationStatus,
}

var migrateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run pending database migrations",
	RunE:  runMigrations,
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "rollback <migration-id>",
	Short: "Roll back one applied migration",
	Long: `Undo a single applied migration. Only migrations that define a rollback
step can be undone, and the next start-up will apply it again.`,
	Args: cobra.ExactArgs(1),
	RunE: rollbackMigration,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateRunCmd)
	migrateCmd.AddCommand(migrateRollbackCmd)
}

func showMigrationStatus(cmd *cobra.Command, args []string) error {
	status, err := migrations.NewMigrationRunner(db.Conn()).GetMigrationStatus(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "MIGRATION ID\tSTATUS\tDESCRIPTION\n")
	fmt.Fprintf(w, "------------\t------\t-----------\n")

	appliedCount := 0
	for _, migration := range status {
		statusText := "PENDING"
		if migration.Applied {
			statusText = "APPLIED"
			appliedCount++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", migration.ID, statusText, migration.Description)
	}
	w.Flush()

	fmt.Printf("\nTotal migrations: %d\n", len(status))
	fmt.Printf("Applied: %d\n", appliedCount)
	fmt.Printf("Pending: %d\n", len(status)-appliedCount)
	return nil
}

func runMigrations(cmd *cobra.Command, args []string) error {
	count, err := migrations.NewMigrationRunner(db.Conn()).RunMigrations(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	fmt.Printf("Migration run completed: %d applied.\n", count)
	return nil
}

func rollbackMigration(cmd *cobra.Command, args []string) error {
	if err := migrations.NewMigrationRunner(db.Conn()).RollbackMigration(commandContext(cmd), args[0]); err != nil {
		return err
	}
	fmt.Printf("Rolled back migration %s.\n", args[0])
	return nil
}
