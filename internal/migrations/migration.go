package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/streed/ml-todos/internal/logger"
)

// Migration is one versioned schema change. IDs sort in application order.
type Migration struct {
	ID          string
	Description string
	Up          func(tx *sql.Tx) error
	Down        func(tx *sql.Tx) error // optional
}

// MigrationStatus represents the status of a migration
type MigrationStatus struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Applied     bool   `json:"applied"`
}

type MigrationRunner struct {
	db         *sql.DB
	migrations []Migration
}

func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return newMigrationRunner(db, getAllMigrations())
}

func newMigrationRunner(db *sql.DB, migrations []Migration) *MigrationRunner {
	sorted := append([]Migration(nil), migrations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &MigrationRunner{db: db, migrations: sorted}
}

func (mr *MigrationRunner) ensureTable(ctx context.Context) error {
	_, err := mr.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (mr *MigrationRunner) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := mr.db.QueryContext(ctx, "SELECT id FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan migration id: %w", err)
		}
		applied[id] = true
	}
	return applied, rows.Err()
}

// inTx runs fn in a transaction, rolling back on error.
func (mr *MigrationRunner) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := mr.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Failed to rollback transaction: %v", rbErr)
		}
		return err
	}
	return tx.Commit()
}

// RunMigrations applies every pending migration and returns how many ran.
func (mr *MigrationRunner) RunMigrations(ctx context.Context) (int, error) {
	if err := mr.ensureTable(ctx); err != nil {
		return 0, err
	}

	applied, err := mr.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range mr.migrations {
		if applied[m.ID] {
			logger.Debug("Migration %s already applied, skipping", m.ID)
			continue
		}

		logger.Info("Running migration: %s - %s", m.ID, m.Description)
		err := mr.inTx(ctx, func(tx *sql.Tx) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			_, err := tx.Exec(
				"INSERT INTO schema_migrations (id, description, applied_at) VALUES (?, ?, ?)",
				m.ID, m.Description, time.Now().UTC(),
			)
			return err
		})
		if err != nil {
			return count, fmt.Errorf("migration %s failed: %w", m.ID, err)
		}
		count++
	}

	if count > 0 {
		logger.Info("Applied %d migrations", count)
	} else {
		logger.Debug("No pending migrations")
	}
	return count, nil
}

func (mr *MigrationRunner) GetMigrationStatus(ctx context.Context) ([]MigrationStatus, error) {
	if err := mr.ensureTable(ctx); err != nil {
		return nil, err
	}
	applied, err := mr.applied(ctx)
	if err != nil {
		return nil, err
	}

	status := make([]MigrationStatus, 0, len(mr.migrations))
	for _, m := range mr.migrations {
		status = append(status, MigrationStatus{
			ID:          m.ID,
			Description: m.Description,
			Applied:     applied[m.ID],
		})
	}
	return status, nil
}

func (mr *MigrationRunner) RollbackMigration(ctx context.Context, migrationID string) error {
	var target *Migration
	for i := range mr.migrations {
		if mr.migrations[i].ID == migrationID {
			target = &mr.migrations[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("migration %s not found", migrationID)
	}
	if target.Down == nil {
		return fmt.Errorf("migration %s does not support rollback", migrationID)
	}

	applied, err := mr.applied(ctx)
	if err != nil {
		return err
	}
	if !applied[migrationID] {
		return fmt.Errorf("migration %s is not applied", migrationID)
	}

	logger.Info("Rolling back migration: %s - %s", target.ID, target.Description)
	err = mr.inTx(ctx, func(tx *sql.Tx) error {
		if err := target.Down(tx); err != nil {
			return err
		}
		_, err := tx.Exec("DELETE FROM schema_migrations WHERE id = ?", migrationID)
		return err
	})
	if err != nil {
		return fmt.Errorf("rollback %s failed: %w", migrationID, err)
	}
	return nil
}
