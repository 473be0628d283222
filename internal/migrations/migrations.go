package migrations

import (
	"database/sql"
	"fmt"
)

// getAllMigrations returns all available migrations in order
func getAllMigrations() []Migration {
	return []Migration{
		{
			ID:          "000_initial_schema",
			Description: "Create notes table",
			Up:          migration000Up,
			Down:        migration000Down,
		},
		{
			ID:          "001_embedding_model",
			Description: "Track the model that produced each embedding",
			Up:          migration001Up,
			Down:        migration001Down,
		},
		// Add new migrations here in chronological order
	}
}

// seq keeps insertion order; id is the opaque identifier handed to clients.
func migration000Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL,
			done INTEGER NOT NULL DEFAULT 0,
			embedding BLOB,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create notes table: %w", err)
	}
	return nil
}

func migration000Down(tx *sql.Tx) error {
	if _, err := tx.Exec("DROP TABLE IF EXISTS notes"); err != nil {
		return fmt.Errorf("failed to drop notes table: %w", err)
	}
	return nil
}

func migration001Up(tx *sql.Tx) error {
	hasColumn, err := columnExists(tx, "notes", "embedding_model")
	if err != nil {
		return err
	}
	if !hasColumn {
		if _, err := tx.Exec("ALTER TABLE notes ADD COLUMN embedding_model TEXT"); err != nil {
			return fmt.Errorf("failed to add embedding_model column: %w", err)
		}
	}

	_, err = tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_notes_has_embedding ON notes((embedding IS NOT NULL))
	`)
	if err != nil {
		return fmt.Errorf("failed to create embedding index: %w", err)
	}
	return nil
}

func migration001Down(tx *sql.Tx) error {
	if _, err := tx.Exec("DROP INDEX IF EXISTS idx_notes_has_embedding"); err != nil {
		return fmt.Errorf("failed to drop embedding index: %w", err)
	}
	if _, err := tx.Exec("ALTER TABLE notes DROP COLUMN embedding_model"); err != nil {
		return fmt.Errorf("failed to drop embedding_model column: %w", err)
	}
	return nil
}

func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to read %s schema: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("failed to scan column info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
