package telemetry

import (
	"database/sql"

	"codeberg.org/mutker/displayctl/internal/errors"
)

// initSchema initializes the database schema for decision history
func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS decisions (
            timestamp INTEGER PRIMARY KEY,
            current_mode INTEGER,
            current_fps REAL,
            selected_mode INTEGER,
            selected_fps REAL,
            default_mode INTEGER,
            min_fps REAL,
            max_fps REAL,
            layer_count INTEGER,
            strategy TEXT
        )
    `)
	if err != nil {
		return errors.New().Wrap(ErrSchemaInitFailed, err)
	}

	return nil
}
