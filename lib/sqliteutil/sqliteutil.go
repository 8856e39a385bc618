package sqliteutil

import (
	"database/sql"
	"fmt"
	"strings"
)

// OpenDB opens the sqlite database at path and applies the given
// schema. Schemas are written with CREATE TABLE IF NOT EXISTS so
// reopening an existing file is safe; other schema failures close the
// handle and report an error.
func OpenDB(schema, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db %s: %w", path, err)
	}
	_, err = db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
