package store

import (
	"database/sql"
	"fmt"
)

// OpenMemory opens a migrated in-memory database.
// This is only intended for use in tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Every pooled connection would get its own empty :memory: database.
	db.SetMaxOpenConns(1)

	return setup(db)
}
