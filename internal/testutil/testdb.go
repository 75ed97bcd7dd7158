package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/skillcycle/internal/db"
)

// NewTestDB opens a private in-memory history store with the conversations and
// assessment_answers tables in place, closed at test cleanup.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestUoW wraps database for services that store an exchange transactionally.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
