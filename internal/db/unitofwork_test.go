package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/alexanderramin/skillcycle/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func insertConversation(ctx context.Context, tx db.DBTX, id string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (id, remote_id, kind, query, content, endpoint, success, error, latency_ms, created_at)
		 VALUES (?, '', 'assessment', 'q', '', 'direct', 1, '', 0, '2026-01-01T00:00:00Z')`, id)
	return err
}

func insertAnswer(ctx context.Context, tx db.DBTX, conversationID string, questionID int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO assessment_answers (conversation_id, question_id, question, selected_option)
		 VALUES (?, ?, 'question', 'A: option')`, conversationID, questionID)
	return err
}

func countRows(t *testing.T, database *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	database := openTestDB(t)
	uow := db.NewSQLiteUnitOfWork(database)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertConversation(ctx, tx, "c1"); err != nil {
			return err
		}
		return insertAnswer(ctx, tx, "c1", 1)
	})

	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, database, "conversations"))
	assert.Equal(t, 1, countRows(t, database, "assessment_answers"))
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	database := openTestDB(t)
	uow := db.NewSQLiteUnitOfWork(database)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertConversation(ctx, tx, "c2"); err != nil {
			return err
		}
		if err := insertAnswer(ctx, tx, "c2", 1); err != nil {
			return err
		}
		// Same primary key: the second answer fails.
		return insertAnswer(ctx, tx, "c2", 1)
	})

	require.Error(t, err)
	assert.Equal(t, 0, countRows(t, database, "conversations"))
	assert.Equal(t, 0, countRows(t, database, "assessment_answers"))
}

func TestWithinTx_ReturnsCallbackError(t *testing.T) {
	uow := db.NewSQLiteUnitOfWork(openTestDB(t))
	boom := errors.New("deliberate failure")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	database := openTestDB(t)
	uow := db.NewSQLiteUnitOfWork(database)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = insertConversation(ctx, tx, "c3")
			panic("boom")
		})
	})

	assert.Equal(t, 0, countRows(t, database, "conversations"))
}
