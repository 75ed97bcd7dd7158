package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/skillcycle/internal/db"
	"github.com/alexanderramin/skillcycle/internal/domain"
)

const conversationColumns = `id, remote_id, kind, query, content, endpoint, success, error, latency_ms, created_at`

// SQLiteConversationRepo implements ConversationRepo using a SQLite database.
type SQLiteConversationRepo struct {
	db db.DBTX
}

// NewSQLiteConversationRepo creates a new SQLiteConversationRepo.
func NewSQLiteConversationRepo(db db.DBTX) *SQLiteConversationRepo {
	return &SQLiteConversationRepo{db: db}
}

func (r *SQLiteConversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	query := `INSERT INTO conversations (` + conversationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.RemoteID,
		string(c.Kind),
		c.Query,
		c.Content,
		c.Endpoint,
		boolToInt(c.Success),
		c.Error,
		c.LatencyMs,
		formatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}
	return nil
}

func (r *SQLiteConversationRepo) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = ?`
	return r.scanConversation(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteConversationRepo) ListRecent(ctx context.Context, limit int) ([]*domain.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + conversationColumns + ` FROM conversations
		ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent conversations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Conversation
	for rows.Next() {
		c, err := r.scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}
	return out, nil
}

func (r *SQLiteConversationRepo) LatestResumable(ctx context.Context) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations
		WHERE success = 1 AND remote_id != ''
		ORDER BY created_at DESC, rowid DESC LIMIT 1`
	return r.scanConversation(r.db.QueryRowContext(ctx, query))
}

func (r *SQLiteConversationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteConversationRepo) scanConversation(row rowScanner) (*domain.Conversation, error) {
	var c domain.Conversation
	var kind, createdAt string
	var success int

	err := row.Scan(
		&c.ID, &c.RemoteID, &kind, &c.Query, &c.Content, &c.Endpoint,
		&success, &c.Error, &c.LatencyMs, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning conversation: %w", err)
	}

	c.Kind = domain.ConversationKind(kind)
	c.Success = intToBool(success)
	c.CreatedAt, err = parseTime("created_at", createdAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
