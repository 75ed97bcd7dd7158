package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/skillcycle/internal/db"
	"github.com/alexanderramin/skillcycle/internal/domain"
)

// SQLiteAnswerRepo implements AnswerRepo using a SQLite database.
type SQLiteAnswerRepo struct {
	db db.DBTX
}

// NewSQLiteAnswerRepo creates a new SQLiteAnswerRepo.
func NewSQLiteAnswerRepo(db db.DBTX) *SQLiteAnswerRepo {
	return &SQLiteAnswerRepo{db: db}
}

func (r *SQLiteAnswerRepo) CreateBatch(ctx context.Context, answers []domain.AssessmentAnswer) error {
	query := `INSERT INTO assessment_answers (conversation_id, question_id, question, selected_option)
		VALUES (?, ?, ?, ?)`
	for _, a := range answers {
		if _, err := r.db.ExecContext(ctx, query, a.ConversationID, a.QuestionID, a.Question, a.SelectedOption); err != nil {
			return fmt.Errorf("inserting answer %d: %w", a.QuestionID, err)
		}
	}
	return nil
}

func (r *SQLiteAnswerRepo) ListByConversation(ctx context.Context, conversationID string) ([]domain.AssessmentAnswer, error) {
	query := `SELECT conversation_id, question_id, question, selected_option
		FROM assessment_answers WHERE conversation_id = ? ORDER BY question_id`
	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}
	defer rows.Close()

	var out []domain.AssessmentAnswer
	for rows.Next() {
		var a domain.AssessmentAnswer
		if err := rows.Scan(&a.ConversationID, &a.QuestionID, &a.Question, &a.SelectedOption); err != nil {
			return nil, fmt.Errorf("scanning answer row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating answers: %w", err)
	}
	return out, nil
}
