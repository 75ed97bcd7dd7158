package repository

import (
	"context"

	"github.com/alexanderramin/skillcycle/internal/domain"
)

type ConversationRepo interface {
	Create(ctx context.Context, c *domain.Conversation) error
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.Conversation, error)
	// LatestResumable returns the newest successful conversation that carries a
	// remote session ID, or ErrNotFound.
	LatestResumable(ctx context.Context) (*domain.Conversation, error)
	Delete(ctx context.Context, id string) error
}

type AnswerRepo interface {
	CreateBatch(ctx context.Context, answers []domain.AssessmentAnswer) error
	ListByConversation(ctx context.Context, conversationID string) ([]domain.AssessmentAnswer, error)
}
