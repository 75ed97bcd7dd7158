package service

import (
	"context"

	"github.com/alexanderramin/skillcycle/internal/assessment"
	"github.com/alexanderramin/skillcycle/internal/chat"
	"github.com/alexanderramin/skillcycle/internal/domain"
)

// Sender delivers one chat request; *chat.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, req chat.Request) *chat.Result
}

// AskRequest is a single question to the chat service.
type AskRequest struct {
	Query string

	// ConversationID continues a specific remote session. When empty and
	// NewSession is false, the latest resumable session is continued.
	ConversationID string
	NewSession     bool

	OnFragment chat.FragmentFunc
	OnAttempt  func(ep chat.Endpoint, attempt int)
}

// AssessRequest submits questionnaire answers for analysis.
type AssessRequest struct {
	Answers    []assessment.Answer
	NewSession bool

	OnFragment chat.FragmentFunc
	OnAttempt  func(ep chat.Endpoint, attempt int)
}

type ChatService interface {
	// Ask sends a query and stores the exchange. A failed exchange is stored and
	// returned with Success=false; the error is reserved for storage failures.
	Ask(ctx context.Context, req AskRequest) (*domain.Conversation, error)
	Assess(ctx context.Context, req AssessRequest) (*domain.Conversation, error)
	Get(ctx context.Context, id string) (*domain.Conversation, error)
	Answers(ctx context.Context, conversationID string) ([]domain.AssessmentAnswer, error)
	History(ctx context.Context, limit int) ([]*domain.Conversation, error)
	Delete(ctx context.Context, id string) error
}
