package testutil

import (
	"time"

	"github.com/alexanderramin/skillcycle/internal/domain"
	"github.com/google/uuid"
)

// ConversationOption customises a test conversation.
type ConversationOption func(*domain.Conversation)

func WithRemoteID(id string) ConversationOption {
	return func(c *domain.Conversation) {
		c.RemoteID = id
	}
}

func WithKind(k domain.ConversationKind) ConversationOption {
	return func(c *domain.Conversation) {
		c.Kind = k
	}
}

func WithFailure(msg string) ConversationOption {
	return func(c *domain.Conversation) {
		c.Success = false
		c.Error = msg
		c.Content = ""
	}
}

func WithCreatedAt(t time.Time) ConversationOption {
	return func(c *domain.Conversation) {
		c.CreatedAt = t
	}
}

func NewTestConversation(query string, opts ...ConversationOption) *domain.Conversation {
	c := &domain.Conversation{
		ID:        uuid.New().String(),
		Kind:      domain.ConversationAsk,
		Query:     query,
		Content:   "answer to " + query,
		Endpoint:  "direct",
		Success:   true,
		LatencyMs: 42,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
