package domain

import "time"

// ConversationKind distinguishes free-form questions from questionnaire analyses.
type ConversationKind string

const (
	ConversationAsk        ConversationKind = "ask"
	ConversationAssessment ConversationKind = "assessment"
)

// Conversation is one stored exchange with the chat service. RemoteID is the
// session identifier the service returned, empty when none was observed or the
// exchange failed.
type Conversation struct {
	ID        string
	RemoteID  string
	Kind      ConversationKind
	Query     string
	Content   string
	Endpoint  string
	Success   bool
	Error     string
	LatencyMs int64
	CreatedAt time.Time
}

// Resumable reports whether a later exchange can continue this remote session.
func (c *Conversation) Resumable() bool {
	return c.Success && c.RemoteID != ""
}

// AssessmentAnswer is a stored questionnaire answer attached to a conversation.
type AssessmentAnswer struct {
	ConversationID string
	QuestionID     int
	Question       string
	SelectedOption string
}
