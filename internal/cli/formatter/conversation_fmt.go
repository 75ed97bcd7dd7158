package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/skillcycle/internal/chat"
	"github.com/alexanderramin/skillcycle/internal/domain"
)

const queryPreviewWidth = 40

// FormatHistory renders recent conversations as a table, newest first.
func FormatHistory(convs []*domain.Conversation, now time.Time) string {
	if len(convs) == 0 {
		return Dim("No conversations yet. Try: skillcycle ask \"...\"") + "\n"
	}

	rows := make([][]string, 0, len(convs))
	for _, c := range convs {
		rows = append(rows, []string{
			TruncID(c.ID),
			HumanTimestamp(c.CreatedAt, now),
			kindLabel(c.Kind),
			OutcomeIndicator(c.Success),
			endpointLabel(c.Endpoint),
			Truncate(c.Query, queryPreviewWidth),
		})
	}

	var b strings.Builder
	b.WriteString(Header("History"))
	b.WriteString("\n\n")
	b.WriteString(RenderTable([]string{"ID", "WHEN", "KIND", "RESULT", "VIA", "QUERY"}, rows))
	return b.String()
}

// FormatConversation renders one stored exchange with its answers, if any.
func FormatConversation(c *domain.Conversation, answers []domain.AssessmentAnswer, now time.Time) string {
	var meta strings.Builder
	fmt.Fprintf(&meta, "%s  %s\n", Dim("ID:      "), c.ID)
	fmt.Fprintf(&meta, "%s  %s\n", Dim("When:    "), HumanDate(c.CreatedAt, now))
	fmt.Fprintf(&meta, "%s  %s\n", Dim("Kind:    "), kindLabel(c.Kind))
	fmt.Fprintf(&meta, "%s  %s\n", Dim("Result:  "), OutcomeIndicator(c.Success))
	fmt.Fprintf(&meta, "%s  %s  %s\n", Dim("Via:     "), endpointLabel(c.Endpoint), Dim(FormatLatency(c.LatencyMs)))
	if c.RemoteID != "" {
		fmt.Fprintf(&meta, "%s  %s\n", Dim("Session: "), c.RemoteID)
	}

	var b strings.Builder
	b.WriteString(RenderBox("Conversation", strings.TrimRight(meta.String(), "\n")))
	b.WriteString("\n\n")

	if len(answers) > 0 {
		b.WriteString(FormatAnswers(answers))
		b.WriteString("\n")
	} else {
		b.WriteString(Header("Query"))
		b.WriteString("\n")
		b.WriteString(c.Query)
		b.WriteString("\n\n")
	}

	if c.Success {
		b.WriteString(Header("Response"))
		b.WriteString("\n")
		b.WriteString(c.Content)
		b.WriteString("\n")
	} else {
		b.WriteString(Failure(c.Error))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatAnswers lists questionnaire answers as numbered lines.
func FormatAnswers(answers []domain.AssessmentAnswer) string {
	var b strings.Builder
	b.WriteString(Header("Answers"))
	b.WriteString("\n")
	for _, a := range answers {
		fmt.Fprintf(&b, "%s %s\n", StylePurple.Render(fmt.Sprintf("%2d.", a.QuestionID)), a.Question)
		fmt.Fprintf(&b, "    %s\n", StyleGreen.Render(a.SelectedOption))
	}
	return b.String()
}

// FormatExchangeFooter summarises where a successful exchange was served from.
func FormatExchangeFooter(c *domain.Conversation) string {
	parts := []string{"via " + c.Endpoint, FormatLatency(c.LatencyMs)}
	if c.RemoteID != "" {
		parts = append(parts, "session "+c.RemoteID)
	}
	return Dim(strings.Join(parts, " · "))
}

// FormatEndpoints renders the ordered endpoint candidates.
func FormatEndpoints(endpoints []chat.Endpoint, attemptTimeout time.Duration) string {
	if len(endpoints) == 0 {
		return Failure("No endpoints configured. Set SKILLCYCLE_ENDPOINTS or add [[endpoints]] to the config file.") + "\n"
	}

	rows := make([][]string, 0, len(endpoints))
	for i, ep := range endpoints {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			Bold(ep.Name),
			TransportColor(string(ep.Transport)).Render(string(ep.Transport)),
			ep.URL,
		})
	}

	var b strings.Builder
	b.WriteString(Header("Endpoints"))
	b.WriteString("\n\n")
	b.WriteString(RenderTable([]string{"#", "NAME", "TRANSPORT", "URL"}, rows))
	b.WriteString("\n")
	b.WriteString(Dim(fmt.Sprintf("Each endpoint is tried once, in order, with a %s timeout.", attemptTimeout)))
	b.WriteString("\n")
	return b.String()
}

func kindLabel(k domain.ConversationKind) string {
	if k == domain.ConversationAssessment {
		return StylePurple.Render("assess")
	}
	return StyleBlue.Render("ask")
}

func endpointLabel(name string) string {
	if name == "" {
		return Dim("--")
	}
	return name
}
