package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/alexanderramin/skillcycle/internal/chat"
	"github.com/alexanderramin/skillcycle/internal/domain"
	"github.com/alexanderramin/skillcycle/internal/service"
	"github.com/spf13/cobra"
)

func newAskCmd(app *App) *cobra.Command {
	var (
		newSession     bool
		conversationID string
	)

	cmd := &cobra.Command{
		Use:   `ask "<question>"`,
		Short: "Ask the analysis service a question",
		Long: "Send a question to the chat service and stream the answer.\n" +
			"The latest session is continued unless --new or --conversation is given.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.New("question must not be empty")
			}
			if newSession && conversationID != "" {
				return errors.New("--new and --conversation cannot be combined")
			}

			return runExchange(cmd, app, "Asking", func(ctx context.Context, onFragment chat.FragmentFunc, onAttempt func(chat.Endpoint, int)) (*domain.Conversation, error) {
				return app.Chat.Ask(ctx, service.AskRequest{
					Query:          query,
					ConversationID: conversationID,
					NewSession:     newSession,
					OnFragment:     onFragment,
					OnAttempt:      onAttempt,
				})
			})
		},
	}

	cmd.Flags().BoolVar(&newSession, "new", false, "start a new remote session")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "continue a specific remote session id")
	return cmd
}
