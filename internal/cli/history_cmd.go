package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/skillcycle/internal/cli/formatter"
	"github.com/alexanderramin/skillcycle/internal/repository"
	"github.com/spf13/cobra"
)

// prefixSearchWindow bounds how many recent conversations a short id is matched against.
const prefixSearchWindow = 500

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"hist"},
		Short:   "Browse stored conversations",
	}

	cmd.AddCommand(
		newHistoryListCmd(app),
		newHistoryShowCmd(app),
		newHistoryDeleteCmd(app),
	)
	return cmd
}

func newHistoryListCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recent conversations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			convs, err := app.Chat.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(convs, time.Now()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of conversations to show")
	return cmd
}

func newHistoryShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveConversationID(ctx, app, args[0])
			if err != nil {
				return err
			}

			conv, err := app.Chat.Get(ctx, id)
			if err != nil {
				return err
			}
			answers, err := app.Chat.Answers(ctx, id)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatConversation(conv, answers, time.Now()))
			return nil
		},
	}
}

func newHistoryDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored conversation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveConversationID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Chat.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", formatter.StyleGreen.Render("Deleted"), formatter.TruncID(id))
			return nil
		},
	}
}

// resolveConversationID accepts a full id or a unique prefix of a recent one.
func resolveConversationID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", errors.New("conversation id must not be empty")
	}
	if _, err := app.Chat.Get(ctx, input); err == nil {
		return input, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	recent, err := app.Chat.History(ctx, prefixSearchWindow)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, c := range recent {
		if strings.HasPrefix(c.ID, input) {
			matches = append(matches, c.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("conversation %q: %w", input, repository.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("conversation id %q is ambiguous (%d matches)", input, len(matches))
	}
}
