package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alexanderramin/skillcycle/internal/chat"
	"github.com/alexanderramin/skillcycle/internal/cli/formatter"
	"github.com/alexanderramin/skillcycle/internal/domain"
	"github.com/spf13/cobra"
)

// exchangeFunc performs one service call, forwarding stream callbacks.
type exchangeFunc func(ctx context.Context, onFragment chat.FragmentFunc, onAttempt func(chat.Endpoint, int)) (*domain.Conversation, error)

// runExchange executes fn with a live stream view on terminals and plain
// streamed text otherwise. A stored but failed exchange is returned as an error.
func runExchange(cmd *cobra.Command, app *App, title string, fn exchangeFunc) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		conv *domain.Conversation
		err  error
	)
	if app.interactive() {
		conv, err = runStreamView(ctx, cmd.OutOrStdout(), title, len(app.Config.Endpoints), fn)
		if err == nil && conv != nil && conv.Success {
			fmt.Fprintln(cmd.OutOrStdout(), conv.Content)
		}
	} else {
		conv, err = runPlain(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), fn)
	}
	if err != nil {
		return err
	}
	if !conv.Success {
		return exchangeError(conv)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), formatter.FormatExchangeFooter(conv))
	return nil
}

// runPlain writes fragments as they arrive. When a later candidate takes over
// after partial output, the break is marked on errOut.
func runPlain(ctx context.Context, out, errOut io.Writer, fn exchangeFunc) (*domain.Conversation, error) {
	wrote := false
	onFragment := func(f string) {
		fmt.Fprint(out, f)
		wrote = true
	}
	onAttempt := func(ep chat.Endpoint, attempt int) {
		if attempt > 1 && wrote {
			fmt.Fprintln(out)
			fmt.Fprintln(errOut, formatter.Dim(fmt.Sprintf("stream interrupted; retrying via %s (attempt %d)", ep.Name, attempt)))
			wrote = false
		}
	}

	conv, err := fn(ctx, onFragment, onAttempt)
	if wrote {
		fmt.Fprintln(out)
	}
	return conv, err
}

func exchangeError(conv *domain.Conversation) error {
	msg := conv.Error
	if msg == "" {
		msg = "chat request failed"
	}
	if strings.Contains(msg, chat.ErrAllEndpointsFailed.Error()) {
		return fmt.Errorf("%s\nhint: run 'skillcycle endpoints' to review the candidates, or override them with SKILLCYCLE_ENDPOINTS", msg)
	}
	return errors.New(msg)
}
