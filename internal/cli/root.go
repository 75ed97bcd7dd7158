package cli

import (
	"github.com/alexanderramin/skillcycle/internal/chat"
	"github.com/alexanderramin/skillcycle/internal/service"
	"github.com/spf13/cobra"
)

// App holds the services and settings used by CLI commands.
type App struct {
	Chat   service.ChatService
	Config chat.Config
	Flags  GlobalFlags

	// IsInteractive reports whether output goes to a terminal. When nil or
	// false, commands print plain text and never start a bubbletea program.
	IsInteractive func() bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "skillcycle" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "skillcycle",
		Short:         "Skill assessment and streaming career-analysis chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().AddFlagSet(newGlobalFlagSet(&app.Flags))

	root.AddCommand(
		newAskCmd(app),
		newAssessCmd(app),
		newHistoryCmd(app),
		newEndpointsCmd(app),
	)

	return root
}
