package cli

import (
	"fmt"

	"github.com/alexanderramin/skillcycle/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newEndpointsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints",
		Short: "Show the endpoint candidates in the order they are tried",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatEndpoints(app.Config.Endpoints, app.Config.AttemptTimeout()))
			return nil
		},
	}
}
