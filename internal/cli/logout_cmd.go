package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/sectors/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session; the next save starts a new selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Sessions == nil {
				return errors.New("no session store configured")
			}
			n, err := app.Sessions.Clear(cmdContext(cmd))
			if err != nil {
				return err
			}
			app.logger().WithField("cookies", n).Info("session cleared")
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success("Session cleared ("+formatter.Pluralize(int(n), "cookie", "cookies")+" removed)"))
			return nil
		},
	}
}
