package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/sectors/internal/cli/formatter"
	"github.com/alexanderramin/sectors/internal/domain"
	"github.com/alexanderramin/sectors/internal/form"
	"github.com/spf13/cobra"
)

func newTreeCmd(app *App) *cobra.Command {
	var flat bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the sector tree",
		Long: `Print every sector in tree order. Sectors in the saved selection are
checked. With --flat, print one "id<TAB>depth<TAB>name" line per sector.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := loadJoin(cmd, app)
			if err != nil {
				return err
			}
			options := domain.Flatten(j.Sectors)
			out := cmd.OutOrStdout()
			if flat {
				for _, opt := range options {
					fmt.Fprintf(out, "%d\t%d\t%s\n", opt.ID, opt.Depth, opt.Name)
				}
				return nil
			}

			selected := domain.NewSelectionSet()
			if j.Selection != nil {
				selected = j.Selection.Sectors()
			}
			fmt.Fprintln(out, formatter.Header("Sectors"))
			fmt.Fprint(out, formatter.RenderSectorTree(options, selected))
			fmt.Fprintln(out, formatter.Dim(formatter.Pluralize(len(options), "sector", "sectors")))
			return nil
		},
	}
	cmd.Flags().BoolVar(&flat, "flat", false, "tab-separated output for scripts")
	return cmd
}

// loadJoin runs the initial load and turns a sector failure into an error.
// A failed saved-selection fetch is logged and treated as no selection.
func loadJoin(cmd *cobra.Command, app *App) (*form.Join, error) {
	stop := startSpinner(cmd, app, "Loading sectors...")
	j := form.LoadInitial(cmdContext(cmd), app.Client)
	stop()
	if j.Phase() == form.PhaseFatal {
		app.logger().WithError(j.SectorsErr).Error("loading sectors failed")
		return nil, fmt.Errorf("%s: %w", strings.TrimSuffix(form.SectorsLoadFailedMessage, "."), j.SectorsErr)
	}
	if j.SelectionErr != nil {
		app.logger().WithError(j.SelectionErr).Warn("loading saved selection failed")
	}
	return j, nil
}

// startSpinner animates message on stderr while on a terminal.
func startSpinner(cmd *cobra.Command, app *App, message string) func() {
	if !app.interactive() {
		return func() {}
	}
	return formatter.StartSpinner(cmd.ErrOrStderr(), message)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
