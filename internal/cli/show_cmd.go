package cli

import (
	"fmt"
	"time"

	"github.com/alexanderramin/sectors/internal/cli/formatter"
	"github.com/alexanderramin/sectors/internal/domain"
	"github.com/spf13/cobra"
)

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved selection for this session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := loadJoin(cmd, app)
			if err != nil {
				return err
			}
			if j.SelectionErr != nil {
				return fmt.Errorf("loading saved selection: %w", j.SelectionErr)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSelection(j.Selection, domain.SectorNames(j.Sectors), time.Now()))
			return nil
		},
	}
}
