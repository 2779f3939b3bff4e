package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/alexanderramin/sectors/internal/cli/formatter"
	"github.com/alexanderramin/sectors/internal/domain"
	"github.com/alexanderramin/sectors/internal/form"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// ErrNotSaved is returned when the server rejects a save.
var ErrNotSaved = errors.New("selection not saved")

func newSaveCmd(app *App) *cobra.Command {
	var (
		name    string
		sectors []int64
		agree   bool
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update the saved selection",
		Long: `Save the selection for this session. The first save creates it; later
saves update it. Fields not given as flags keep their saved values.
Without flags on an interactive terminal, a form opens instead.`,
		Example: `  sectors save --name "John" --sector 1 --sector 19 --agree`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			j, err := loadJoin(cmd, app)
			if err != nil {
				return err
			}
			ctrl := form.NewController(app.Policy)
			ctrl.ApplySaved(j.Selection)
			v := currentValues(ctrl)

			flags := cmd.Flags()
			useWizard := !flags.Changed("name") && !flags.Changed("sector") && !flags.Changed("agree") && app.interactive()
			if useWizard {
				wizard := newSaveWizard(domain.Flatten(j.Sectors), &v).WithProgramOptions(app.ProgramOptions...)
				if err := wizard.Run(); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						return errors.New("save cancelled")
					}
					return fmt.Errorf("running save form: %w", err)
				}
			} else {
				if flags.Changed("name") {
					v.Name = name
				}
				if flags.Changed("sector") {
					v.SectorIDs = sectors
				}
				if flags.Changed("agree") {
					v.Agree = agree
				}
			}
			applyValues(ctrl, v)

			stop := startSpinner(cmd, app, "Saving...")
			out := form.Submit(ctx, app.Client, ctrl)
			stop()
			return reportOutcome(cmd.OutOrStdout(), app, out)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "your name")
	cmd.Flags().Int64SliceVar(&sectors, "sector", nil, "sector ID to select (repeatable)")
	cmd.Flags().BoolVar(&agree, "agree", false, "agree to the terms")
	return cmd
}

func currentValues(ctrl *form.Controller) saveValues {
	st := ctrl.State()
	return saveValues{Name: st.Name, SectorIDs: st.Selected.IDs(), Agree: st.AgreeToTerms}
}

// applyValues edits ctrl through its mutators until it holds v.
func applyValues(ctrl *form.Controller, v saveValues) {
	st := ctrl.State()
	if v.Name != st.Name {
		ctrl.SetName(v.Name)
	}
	want := domain.NewSelectionSet(v.SectorIDs...)
	for _, id := range st.Selected.IDs() {
		if !want.Has(id) {
			ctrl.Toggle(id)
		}
	}
	for _, id := range want.IDs() {
		if !st.Selected.Has(id) {
			ctrl.Toggle(id)
		}
	}
	if v.Agree != st.AgreeToTerms {
		ctrl.SetAgreeToTerms(v.Agree)
	}
}

// fieldOrder is the order fields appear on the form.
var fieldOrder = []string{form.FieldName, form.FieldSectors, form.FieldAgreeToTerms}

func reportOutcome(w io.Writer, app *App, out form.Outcome) error {
	notice := form.NoticeFor(out)
	switch o := out.(type) {
	case form.Saved:
		app.logger().WithField("created", o.Created).Info("selection saved")
		fmt.Fprintln(w, formatter.Success(notice.Message))
		if o.Selection != nil {
			fmt.Fprintln(w, formatter.Dim(formatter.Pluralize(len(o.Selection.SectorIDs), "sector", "sectors")+" selected"))
		}
		return nil
	case form.ValidationFailure:
		fmt.Fprintln(w, formatter.Failure(notice.Message))
		fields := make([]string, 0, len(o.Fields))
		for f := range o.Fields {
			fields = append(fields, f)
		}
		sort.Slice(fields, func(i, j int) bool {
			return fieldRank(fields[i]) < fieldRank(fields[j]) ||
				(fieldRank(fields[i]) == fieldRank(fields[j]) && fields[i] < fields[j])
		})
		for _, f := range fields {
			fmt.Fprintf(w, "  %s %s\n", formatter.Dim(f+":"), formatter.StyleRed.Render(o.Fields[f]))
		}
		return fmt.Errorf("%w: %s", ErrNotSaved, notice.Message)
	default:
		return fmt.Errorf("%w: %s", ErrNotSaved, notice.Message)
	}
}

func fieldRank(field string) int {
	if i := slices.Index(fieldOrder, field); i >= 0 {
		return i
	}
	return len(fieldOrder)
}
