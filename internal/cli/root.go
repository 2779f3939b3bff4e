package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/sectors/internal/api"
	"github.com/alexanderramin/sectors/internal/form"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// SessionStore forgets the backend session.
type SessionStore interface {
	Clear(ctx context.Context) (int64, error)
}

// App holds everything the commands need. Bootstrap, when set, fills the
// remaining fields from the parsed flags before any command runs.
type App struct {
	Client   api.Client
	Sessions SessionStore
	Log      logrus.FieldLogger

	Policy         form.LatePolicy
	NotifyDuration time.Duration

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool

	Bootstrap func(fs *pflag.FlagSet) error

	// ProgramOptions are passed to tea.NewProgram; tests inject input and
	// output here.
	ProgramOptions []tea.ProgramOption
}

func (a *App) logger() logrus.FieldLogger {
	if a.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		a.Log = l
	}
	return a.Log
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "sectors" command. Without a subcommand
// it opens the interactive form.
func NewRootCmd(app *App, registerFlags func(fs *pflag.FlagSet)) *cobra.Command {
	root := &cobra.Command{
		Use:           "sectors",
		Short:         "Pick the sectors you are involved in",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Bootstrap == nil {
				return nil
			}
			return app.Bootstrap(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return fmt.Errorf("the form needs an interactive terminal; use `sectors tree`, `sectors show` or `sectors save`")
			}
			return runForm(cmd.Context(), app)
		},
	}
	if registerFlags != nil {
		registerFlags(root.PersistentFlags())
	}

	root.AddCommand(
		newTreeCmd(app),
		newShowCmd(app),
		newSaveCmd(app),
		newLogoutCmd(app),
	)
	return root
}

func runForm(ctx context.Context, app *App) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, app.ProgramOptions...)
	p := tea.NewProgram(newFormModel(ctx, app), opts...)
	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("running form: %w", err)
	}
	return nil
}
