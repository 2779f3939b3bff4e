package cli

import (
	"github.com/alexanderramin/sectors/internal/cli/formatter"
	"github.com/alexanderramin/sectors/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// sectorsHuhTheme returns a huh theme using the palette.
func sectorsHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	// Focused state: orange accent
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.MultiSelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.SelectedPrefix = lipgloss.NewStyle().Foreground(formatter.ColorGreen).SetString("[x] ")
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.UnselectedPrefix = lipgloss.NewStyle().Foreground(formatter.ColorDim).SetString("[ ] ")
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	// Blurred state: dimmed
	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// saveValues are the fields the save wizard edits.
type saveValues struct {
	Name      string
	SectorIDs []int64
	Agree     bool
}

// sectorOptions builds checklist options in tree order, indented by depth.
func sectorOptions(options []domain.FlatOption, selected domain.SelectionSet) []huh.Option[int64] {
	out := make([]huh.Option[int64], 0, len(options))
	for _, opt := range options {
		out = append(out, huh.NewOption(formatter.IndentLabel(opt), opt.ID).Selected(selected.Has(opt.ID)))
	}
	return out
}

// newSaveWizard asks for the name, the sectors and the terms agreement,
// starting from v. Nothing is validated here; the server decides.
func newSaveWizard(options []domain.FlatOption, v *saveValues) *huh.Form {
	selected := domain.NewSelectionSet(v.SectorIDs...)
	height := min(len(options), 15)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Your name").
				Value(&v.Name),
			huh.NewMultiSelect[int64]().
				Title("Sectors").
				Description("Pick the sectors you are currently involved in.").
				Options(sectorOptions(options, selected)...).
				Height(height+2).
				Value(&v.SectorIDs),
			huh.NewConfirm().
				Title("Agree to terms").
				Affirmative("Agree").
				Negative("Decline").
				Value(&v.Agree),
		),
	).WithTheme(sectorsHuhTheme()).WithShowHelp(false)
}
