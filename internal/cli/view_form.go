package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/sectors/internal/cli/formatter"
	"github.com/alexanderramin/sectors/internal/domain"
	"github.com/alexanderramin/sectors/internal/form"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const introText = "Please enter your name and pick the sectors you are currently involved in."

// Lines used by everything except the sector rows.
const formChrome = 18

type sectorsLoadedMsg struct {
	tree []domain.SectorNode
	err  error
}

type selectionLoadedMsg struct {
	sel    *domain.SavedSelection
	err    error
	reload bool
}

type submitDoneMsg struct {
	outcome form.Outcome
}

// noticeExpiredMsg is the notifier timer firing for one generation.
type noticeExpiredMsg struct{ gen int }

// formModel is the interactive sector form. Focus rows are: 0 the name
// input, 1..n the sectors, then the terms checkbox, then the save button.
type formModel struct {
	ctx context.Context
	app *App

	ctrl     *form.Controller
	join     form.Join
	notifier *form.Notifier
	options  []domain.FlatOption

	input textinput.Model
	keys  formKeyMap
	help  help.Model

	focus     int
	offset    int
	width     int
	height    int
	reloading bool
	quitting  bool

	now func() time.Time
}

func newFormModel(ctx context.Context, app *App) formModel {
	input := textinput.New()
	input.Placeholder = "Your name"
	input.Prompt = "› "
	input.CharLimit = 255
	input.PromptStyle = formatter.StyleHeader
	input.PlaceholderStyle = formatter.StyleDim
	input.Focus()

	return formModel{
		ctx:      ctx,
		app:      app,
		ctrl:     form.NewController(app.Policy),
		notifier: form.NewNotifier(app.NotifyDuration),
		input:    input,
		keys:     defaultFormKeys(),
		help:     help.New(),
		now:      time.Now,
	}
}

func (m formModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadSectors(), m.loadSelection(false))
}

func (m formModel) loadSectors() tea.Cmd {
	ctx, client := m.ctx, m.app.Client
	return func() tea.Msg {
		tree, err := client.ListSectors(ctx)
		return sectorsLoadedMsg{tree: tree, err: err}
	}
}

func (m formModel) loadSelection(reload bool) tea.Cmd {
	ctx, client := m.ctx, m.app.Client
	return func() tea.Msg {
		sel, err := client.GetMySelection(ctx)
		return selectionLoadedMsg{sel: sel, err: err, reload: reload}
	}
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.scrollToFocus()
		return m, nil

	case sectorsLoadedMsg:
		m.join.SettleSectors(msg.tree, msg.err)
		if msg.err != nil {
			m.app.logger().WithError(msg.err).Error("loading sectors failed")
			return m, nil
		}
		m.options = domain.Flatten(msg.tree)
		return m, nil

	case selectionLoadedMsg:
		return m.applySelection(msg)

	case submitDoneMsg:
		m.ctrl.FinishSubmit(msg.outcome)
		if saved, ok := msg.outcome.(form.Saved); ok {
			m.app.logger().WithField("created", saved.Created).Info("selection saved")
		}
		return m, m.showNotice(form.NoticeFor(msg.outcome))

	case noticeExpiredMsg:
		m.notifier.Expire(msg.gen)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m formModel) applySelection(msg selectionLoadedMsg) (tea.Model, tea.Cmd) {
	log := m.app.logger()
	if !msg.reload {
		m.join.SettleSelection(msg.sel, msg.err)
	}
	m.reloading = false

	if msg.err != nil {
		// Never fatal: the form starts empty and the next save creates.
		log.WithError(msg.err).Warn("loading saved selection failed")
		if msg.reload {
			return m, m.showNotice(form.Notice{Message: msg.err.Error(), Kind: form.NoticeError})
		}
		return m, nil
	}

	if m.ctrl.ApplySaved(msg.sel) {
		m.input.SetValue(m.ctrl.State().Name)
		m.input.CursorEnd()
		log.Debug("form pre-filled from saved selection")
	}
	return m, nil
}

func (m formModel) showNotice(n form.Notice) tea.Cmd {
	gen := m.notifier.Show(n)
	return tea.Tick(m.notifier.Duration, func(time.Time) tea.Msg {
		return noticeExpiredMsg{gen: gen}
	})
}

func (m formModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.notifier.Cancel()
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Reload):
		return m.reload()
	}

	if m.join.Phase() != form.PhaseReady {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Next):
		cmd := m.moveFocus(1)
		return m, cmd
	case key.Matches(msg, m.keys.Prev):
		cmd := m.moveFocus(-1)
		return m, cmd
	}

	if m.focus == 0 {
		if msg.Type == tea.KeyEnter {
			cmd := m.moveFocus(1)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if v := m.input.Value(); v != m.ctrl.State().Name {
			m.ctrl.SetName(v)
		}
		return m, cmd
	}

	if !key.Matches(msg, m.keys.Toggle) {
		return m, nil
	}
	switch {
	case m.focus <= len(m.options):
		m.ctrl.Toggle(m.options[m.focus-1].ID)
	case m.focus == m.termsRow():
		m.ctrl.SetAgreeToTerms(!m.ctrl.State().AgreeToTerms)
	case m.focus == m.submitRow():
		return m.submit()
	}
	return m, nil
}

func (m formModel) submit() (tea.Model, tea.Cmd) {
	sub, ok := m.ctrl.BeginSubmit()
	if !ok {
		return m, nil
	}
	m.app.logger().WithField("update", sub.Update).Debug("submitting selection")
	ctx, client := m.ctx, m.app.Client
	return m, func() tea.Msg {
		return submitDoneMsg{outcome: form.Send(ctx, client, sub)}
	}
}

// reload re-fetches the saved selection, or restarts the whole load after
// a fatal sector failure.
func (m formModel) reload() (tea.Model, tea.Cmd) {
	switch m.join.Phase() {
	case form.PhaseFatal:
		m.join = form.Join{}
		return m, tea.Batch(m.loadSectors(), m.loadSelection(false))
	case form.PhaseReady:
		if m.reloading {
			return m, nil
		}
		m.reloading = true
		return m, m.loadSelection(true)
	default:
		return m, nil
	}
}

func (m formModel) termsRow() int  { return len(m.options) + 1 }
func (m formModel) submitRow() int { return len(m.options) + 2 }

func (m *formModel) moveFocus(delta int) tea.Cmd {
	m.focus = max(0, min(m.focus+delta, m.submitRow()))
	m.scrollToFocus()
	if m.focus == 0 {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

// visibleSectors is how many sector rows fit on screen.
func (m formModel) visibleSectors() int {
	if m.height == 0 {
		return len(m.options)
	}
	return max(m.height-formChrome, 3)
}

func (m *formModel) scrollToFocus() {
	visible := m.visibleSectors()
	if idx := m.focus - 1; idx >= 0 && idx < len(m.options) {
		if idx < m.offset {
			m.offset = idx
		}
		if idx >= m.offset+visible {
			m.offset = idx - visible + 1
		}
	}
	m.offset = max(0, min(m.offset, len(m.options)-visible))
}

func (m formModel) View() string {
	if m.quitting {
		return ""
	}
	switch m.join.Phase() {
	case form.PhaseLoading:
		return "\n  " + formatter.Dim("Loading...") + "\n"
	case form.PhaseFatal:
		return "\n  " + formatter.StyleRed.Render(form.SectorsLoadFailedMessage) + "\n\n  " +
			formatter.Dim("ctrl+r: retry  esc: quit") + "\n"
	}

	var b strings.Builder
	b.WriteString(m.renderNotice())
	b.WriteString(formatter.Header("Sector Selection") + "\n")
	b.WriteString(formatter.Dim(introText) + "\n\n")

	st := m.ctrl.State()

	b.WriteString(m.label("Name", m.focus == 0) + "\n")
	b.WriteString(m.input.View() + "\n")
	b.WriteString(m.fieldError(form.FieldName))
	b.WriteString("\n")

	title := m.label("Sectors", m.focus >= 1 && m.focus <= len(m.options))
	if n := st.Selected.Len(); n > 0 {
		title += " " + formatter.Dim(fmt.Sprintf("(%d selected)", n))
	}
	b.WriteString(title + "\n")
	b.WriteString(m.renderSectors(st.Selected))
	b.WriteString(m.fieldError(form.FieldSectors))
	b.WriteString("\n")

	b.WriteString(m.cursor(m.focus == m.termsRow()) + formatter.Checkbox(st.AgreeToTerms) + " Agree to terms\n")
	b.WriteString(m.fieldError(form.FieldAgreeToTerms))
	b.WriteString("\n")

	b.WriteString(m.renderButton() + "\n")
	if msg := m.ctrl.GeneralError(); msg != "" {
		b.WriteString(formatter.StyleRed.Render(msg) + "\n")
	}
	if saved := m.ctrl.Saved(); saved != nil && !saved.UpdatedAt.IsZero() {
		b.WriteString(formatter.Dim("Last saved "+formatter.HumanTimestampFrom(saved.UpdatedAt.Time, m.now())) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m formModel) label(text string, focused bool) string {
	if focused {
		return formatter.StyleHeader.Render(text)
	}
	return formatter.Bold(text)
}

func (m formModel) cursor(focused bool) string {
	if focused {
		return formatter.StyleHeader.Render("› ")
	}
	return "  "
}

func (m formModel) fieldError(field string) string {
	msg := m.ctrl.FieldError(field)
	if msg == "" {
		return ""
	}
	return "  " + formatter.StyleRed.Render(msg) + "\n"
}

func (m formModel) renderSectors(selected domain.SelectionSet) string {
	if len(m.options) == 0 {
		return "  " + formatter.Dim("No sectors available") + "\n"
	}
	visible := m.visibleSectors()
	end := min(m.offset+visible, len(m.options))

	var b strings.Builder
	if m.offset > 0 {
		b.WriteString("  " + formatter.Dim(fmt.Sprintf("↑ %d more", m.offset)) + "\n")
	}
	for i := m.offset; i < end; i++ {
		opt := m.options[i]
		b.WriteString(m.cursor(m.focus == i+1) + formatter.Checkbox(selected.Has(opt.ID)) + " " + formatter.IndentLabel(opt) + "\n")
	}
	if rest := len(m.options) - end; rest > 0 {
		b.WriteString("  " + formatter.Dim(fmt.Sprintf("↓ %d more", rest)) + "\n")
	}
	return b.String()
}

var (
	buttonStyle        = lipgloss.NewStyle().Foreground(formatter.ColorFg).Padding(0, 2).Border(lipgloss.RoundedBorder()).BorderForeground(formatter.ColorDim)
	buttonFocusedStyle = buttonStyle.BorderForeground(formatter.ColorHeader).Bold(true)
	buttonBusyStyle    = buttonStyle.Foreground(formatter.ColorDim)
)

func (m formModel) renderButton() string {
	switch {
	case m.ctrl.Saving():
		return buttonBusyStyle.Render("Saving...")
	case m.focus == m.submitRow():
		return buttonFocusedStyle.Render("Save")
	default:
		return buttonStyle.Render("Save")
	}
}

// renderNotice draws the visible notice in the top-right corner.
func (m formModel) renderNotice() string {
	n, ok := m.notifier.Current()
	if !ok {
		return "\n"
	}
	style := lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
	text := formatter.Success(n.Message)
	style = style.BorderForeground(formatter.ColorGreen)
	if n.Kind == form.NoticeError {
		text = formatter.Failure(n.Message)
		style = style.BorderForeground(formatter.ColorRed)
	}
	box := style.Render(text)
	if m.width > 0 {
		box = lipgloss.PlaceHorizontal(m.width, lipgloss.Right, box)
	}
	return box + "\n"
}
