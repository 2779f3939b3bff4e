package cli

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/sectors/internal/api"
	"github.com/alexanderramin/sectors/internal/domain"
	"github.com/alexanderramin/sectors/internal/form"
	"github.com/alexanderramin/sectors/internal/teatest"
	"github.com/alexanderramin/sectors/internal/testutil"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient answers immediately from memory.
type fakeClient struct {
	mu      sync.Mutex
	tree    []domain.SectorNode
	treeErr error
	sel     *domain.SavedSelection
	selErr  error
	saveErr error
	creates []domain.SelectionRequest
	updates []domain.SelectionRequest
}

func newFakeClient() *fakeClient {
	return &fakeClient{tree: testutil.DefaultSectors()}
}

func (f *fakeClient) ListSectors(context.Context) ([]domain.SectorNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tree, f.treeErr
}

func (f *fakeClient) GetMySelection(context.Context) (*domain.SavedSelection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sel, f.selErr
}

func (f *fakeClient) CreateSelection(_ context.Context, req domain.SelectionRequest) (*domain.SavedSelection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, req)
	return f.save(req)
}

func (f *fakeClient) UpdateSelection(_ context.Context, req domain.SelectionRequest) (*domain.SavedSelection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, req)
	return f.save(req)
}

func (f *fakeClient) save(req domain.SelectionRequest) (*domain.SavedSelection, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	now := domain.Timestamp{Time: time.Now()}
	f.sel = &domain.SavedSelection{
		ID: 1, Name: req.Name, SectorIDs: req.SectorIDs, AgreeToTerms: req.AgreeToTerms,
		CreatedAt: now, UpdatedAt: now,
	}
	return f.sel, nil
}

func newFormDriver(t *testing.T, client api.Client, opts ...teatest.Option) *teatest.Driver {
	t.Helper()
	app := &App{Client: client, Policy: form.PolicyDiscard, NotifyDuration: time.Second}
	opts = append([]teatest.Option{teatest.WithSize(100, 60)}, opts...)
	return teatest.New(t, newFormModel(context.Background(), app), opts...)
}

func formOf(d *teatest.Driver) formModel {
	return d.Model.(formModel)
}

func TestForm_LoadingUntilBothSettle(t *testing.T) {
	d := newFormDriver(t, newFakeClient())
	assert.Contains(t, d.View(), "Loading...")

	d.Send(sectorsLoadedMsg{tree: testutil.DefaultSectors()})
	assert.Contains(t, d.View(), "Loading...", "sectors alone are not enough")

	d.Send(selectionLoadedMsg{})
	view := d.View()
	assert.Contains(t, view, "SECTOR SELECTION")
	assert.Contains(t, view, "Your name")
	assert.Contains(t, view, "Manufacturing")
	assert.Contains(t, view, "Bakery & confectionery products")
	assert.NotContains(t, view, "selected)")
}

func TestForm_PrefillsFromSavedSelection(t *testing.T) {
	client := newFakeClient()
	client.sel = &domain.SavedSelection{ID: 3, Name: "John", SectorIDs: []int64{1, 19}, AgreeToTerms: true}
	d := newFormDriver(t, client)
	d.DrainInit()

	m := formOf(d)
	st := m.ctrl.State()
	assert.Equal(t, "John", m.input.Value())
	assert.True(t, st.Selected.Has(1))
	assert.True(t, st.Selected.Has(19))
	assert.False(t, st.Selected.Has(2))
	assert.True(t, st.AgreeToTerms)
	assert.Contains(t, d.View(), "(2 selected)")
}

func TestForm_CreateThenUpdate(t *testing.T) {
	client := newFakeClient()
	d := newFormDriver(t, client)
	d.DrainInit()

	d.Type("John")
	d.PressTab()   // Manufacturing
	d.PressSpace() // select 1
	d.PressDown()
	d.PressDown()
	d.PressDown()
	d.PressDown() // Service
	d.PressDown() // terms
	d.PressSpace()
	d.PressDown() // save button
	d.PressEnter()

	require.Len(t, client.creates, 1)
	assert.Equal(t, domain.SelectionRequest{Name: "John", SectorIDs: []int64{1}, AgreeToTerms: true}, client.creates[0])
	view := d.View()
	assert.Contains(t, view, form.MsgSaved)
	assert.Contains(t, view, "Last saved")

	d.SendKey(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Len(t, client.updates, 1, "second save with identical values is an update")
	assert.Len(t, client.creates, 1)
	assert.Contains(t, d.View(), form.MsgUpdated)
}

func TestForm_NoticeExpiresOnlyForCurrentGeneration(t *testing.T) {
	client := newFakeClient()
	d := newFormDriver(t, client)
	d.DrainInit()

	d.SendKey(tea.KeyMsg{Type: tea.KeyCtrlS})
	d.SendKey(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Contains(t, d.View(), form.MsgUpdated)

	d.Send(noticeExpiredMsg{gen: 1})
	assert.Contains(t, d.View(), form.MsgUpdated, "stale timer is ignored")

	d.Send(noticeExpiredMsg{gen: 2})
	assert.NotContains(t, d.View(), form.MsgUpdated)
}

func TestForm_ValidationErrorsShowInline(t *testing.T) {
	client := newFakeClient()
	client.saveErr = &api.RequestError{Status: http.StatusBadRequest, Problem: api.ProblemDetail{
		Status: http.StatusBadRequest, Detail: "Validation failed", Errors: map[string]string{"name": "required"},
	}}
	d := newFormDriver(t, client)
	d.DrainInit()

	d.SendKey(tea.KeyMsg{Type: tea.KeyCtrlS})

	view := d.View()
	assert.Contains(t, view, "required")
	assert.Contains(t, view, "Validation failed")
	assert.NotContains(t, view, form.MsgSaved)
	assert.Nil(t, formOf(d).ctrl.Saved())

	d.Send(noticeExpiredMsg{gen: 1})
	_, visible := formOf(d).notifier.Current()
	require.False(t, visible)
	assert.Contains(t, d.View(), "Validation failed", "detail outlives the notice")
}

func TestForm_GeneralErrorFallback(t *testing.T) {
	client := newFakeClient()
	client.saveErr = &api.RequestError{Status: http.StatusInternalServerError}
	d := newFormDriver(t, client)
	d.DrainInit()

	d.SendKey(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Contains(t, d.View(), form.FallbackErrorMessage)
}

func TestForm_SaveButtonDisabledWhileSaving(t *testing.T) {
	client := newFakeClient()
	d := newFormDriver(t, client)
	d.DrainInit()

	m, first := d.Model.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, first)
	assert.Contains(t, m.View(), "Saving...")

	m, second := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, second, "no second request while saving")

	m, _ = m.Update(first())
	assert.NotContains(t, m.View(), "Saving...")
	assert.Len(t, client.creates, 1)
}

func TestForm_SectorFailureIsFatal(t *testing.T) {
	client := newFakeClient()
	client.treeErr = errors.New("boom")
	d := newFormDriver(t, client)
	d.DrainInit()

	view := d.View()
	assert.Contains(t, view, form.SectorsLoadFailedMessage)
	assert.NotContains(t, view, "Your name")
	d.PressTab()
	assert.Contains(t, d.View(), form.SectorsLoadFailedMessage, "form stays hidden")
	assert.NotContains(t, d.View(), "Your name")

	client.mu.Lock()
	client.treeErr = nil
	client.mu.Unlock()
	d.PressCtrlR()
	assert.Contains(t, d.View(), "SECTOR SELECTION")
	assert.Contains(t, d.View(), "Your name")
}

func TestForm_SelectionFailureStartsEmpty(t *testing.T) {
	client := newFakeClient()
	client.selErr = errors.New("boom")
	d := newFormDriver(t, client)
	d.DrainInit()

	assert.Contains(t, d.View(), "SECTOR SELECTION")
	d.SendKey(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Len(t, client.creates, 1)
}

func TestForm_ReloadKeepsEdits(t *testing.T) {
	client := newFakeClient()
	d := newFormDriver(t, client)
	d.DrainInit()

	d.Type("Jane")

	client.mu.Lock()
	client.sel = &domain.SavedSelection{ID: 9, Name: "Server copy", SectorIDs: []int64{2}, AgreeToTerms: true}
	client.mu.Unlock()
	d.PressCtrlR()

	m := formOf(d)
	assert.Equal(t, "Jane", m.input.Value())
	assert.Equal(t, "Jane", m.ctrl.State().Name)
	assert.True(t, m.ctrl.IsUpdate())

	d.SendKey(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Empty(t, client.creates)
	require.Len(t, client.updates, 1)
	assert.Equal(t, "Jane", client.updates[0].Name)
}

func TestForm_NameSpacesAreTyped(t *testing.T) {
	d := newFormDriver(t, newFakeClient())
	d.DrainInit()

	d.Type("Mary")
	d.PressSpace()
	d.Type("Ann")
	assert.Equal(t, "Mary Ann", formOf(d).ctrl.State().Name)
	assert.Zero(t, formOf(d).ctrl.State().Selected.Len())
}

func TestForm_QuitCancelsNotice(t *testing.T) {
	d := newFormDriver(t, newFakeClient())
	d.DrainInit()
	d.SendKey(tea.KeyMsg{Type: tea.KeyCtrlS})

	d.PressEsc()
	assert.True(t, d.Quitting)
	_, visible := formOf(d).notifier.Current()
	assert.False(t, visible)
}

func TestForm_ScrollsLongTrees(t *testing.T) {
	tree := make([]domain.SectorNode, 0, 40)
	for i := 1; i <= 40; i++ {
		tree = append(tree, domain.SectorNode{ID: int64(i), Name: "Sector"})
	}
	client := newFakeClient()
	client.tree = tree
	d := teatest.New(t, newFormModel(context.Background(), &App{Client: client}), teatest.WithSize(80, 24))
	d.DrainInit()

	assert.Contains(t, d.View(), "↓")
	for i := 0; i < 30; i++ {
		d.PressDown()
	}
	m := formOf(d)
	assert.Equal(t, 30, m.focus)
	assert.LessOrEqual(t, m.offset, 29)
	assert.Greater(t, m.offset+m.visibleSectors(), 29)
	assert.Contains(t, d.View(), "↑")
}

func TestForm_AgainstBackend(t *testing.T) {
	backend := testutil.NewBackend(t, testutil.DefaultSectors())
	backend.Seed("s1", domain.SavedSelection{Name: "John", SectorIDs: []int64{1, 19}, AgreeToTerms: true})
	client := api.NewHTTPClient(api.Config{BaseURL: backend.URL()}, backend.SessionJar(t, "s1"), api.NoopObserver{})

	app := &App{Client: client, NotifyDuration: time.Millisecond}
	d := teatest.New(t, newFormModel(context.Background(), app),
		teatest.WithSize(100, 60), teatest.WithCmdTimeout(2*time.Second))
	d.DrainInit()

	assert.Equal(t, "John", formOf(d).input.Value())
	d.SendKey(tea.KeyMsg{Type: tea.KeyCtrlS})

	sel, ok := backend.Selection("s1")
	require.True(t, ok)
	assert.Equal(t, []int64{1, 19}, sel.SectorIDs)
	assert.Contains(t, d.View(), "Last saved Just now")

	calls := backend.Calls()
	assert.Equal(t, http.MethodPut, calls[len(calls)-1].Method)
}
