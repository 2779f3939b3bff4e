package form

import (
	"context"

	"github.com/alexanderramin/sectors/internal/domain"
	"github.com/sourcegraph/conc"
)

// SectorsLoadFailedMessage is shown instead of the form when the sector
// tree cannot be loaded.
const SectorsLoadFailedMessage = "Failed to load sectors. Please try again later."

// Phase is the readiness of the initial load.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseFatal
)

// Loader is the part of the backend the initial load needs.
type Loader interface {
	ListSectors(ctx context.Context) ([]domain.SectorNode, error)
	GetMySelection(ctx context.Context) (*domain.SavedSelection, error)
}

// Join collects the two independent initial fetches in whatever order they
// settle. The form may render only once Phase is PhaseReady.
type Join struct {
	sectorsDone   bool
	selectionDone bool

	Sectors      []domain.SectorNode
	SectorsErr   error
	Selection    *domain.SavedSelection
	SelectionErr error
}

// SettleSectors records the sector fetch result.
func (j *Join) SettleSectors(tree []domain.SectorNode, err error) {
	j.sectorsDone = true
	j.Sectors, j.SectorsErr = tree, err
}

// SettleSelection records the saved-selection fetch result. An error is
// kept for logging but otherwise treated as "no saved selection".
func (j *Join) SettleSelection(sel *domain.SavedSelection, err error) {
	j.selectionDone = true
	if err != nil {
		sel = nil
	}
	j.Selection, j.SelectionErr = sel, err
}

// Phase reports readiness. A failed sector fetch is fatal immediately,
// without waiting for the other fetch.
func (j *Join) Phase() Phase {
	if j.sectorsDone && j.SectorsErr != nil {
		return PhaseFatal
	}
	if j.sectorsDone && j.selectionDone {
		return PhaseReady
	}
	return PhaseLoading
}

// LoadInitial issues both fetches concurrently and waits for both to settle.
func LoadInitial(ctx context.Context, loader Loader) *Join {
	var (
		wg           conc.WaitGroup
		tree         []domain.SectorNode
		treeErr      error
		selection    *domain.SavedSelection
		selectionErr error
	)
	wg.Go(func() { tree, treeErr = loader.ListSectors(ctx) })
	wg.Go(func() { selection, selectionErr = loader.GetMySelection(ctx) })
	wg.Wait()

	j := &Join{}
	j.SettleSectors(tree, treeErr)
	j.SettleSelection(selection, selectionErr)
	return j
}
