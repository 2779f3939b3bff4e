// Package form holds the state behind the sector selection form: the
// editable fields, the one-shot pre-fill from a saved selection, submission
// and its error mapping, and the transient notification.
package form

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/sectors/internal/domain"
)

// Field names used by the backend in validation errors.
const (
	FieldName         = "name"
	FieldSectors      = "sectorIds"
	FieldAgreeToTerms = "agreeToTerms"
)

// LatchState tracks whether the saved selection may still be copied into
// the editable fields.
type LatchState int

const (
	// LatchPending: nothing copied yet, the user has not edited.
	LatchPending LatchState = iota
	// LatchApplied: a saved selection was copied; never copy again.
	LatchApplied
	// LatchSuperseded: the user edited before any saved selection arrived.
	LatchSuperseded
)

func (l LatchState) String() string {
	switch l {
	case LatchPending:
		return "pending"
	case LatchApplied:
		return "applied"
	case LatchSuperseded:
		return "superseded"
	default:
		return fmt.Sprintf("LatchState(%d)", int(l))
	}
}

// LatePolicy decides what happens when a saved selection arrives after the
// user has started editing.
type LatePolicy string

const (
	// PolicyDiscard keeps the user's edits and ignores the late fields.
	PolicyDiscard LatePolicy = "discard"
	// PolicyOverwrite copies the first arrival regardless of edits.
	PolicyOverwrite LatePolicy = "overwrite"
)

// ParseLatePolicy validates a policy name.
func ParseLatePolicy(s string) (LatePolicy, error) {
	switch p := LatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyDiscard, PolicyOverwrite:
		return p, nil
	case "":
		return PolicyDiscard, nil
	default:
		return "", fmt.Errorf("unknown late policy %q (want %q or %q)", s, PolicyDiscard, PolicyOverwrite)
	}
}

// State is a snapshot of the editable fields.
type State struct {
	Name         string
	Selected     domain.SelectionSet
	AgreeToTerms bool
	Latch        LatchState
}

// InitializedFromSaved reports whether the fields were pre-filled.
func (s State) InitializedFromSaved() bool {
	return s.Latch == LatchApplied
}

// Controller owns the form state. It is not safe for concurrent use; every
// mutation happens on the event loop that drives the form.
type Controller struct {
	state  State
	policy LatePolicy

	saved       *domain.SavedSelection
	fieldErrors map[string]string
	generalErr  string
	saving      bool
}

// NewController creates an empty form.
func NewController(policy LatePolicy) *Controller {
	if policy == "" {
		policy = PolicyDiscard
	}
	return &Controller{
		state:  State{Selected: domain.NewSelectionSet()},
		policy: policy,
	}
}

// State returns the current field values.
func (c *Controller) State() State { return c.state }

// Saved returns the selection future saves will update, or nil.
func (c *Controller) Saved() *domain.SavedSelection { return c.saved }

// Saving reports whether a submission is in flight.
func (c *Controller) Saving() bool { return c.saving }

// GeneralError returns the last non-field error message.
func (c *Controller) GeneralError() string { return c.generalErr }

// FieldError returns the backend message for a field, or "".
func (c *Controller) FieldError(field string) string { return c.fieldErrors[field] }

// FieldErrors returns a copy of all field errors.
func (c *Controller) FieldErrors() map[string]string {
	out := make(map[string]string, len(c.fieldErrors))
	for k, v := range c.fieldErrors {
		out[k] = v
	}
	return out
}

// SetName replaces the name text.
func (c *Controller) SetName(name string) {
	c.touch()
	c.state.Name = name
}

// Toggle flips membership of a sector id.
func (c *Controller) Toggle(id int64) {
	c.touch()
	c.state.Selected = c.state.Selected.Toggle(id)
}

// SetAgreeToTerms sets the agreement flag.
func (c *Controller) SetAgreeToTerms(agree bool) {
	c.touch()
	c.state.AgreeToTerms = agree
}

// touch records a user edit for the late-arrival policy.
func (c *Controller) touch() {
	if c.state.Latch == LatchPending && c.policy == PolicyDiscard {
		c.state.Latch = LatchSuperseded
	}
}

// ApplySaved records a fetched saved selection. The held selection is always
// replaced, so later saves become updates; the fields are copied only the
// first time and only while the latch allows it. Returns true if the fields
// were copied.
func (c *Controller) ApplySaved(sel *domain.SavedSelection) bool {
	if sel == nil {
		return false
	}
	c.saved = sel
	if c.state.Latch != LatchPending {
		return false
	}
	c.state.Name = sel.Name
	c.state.Selected = sel.Sectors()
	c.state.AgreeToTerms = sel.AgreeToTerms
	c.state.Latch = LatchApplied
	return true
}

// IsUpdate reports whether the next save updates an existing selection.
func (c *Controller) IsUpdate() bool {
	return c.saved != nil
}

// Request packages the fields as a save payload.
func (c *Controller) Request() domain.SelectionRequest {
	return domain.SelectionRequest{
		Name:         strings.TrimSpace(c.state.Name),
		SectorIDs:    c.state.Selected.IDs(),
		AgreeToTerms: c.state.AgreeToTerms,
	}
}

// ClearErrors drops all field and general errors.
func (c *Controller) ClearErrors() {
	c.fieldErrors = nil
	c.generalErr = ""
}
