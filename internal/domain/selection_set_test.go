package domain

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

// sameStorage reports whether both sets share one backing map.
func sameStorage(a, b SelectionSet) bool {
	if a.ids == nil || b.ids == nil {
		return a.ids == nil && b.ids == nil
	}
	return reflect.ValueOf(a.ids).Pointer() == reflect.ValueOf(b.ids).Pointer()
}

func TestSelectionSet_ToggleAddsAndRemoves(t *testing.T) {
	s := NewSelectionSet(1, 19)

	added := s.Toggle(2)
	assert.True(t, added.Has(2))
	assert.Equal(t, 3, added.Len())

	removed := added.Toggle(19)
	assert.False(t, removed.Has(19))
	assert.Equal(t, []int64{1, 2}, removed.IDs())
}

func TestSelectionSet_ToggleDoesNotMutateReceiver(t *testing.T) {
	s := NewSelectionSet(1)
	next := s.Toggle(1)

	assert.True(t, s.Has(1), "original must keep its members")
	assert.False(t, next.Has(1))
	assert.False(t, sameStorage(s, next))
}

func TestSelectionSet_ZeroValue(t *testing.T) {
	var s SelectionSet
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has(7))
	assert.Empty(t, s.IDs())

	next := s.Toggle(7)
	assert.True(t, next.Has(7))
	assert.Equal(t, 0, s.Len())
}

func TestSelectionSet_DuplicatesCollapse(t *testing.T) {
	s := NewSelectionSet(3, 3, 1, 3)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []int64{1, 3}, s.IDs())
}

func TestSelectionSet_OrphanIDsAllowed(t *testing.T) {
	s := NewSelectionSet().Toggle(999)
	assert.True(t, s.Has(999))
}

// TestSelectionSet_Invariants_ToggleIsInvolution property-tests that toggling
// the same id twice restores membership but yields a distinct value.
func TestSelectionSet_Invariants_ToggleIsInvolution(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		ids := make([]int64, rng.Intn(10))
		for i := range ids {
			ids[i] = int64(rng.Intn(20))
		}
		s := NewSelectionSet(ids...)
		id := int64(rng.Intn(25))

		twice := s.Toggle(id).Toggle(id)
		assert.True(t, s.Equal(twice), "trial %d", trial)
		assert.False(t, sameStorage(s, twice), "trial %d", trial)
		assert.Equal(t, s.IDs(), twice.IDs(), "trial %d", trial)
	}
}

func TestSelectionSet_Equal(t *testing.T) {
	assert.True(t, NewSelectionSet(1, 2).Equal(NewSelectionSet(2, 1)))
	assert.False(t, NewSelectionSet(1, 2).Equal(NewSelectionSet(1)))
	assert.False(t, NewSelectionSet(1, 2).Equal(NewSelectionSet(1, 3)))
	assert.True(t, SelectionSet{}.Equal(NewSelectionSet()))
}
