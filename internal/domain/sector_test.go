package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() []SectorNode {
	return []SectorNode{
		{ID: 1, Name: "Manufacturing", Children: []SectorNode{
			{ID: 19, Name: "Construction materials"},
		}},
		{ID: 2, Name: "Service"},
	}
}

func TestFlatten_SampleTree(t *testing.T) {
	got := Flatten(sampleTree())

	assert.Equal(t, []FlatOption{
		{ID: 1, Name: "Manufacturing", Depth: 0, HasChildren: true},
		{ID: 19, Name: "Construction materials", Depth: 1, HasChildren: false},
		{ID: 2, Name: "Service", Depth: 0, HasChildren: false},
	}, got)
}

func TestFlatten_Empty(t *testing.T) {
	assert.Empty(t, Flatten(nil))
	assert.Empty(t, Flatten([]SectorNode{}))
}

func TestFlatten_DeepChain(t *testing.T) {
	leaf := SectorNode{ID: 4, Name: "d"}
	tree := []SectorNode{{ID: 1, Name: "a", Children: []SectorNode{
		{ID: 2, Name: "b", Children: []SectorNode{
			{ID: 3, Name: "c", Children: []SectorNode{leaf}},
		}},
	}}}

	got := Flatten(tree)
	require.Len(t, got, 4)
	for i, opt := range got {
		assert.Equal(t, i, opt.Depth)
		assert.Equal(t, i < 3, opt.HasChildren)
	}
}

func TestFlatten_DoesNotMutateInput(t *testing.T) {
	tree := sampleTree()
	before := CountNodes(tree)
	_ = Flatten(tree)
	_ = Flatten(tree)
	assert.Equal(t, before, CountNodes(tree))
	assert.Equal(t, "Construction materials", tree[0].Children[0].Name)
}

func randomForest(rng *rand.Rand, nextID *int64, depth int) []SectorNode {
	if depth > 4 {
		return nil
	}
	n := rng.Intn(4)
	if depth == 0 {
		n++
	}
	nodes := make([]SectorNode, n)
	for i := range nodes {
		*nextID++
		nodes[i] = SectorNode{ID: *nextID, Name: "s"}
		nodes[i].Children = randomForest(rng, nextID, depth+1)
	}
	return nodes
}

func subtreeSizes(nodes []SectorNode, sizes map[int64]int) int {
	total := 0
	for _, n := range nodes {
		size := 1 + subtreeSizes(n.Children, sizes)
		sizes[n.ID] = size
		total += size
	}
	return total
}

// TestFlatten_Invariants_PreOrder property-tests that every node is followed
// immediately by the contiguous block of its descendants.
func TestFlatten_Invariants_PreOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		var nextID int64
		tree := randomForest(rng, &nextID, 0)
		sizes := map[int64]int{}
		total := subtreeSizes(tree, sizes)

		flat := Flatten(tree)
		require.Len(t, flat, total, "trial %d", trial)
		assert.Equal(t, CountNodes(tree), len(flat), "trial %d", trial)

		for i, opt := range flat {
			block := 0
			for j := i + 1; j < len(flat) && flat[j].Depth > opt.Depth; j++ {
				block++
			}
			assert.Equal(t, sizes[opt.ID]-1, block,
				"trial %d: node %d must be followed by exactly its descendants", trial, opt.ID)
			assert.Equal(t, sizes[opt.ID] > 1, opt.HasChildren, "trial %d", trial)
			if i > 0 {
				assert.LessOrEqual(t, opt.Depth, flat[i-1].Depth+1, "trial %d: depth jumps by at most one", trial)
			}
		}
	}
}

func TestSectorNames(t *testing.T) {
	names := SectorNames(sampleTree())
	assert.Equal(t, map[int64]string{1: "Manufacturing", 19: "Construction materials", 2: "Service"}, names)
}
