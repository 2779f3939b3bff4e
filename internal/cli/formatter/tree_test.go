package formatter

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/sectors/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func sampleTree() []domain.SectorNode {
	return []domain.SectorNode{
		{ID: 1, Name: "Manufacturing", Children: []domain.SectorNode{
			{ID: 19, Name: "Construction materials"},
			{ID: 6, Name: "Food and Beverage", Children: []domain.SectorNode{
				{ID: 342, Name: "Bakery"},
			}},
		}},
		{ID: 2, Name: "Service"},
	}
}

func TestRenderSectorTree(t *testing.T) {
	out := stripANSI(RenderSectorTree(domain.Flatten(sampleTree()), domain.NewSelectionSet(19)))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)

	assert.True(t, strings.HasPrefix(lines[0], "Manufacturing"))
	assert.True(t, strings.HasPrefix(lines[1], "├─ ✔ Construction materials"))
	assert.True(t, strings.HasPrefix(lines[2], "└─ Food and Beverage"))
	assert.True(t, strings.HasPrefix(lines[3], "   └─ Bakery"))
	assert.True(t, strings.HasPrefix(lines[4], "Service"))
	assert.Contains(t, lines[3], "[ 342 ]")
}

func TestRenderSectorTree_Empty(t *testing.T) {
	assert.Empty(t, RenderSectorTree(nil, domain.NewSelectionSet()))
}

func TestIndentLabel(t *testing.T) {
	got := stripANSI(IndentLabel(domain.FlatOption{ID: 342, Name: "Bakery", Depth: 2}))
	assert.Equal(t, "    Bakery", got)
}

func TestFormatSelection(t *testing.T) {
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	sel := &domain.SavedSelection{
		Name: "John", SectorIDs: []int64{19, 1, 999}, AgreeToTerms: true,
		UpdatedAt: domain.Timestamp{Time: now.Add(-5 * time.Minute)},
	}
	out := stripANSI(FormatSelection(sel, domain.SectorNames(sampleTree()), now))

	assert.Contains(t, out, "John")
	assert.Contains(t, out, "[x]")
	assert.Contains(t, out, "5m ago")
	assert.Contains(t, out, "Construction materials")
	assert.Contains(t, out, "(unknown sector)")
	assert.Contains(t, out, "3 sectors selected")
	assert.Less(t, strings.Index(out, "Manufacturing"), strings.Index(out, "Construction materials"), "sorted by ID")
}

func TestFormatSelection_None(t *testing.T) {
	assert.Contains(t, FormatSelection(nil, nil, time.Now()), "No saved selection")
}
