package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/sectors/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// RenderSectorTree draws flattened options as a tree with box-drawing
// connectors. Branch sectors are bold, selected sectors get a green check,
// and the sector ID is shown as a right-aligned badge.
func RenderSectorTree(options []domain.FlatOption, selected domain.SelectionSet) string {
	if len(options) == 0 {
		return ""
	}

	last := lastSiblings(options)
	type line struct{ content, badge string }
	lines := make([]line, len(options))
	maxWidth := 0

	// open[d] is true while an ancestor at depth d still has siblings below.
	open := make([]bool, 0, 8)
	for i, opt := range options {
		open = append(open[:min(opt.Depth, len(open))], !last[i])

		var prefix strings.Builder
		for d := 1; d < opt.Depth; d++ {
			if open[d] {
				prefix.WriteString(treePipe)
			} else {
				prefix.WriteString(treeBlank)
			}
		}
		if opt.Depth > 0 {
			if last[i] {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
		}

		title := opt.Name
		if opt.HasChildren {
			title = Bold(title)
		}
		mark := ""
		if selected.Has(opt.ID) {
			mark = StyleGreen.Render("✔ ")
		}

		content := StyleDim.Render(prefix.String()) + mark + title
		lines[i] = line{content: content, badge: StyleBlue.Render(fmt.Sprintf("[ %d ]", opt.ID))}
		if w := lipgloss.Width(content); w > maxWidth {
			maxWidth = w
		}
	}

	var b strings.Builder
	for _, l := range lines {
		pad := max(maxWidth-lipgloss.Width(l.content), 0)
		b.WriteString(l.content + strings.Repeat(" ", pad) + "  " + l.badge + "\n")
	}
	return b.String()
}

// lastSiblings reports, for each option, whether no later sibling follows it.
func lastSiblings(options []domain.FlatOption) []bool {
	last := make([]bool, len(options))
	for i, opt := range options {
		last[i] = true
		for _, next := range options[i+1:] {
			if next.Depth < opt.Depth {
				break
			}
			if next.Depth == opt.Depth {
				last[i] = false
				break
			}
		}
	}
	return last
}

// IndentLabel indents a sector name by depth for checklists, bolding
// branch sectors.
func IndentLabel(opt domain.FlatOption) string {
	name := opt.Name
	if opt.HasChildren {
		name = Bold(name)
	}
	return strings.Repeat("  ", opt.Depth) + name
}
