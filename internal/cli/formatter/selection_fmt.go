package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/sectors/internal/domain"
)

// FormatSelection renders a saved selection for `sectors show`. Sector IDs
// the tree does not know are listed by ID.
func FormatSelection(sel *domain.SavedSelection, names map[int64]string, now time.Time) string {
	if sel == nil {
		return Dim("No saved selection") + "\n"
	}

	details := []string{
		Dim("Name:   ") + " " + Bold(sel.Name),
		Dim("Terms:  ") + " " + Checkbox(sel.AgreeToTerms),
	}
	if !sel.UpdatedAt.IsZero() {
		details = append(details, Dim("Saved:  ")+" "+HumanTimestampFrom(sel.UpdatedAt.Time, now))
	}

	var b strings.Builder
	b.WriteString(RenderBox("Saved selection", strings.Join(details, "\n")) + "\n\n")

	ids := sel.Sectors().IDs()
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		name, ok := names[id]
		if !ok {
			name = Dim("(unknown sector)")
		}
		rows = append(rows, []string{fmt.Sprintf("%d", id), name})
	}
	b.WriteString(RenderTable([]string{"ID", "SECTOR"}, rows))
	b.WriteString(Dim(Pluralize(len(ids), "sector", "sectors")+" selected") + "\n")
	return b.String()
}
