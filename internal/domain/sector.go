package domain

// SectorNode is one entry of the sector classification tree as served by
// the backend. IDs are unique across the whole tree, not only among siblings.
type SectorNode struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Children []SectorNode `json:"children"`
}

// HasChildren reports whether the node is a branch.
func (n SectorNode) HasChildren() bool {
	return len(n.Children) > 0
}

// FlatOption is a sector projected into a linear checklist row.
type FlatOption struct {
	ID          int64
	Name        string
	Depth       int
	HasChildren bool
}

// Flatten projects a sector forest into pre-order rows: each node is emitted
// before its children, and Depth is the distance from the root.
func Flatten(tree []SectorNode) []FlatOption {
	out := make([]FlatOption, 0, CountNodes(tree))
	return appendFlat(out, tree, 0)
}

func appendFlat(out []FlatOption, nodes []SectorNode, depth int) []FlatOption {
	for _, n := range nodes {
		out = append(out, FlatOption{
			ID:          n.ID,
			Name:        n.Name,
			Depth:       depth,
			HasChildren: n.HasChildren(),
		})
		out = appendFlat(out, n.Children, depth+1)
	}
	return out
}

// CountNodes returns the total number of nodes in the forest.
func CountNodes(tree []SectorNode) int {
	n := 0
	for _, node := range tree {
		n += 1 + CountNodes(node.Children)
	}
	return n
}

// SectorNames maps every sector ID in the forest to its display name.
func SectorNames(tree []SectorNode) map[int64]string {
	names := make(map[int64]string, CountNodes(tree))
	for _, opt := range Flatten(tree) {
		names[opt.ID] = opt.Name
	}
	return names
}
