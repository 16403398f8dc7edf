package scene

// Selection holds at most one node. It does not own the node.
type Selection struct {
	node *Node
}

// NewSelection creates an empty selection tracked by s.
func NewSelection(s *Scene) *Selection {
	sel := &Selection{}
	if s != nil {
		s.Track(sel)
	}
	return sel
}

// Set replaces the selection. Fixed nodes cannot be selected.
func (sel *Selection) Set(n *Node) {
	if n != nil && n.Fixed {
		return
	}
	sel.node = n
}

// Clear drops the selection.
func (sel *Selection) Clear() {
	sel.node = nil
}

// Node returns the selected node or nil.
func (sel *Selection) Node() *Node {
	return sel.node
}

// Empty reports whether nothing is selected.
func (sel *Selection) Empty() bool {
	return sel.node == nil
}

// Valid reports whether the selected node is still part of s.
func (sel *Selection) Valid(s *Scene) bool {
	return sel.node != nil && s.Contains(sel.node)
}
