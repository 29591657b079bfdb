// internal/tree/normalize.go
package tree

// Normalize collapses groups bottom-up: a group left with no children is
// dropped from its sequence, a group left with one child is replaced by that
// child. Leaves pass through. Normalize is idempotent and returns its input
// (same backing array, same pointers) when nothing needed collapsing.
func Normalize(t Tree) Tree {
	out, changed := normalizeChildren(t)
	if !changed {
		return t
	}
	return Tree(out)
}

// normalizeChildren allocates a new sequence only once the first child
// changes; until then the input is returned as is.
func normalizeChildren(children []Node) ([]Node, bool) {
	var out []Node
	for i, child := range children {
		n, keep, changed := normalizeNode(child)
		if changed && out == nil {
			out = make([]Node, 0, len(children))
			out = append(out, children[:i]...)
		}
		if out != nil && keep {
			out = append(out, n)
		}
	}
	if out == nil {
		return children, false
	}
	return out, true
}

func normalizeNode(n Node) (result Node, keep, changed bool) {
	switch n := n.(type) {
	case *Leaf:
		return n, true, false
	case *Group:
		children, childChanged := normalizeChildren(n.Children)
		switch len(children) {
		case 0:
			return nil, false, true
		case 1:
			return children[0], true, true
		}
		if !childChanged {
			return n, true, false
		}
		return &Group{Condition: n.Condition, Children: children}, true, true
	default:
		panic(unknownNode(n))
	}
}
