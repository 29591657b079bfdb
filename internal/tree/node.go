// Package tree implements the nested AND/OR filter tree: path addressing,
// immutable add/remove/move/update, normalization and the depth policy
// guard. Every operation takes a tree snapshot and returns a new one, sharing
// untouched subtrees and leaf pointers with its input.
package tree

import (
	"fmt"
	"strings"

	"github.com/solatis/filtertree/internal/types"
)

// Node is either a *Leaf or a *Group. The interface is sealed; code that
// inspects nodes uses an exhaustive type switch.
type Node interface {
	fmt.Stringer
	node()
}

// Leaf carries one opaque filter. The tree never looks inside Filter.
type Leaf struct {
	Filter types.Filter
}

// Group combines its children under one condition.
type Group struct {
	Condition types.Condition
	Children  []Node
}

func (*Leaf) node()  {}
func (*Group) node() {}

// Tree is the root sequence, an implicit AND group that is never itself
// addressable.
type Tree []Node

// NewLeaf wraps a filter in a leaf node.
func NewLeaf(f types.Filter) *Leaf {
	return &Leaf{Filter: f}
}

// NewGroup builds a group. The children slice is owned by the group.
func NewGroup(cond types.Condition, children ...Node) *Group {
	return &Group{Condition: cond, Children: children}
}

// String renders the leaf's filter label.
func (l *Leaf) String() string {
	return l.Filter.Label()
}

// String renders the group in parentheses with its condition between children.
func (g *Group) String() string {
	return "(" + joinNodes(g.Children, g.Condition) + ")"
}

// String renders the root sequence joined by AND, e.g. "A AND (B OR C)".
func (t Tree) String() string {
	return joinNodes(t, types.RootCondition)
}

func joinNodes(children []Node, cond types.Condition) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.String()
	}
	return strings.Join(parts, " "+cond.String()+" ")
}

// unknownNode is raised by exhaustive switches when a foreign Node type shows up.
func unknownNode(n Node) string {
	return fmt.Sprintf("tree: unknown node type %T", n)
}
