// internal/tree/access.go
package tree

import (
	"fmt"

	"github.com/solatis/filtertree/internal/types"
)

/*
 * Tree accessor.
 *
 * Resolve is strict: every index must be in range and a path may not
 * continue past a leaf. Mutations only ever use strict resolution, so an
 * edit can never land on a node the caller did not name.
 *
 * ResolveNearest keeps the tolerant lookup hosts use for hover and
 * drop-target highlighting: resolution stops at the last node that exists
 * and reports the path it actually reached.
 */

// Container describes the sequence that directly owns a node.
type Container struct {
	Path      Path            // path of the owning group; empty for the root sequence
	Children  []Node          // the owning sequence
	Condition types.Condition // AND for the root, else the owning group's condition
	Parent    *Group          // nil for the root sequence
}

// Resolve returns the node at p.
func Resolve(t Tree, p Path) (Node, error) {
	if p.IsRoot() {
		return nil, fmt.Errorf("resolve %q: root sequence is not a node: %w", p, types.ErrPathNotFound)
	}

	children := []Node(t)
	var current Node
	for depth, idx := range p {
		if idx < 0 || idx >= len(children) {
			return nil, fmt.Errorf("resolve %q: index %d out of range at depth %d: %w", p, idx, depth, types.ErrPathNotFound)
		}
		current = children[idx]

		switch n := current.(type) {
		case *Group:
			children = n.Children
		case *Leaf:
			if depth < len(p)-1 {
				return nil, fmt.Errorf("resolve %q: path continues past leaf at depth %d: %w", p, depth, types.ErrPathNotFound)
			}
		default:
			panic(unknownNode(n))
		}
	}
	return current, nil
}

// ResolveNearest returns the deepest existing node along p and the path that
// addresses it. Only the root-level index has to be in range; an index past a
// leaf or past the end of a group stops resolution there.
func ResolveNearest(t Tree, p Path) (Node, Path, error) {
	if p.IsRoot() || p[0] < 0 || p[0] >= len(t) {
		return nil, nil, fmt.Errorf("resolve nearest %q: %w", p, types.ErrPathNotFound)
	}

	current := t[p[0]]
	resolved := Path{p[0]}
	for _, idx := range p[1:] {
		g, ok := current.(*Group)
		if !ok || idx < 0 || idx >= len(g.Children) {
			break
		}
		current = g.Children[idx]
		resolved = append(resolved, idx)
	}
	return current, resolved, nil
}

// ResolveContainer returns the sequence owning the node at p. The trailing
// index of p is not checked, so p may name an insertion point one past the
// end of the sequence.
func ResolveContainer(t Tree, p Path) (Container, error) {
	if p.IsRoot() {
		return Container{}, fmt.Errorf("resolve container %q: %w", p, types.ErrPathNotFound)
	}
	if p.Depth() == 1 {
		return Container{
			Path:      Path{},
			Children:  t,
			Condition: types.RootCondition,
		}, nil
	}

	parentPath := p.Parent()
	parent, err := Resolve(t, parentPath)
	if err != nil {
		return Container{}, fmt.Errorf("resolve container %q: %w", p, err)
	}
	g, ok := parent.(*Group)
	if !ok {
		return Container{}, fmt.Errorf("resolve container %q: parent %q is a leaf: %w", p, parentPath, types.ErrPathNotFound)
	}
	return Container{
		Path:      parentPath,
		Children:  g.Children,
		Condition: g.Condition,
		Parent:    g,
	}, nil
}
