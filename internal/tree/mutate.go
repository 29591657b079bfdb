// internal/tree/mutate.go
package tree

import (
	"fmt"

	"github.com/solatis/filtertree/internal/types"
)

/*
 * Mutation engine.
 *
 * Add, Remove, Move and Update never modify their input. Each edit rebuilds
 * only the spine of groups from the root to the edited sequence (path
 * copying); every other subtree and every leaf pointer is shared with the
 * input, so a host can detect what changed by pointer comparison.
 *
 * Add has two shapes:
 *   - sibling insert: the requested condition matches the owning sequence,
 *     the new node goes right after the node at the path
 *   - wrap-and-promote: the conditions differ, the node at the path is
 *     replaced by a new group of the requested condition holding the old
 *     node and the new one
 *
 * Remove splices the node out and normalizes the whole tree, because a
 * dissolved group can leave its own parent with a single child.
 *
 * Move is remove-then-add for root-level destinations and add-then-remove
 * for nested ones. In both orders the second step re-addresses its path to
 * account for what the first step shifted.
 */

type addKind int

const (
	addAppended addKind = iota // inserted past the end of the sequence
	addInserted                // sibling insert after the target
	addWrapped                 // target replaced by a new group
)

// addOutcome records where an add touched the tree so a following step can
// re-address paths into the same tree.
type addOutcome struct {
	kind      addKind
	container Path // sequence that received the node
	index     int  // index of the inserted node (appended/inserted) or the wrapped target
}

// relocate maps a path valid before the add to the same node after it.
func (o addOutcome) relocate(p Path) Path {
	c := len(o.container)
	if len(p) <= c || !p.HasPrefix(o.container) {
		return p
	}

	switch o.kind {
	case addAppended, addInserted:
		if p[c] >= o.index {
			q := p.Clone()
			q[c]++
			return q
		}
	case addWrapped:
		// The target moved one level down as child 0 of the new group.
		if p[c] == o.index && len(p) > c+1 {
			q := make(Path, 0, len(p)+1)
			q = append(q, p[:c+1]...)
			q = append(q, 0)
			return append(q, p[c+1:]...)
		}
	}
	return p
}

// Add inserts n at p under cond. The empty path appends to the root
// sequence; a trailing index equal to the sequence length appends to that
// sequence without wrapping.
func Add(t Tree, n Node, p Path, cond types.Condition) (Tree, error) {
	out, _, err := add(t, n, p, cond)
	return out, err
}

func add(t Tree, n Node, p Path, cond types.Condition) (Tree, addOutcome, error) {
	if !cond.Valid() {
		return nil, addOutcome{}, fmt.Errorf("add at %q: %w: %q", p, types.ErrInvalidCondition, cond)
	}
	if n == nil {
		return nil, addOutcome{}, fmt.Errorf("add at %q: nil node: %w", p, types.ErrInvalidNode)
	}

	if p.IsRoot() {
		return Tree(insertAt(t, len(t), n)), addOutcome{kind: addAppended, container: Path{}, index: len(t)}, nil
	}

	container, err := ResolveContainer(t, p)
	if err != nil {
		return nil, addOutcome{}, fmt.Errorf("add at %q: %w", p, err)
	}
	sel := p.Last()
	if sel < 0 || sel > len(container.Children) {
		return nil, addOutcome{}, fmt.Errorf("add at %q: index %d out of range: %w", p, sel, types.ErrPathNotFound)
	}

	var outcome addOutcome
	out, err := rewrite(t, container.Path, func(children []Node) []Node {
		switch {
		case sel == len(children):
			outcome = addOutcome{kind: addAppended, container: container.Path, index: sel}
			return insertAt(children, sel, n)
		case container.Condition == cond:
			outcome = addOutcome{kind: addInserted, container: container.Path, index: sel + 1}
			return insertAt(children, sel+1, n)
		default:
			outcome = addOutcome{kind: addWrapped, container: container.Path, index: sel}
			return replaceAt(children, sel, NewGroup(cond, children[sel], n))
		}
	})
	if err != nil {
		return nil, addOutcome{}, fmt.Errorf("add at %q: %w", p, err)
	}
	return out, outcome, nil
}

// Remove deletes the node at p and normalizes the result.
func Remove(t Tree, p Path) (Tree, error) {
	if _, err := Resolve(t, p); err != nil {
		return nil, fmt.Errorf("remove: %w", err)
	}

	sel := p.Last()
	out, err := rewrite(t, p.Parent(), func(children []Node) []Node {
		return removeAt(children, sel)
	})
	if err != nil {
		return nil, fmt.Errorf("remove %q: %w", p, err)
	}
	return Normalize(out), nil
}

// Move relocates the node at from to to under cond.
//
// A root-level destination (depth <= 1) reorders: the node is removed first
// and added at to. When from is a root-level sibling before to, to is
// shifted left so the node still lands next to the node the caller dropped
// it on; an index past the shrunken root appends.
//
// A nested destination combines: the node is added at to first and the
// original is removed afterwards, with from re-addressed if the add shifted
// or wrapped one of its ancestors.
//
// Moving a node onto itself returns t unchanged.
func Move(t Tree, from, to Path, cond types.Condition) (Tree, error) {
	if !cond.Valid() {
		return nil, fmt.Errorf("move %q to %q: %w: %q", from, to, types.ErrInvalidCondition, cond)
	}
	moving, err := Resolve(t, from)
	if err != nil {
		return nil, fmt.Errorf("move: %w", err)
	}
	if from.Equal(to) {
		return t, nil
	}
	if to.HasPrefix(from) {
		return nil, fmt.Errorf("move %q to %q: %w", from, to, types.ErrMoveIntoSelf)
	}

	if to.Depth() <= 1 {
		if to.Depth() == 1 && (to[0] < 0 || to[0] > len(t)) {
			return nil, fmt.Errorf("move %q to %q: index %d out of range: %w", from, to, to[0], types.ErrPathNotFound)
		}
		removed, err := Remove(t, from)
		if err != nil {
			return nil, fmt.Errorf("move %q to %q: %w", from, to, err)
		}
		dest := to.Clone()
		if dest.Depth() == 1 {
			if from.Depth() == 1 && from[0] < dest[0] {
				dest[0]--
			}
			if dest[0] > len(removed) {
				dest[0] = len(removed)
			}
		}
		out, _, err := add(removed, moving, dest, cond)
		if err != nil {
			return nil, fmt.Errorf("move %q to %q: %w", from, to, err)
		}
		return out, nil
	}

	added, outcome, err := add(t, moving, to, cond)
	if err != nil {
		return nil, fmt.Errorf("move %q to %q: %w", from, to, err)
	}
	out, err := Remove(added, outcome.relocate(from))
	if err != nil {
		return nil, fmt.Errorf("move %q to %q: %w", from, to, err)
	}
	return out, nil
}

// Update replaces the leaf at p.
func Update(t Tree, p Path, leaf *Leaf) (Tree, error) {
	if leaf == nil {
		return nil, fmt.Errorf("update %q: nil leaf: %w", p, types.ErrInvalidNode)
	}
	current, err := Resolve(t, p)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	if _, ok := current.(*Leaf); !ok {
		return nil, fmt.Errorf("update %q: %w", p, types.ErrNotALeaf)
	}

	sel := p.Last()
	out, err := rewrite(t, p.Parent(), func(children []Node) []Node {
		return replaceAt(children, sel, leaf)
	})
	if err != nil {
		return nil, fmt.Errorf("update %q: %w", p, err)
	}
	return out, nil
}

// rewrite returns a copy of t where the sequence at containerPath is
// replaced by fn(sequence). Only the groups along containerPath are copied.
// fn must not modify its argument.
func rewrite(t Tree, containerPath Path, fn func([]Node) []Node) (Tree, error) {
	out, err := rewriteChildren(t, containerPath, fn)
	if err != nil {
		return nil, err
	}
	return Tree(out), nil
}

func rewriteChildren(children []Node, containerPath Path, fn func([]Node) []Node) ([]Node, error) {
	if containerPath.IsRoot() {
		return fn(children), nil
	}

	idx := containerPath[0]
	if idx < 0 || idx >= len(children) {
		return nil, types.ErrPathNotFound
	}
	g, ok := children[idx].(*Group)
	if !ok {
		return nil, types.ErrPathNotFound
	}

	rebuilt, err := rewriteChildren(g.Children, containerPath[1:], fn)
	if err != nil {
		return nil, err
	}
	return replaceAt(children, idx, &Group{Condition: g.Condition, Children: rebuilt}), nil
}

func insertAt(children []Node, i int, n Node) []Node {
	out := make([]Node, 0, len(children)+1)
	out = append(out, children[:i]...)
	out = append(out, n)
	return append(out, children[i:]...)
}

func replaceAt(children []Node, i int, n Node) []Node {
	out := make([]Node, len(children))
	copy(out, children)
	out[i] = n
	return out
}

func removeAt(children []Node, i int) []Node {
	out := make([]Node, 0, len(children)-1)
	out = append(out, children[:i]...)
	return append(out, children[i+1:]...)
}
