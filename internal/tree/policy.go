// internal/tree/policy.go
package tree

import (
	"fmt"

	"github.com/solatis/filtertree/internal/types"
)

/*
 * Depth/policy guard.
 *
 * The depth of a sequence is the number of groups above its children: the
 * root sequence is depth 0, the children of a root-level group are depth 1.
 * Adding a node with the opposite condition opens a new group one level
 * deeper, so the opposite condition is withheld once a sequence sits at the
 * depth ceiling. The same condition only adds a sibling and stays available.
 *
 * These predicates are advisory for hosts that render add/remove controls;
 * CheckAdd is the gate an editor applies before accepting an add.
 */

// Policy holds the limits a host configures for one editor.
type Policy struct {
	MaxDepth   int
	DisableOr  bool
	DisableAnd bool
}

// DefaultPolicy allows both conditions up to types.DefaultMaxDepth.
func DefaultPolicy() Policy {
	return Policy{MaxDepth: types.DefaultMaxDepth}
}

// DepthOf returns the depth of the sequence at p: its path length.
func DepthOf(p Path) int {
	return p.Depth()
}

// IsOrAllowed reports whether an OR may be added inside a sequence at depth
// whose own condition is cond.
func IsOrAllowed(depth int, cond types.Condition, maxDepth int, disableOr bool) bool {
	if disableOr {
		return false
	}
	return !(depth >= maxDepth && cond == types.ConditionAnd)
}

// IsAndAllowed mirrors IsOrAllowed with the conditions swapped.
func IsAndAllowed(depth int, cond types.Condition, maxDepth int, disableAnd bool) bool {
	if disableAnd {
		return false
	}
	return !(depth >= maxDepth && cond == types.ConditionOr)
}

// CanRemove reports whether the node at a path of pathLength, sharing its
// sequence with siblingCount nodes (itself included), may be removed. Only
// the last root-level filter is protected.
func CanRemove(pathLength, siblingCount int) bool {
	return !(pathLength <= 1 && siblingCount == 1)
}

// Allows reports whether cond may be added inside a sequence at depth whose
// own condition is ambient.
func (p Policy) Allows(cond types.Condition, depth int, ambient types.Condition) bool {
	switch cond {
	case types.ConditionOr:
		return IsOrAllowed(depth, ambient, p.MaxDepth, p.DisableOr)
	case types.ConditionAnd:
		return IsAndAllowed(depth, ambient, p.MaxDepth, p.DisableAnd)
	default:
		return false
	}
}

// CheckAdd rejects an add the host would not have offered. Appending to a
// sequence (the empty path, or an index one past its end) never opens a
// group and is always allowed.
func (p Policy) CheckAdd(t Tree, at Path, cond types.Condition) error {
	if !cond.Valid() {
		return fmt.Errorf("check add at %q: %w: %q", at, types.ErrInvalidCondition, cond)
	}
	if at.IsRoot() {
		return nil
	}
	container, err := ResolveContainer(t, at)
	if err != nil {
		return fmt.Errorf("check add: %w", err)
	}
	if at.Last() == len(container.Children) {
		return nil
	}
	if !p.Allows(cond, DepthOf(container.Path), container.Condition) {
		return fmt.Errorf("check add %s at %q: %w", cond, at, types.ErrConditionDisabled)
	}
	return nil
}

// Affordance lists what a host may offer for one node.
type Affordance struct {
	Path       Path
	Depth      int             // depth of the owning sequence
	Condition  types.Condition // condition of the owning sequence
	IsGroup    bool
	OrAllowed  bool
	AndAllowed bool
	Removable  bool
}

// Affordances walks t in pre-order and reports the controls each node may
// offer. Flags are computed per owning sequence, the way the editor renders
// one group at a time.
func (p Policy) Affordances(t Tree) []Affordance {
	var out []Affordance
	var visit func(children []Node, at Path, cond types.Condition)
	visit = func(children []Node, at Path, cond types.Condition) {
		depth := DepthOf(at)
		orAllowed := IsOrAllowed(depth, cond, p.MaxDepth, p.DisableOr)
		andAllowed := IsAndAllowed(depth, cond, p.MaxDepth, p.DisableAnd)
		for i, child := range children {
			childPath := at.Child(i)
			a := Affordance{
				Path:       childPath,
				Depth:      depth,
				Condition:  cond,
				OrAllowed:  orAllowed,
				AndAllowed: andAllowed,
				Removable:  CanRemove(childPath.Depth(), len(children)),
			}
			switch n := child.(type) {
			case *Leaf:
				out = append(out, a)
			case *Group:
				a.IsGroup = true
				out = append(out, a)
				visit(n.Children, childPath, n.Condition)
			default:
				panic(unknownNode(n))
			}
		}
	}
	visit(t, Path{}, types.RootCondition)
	return out
}
