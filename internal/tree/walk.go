// internal/tree/walk.go
package tree

import (
	"errors"

	"github.com/solatis/filtertree/internal/types"
)

// SkipChildren is returned by a WalkFunc to skip the children of the group
// it was called for. It is never returned by Walk.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node in pre-order. p must not be retained;
// clone it if needed.
type WalkFunc func(p Path, n Node) error

// Walk visits every node of t in pre-order. It stops at the first error
// returned by fn other than SkipChildren.
func Walk(t Tree, fn WalkFunc) error {
	return walkChildren(t, make(Path, 0, 8), fn)
}

func walkChildren(children []Node, at Path, fn WalkFunc) error {
	for i, child := range children {
		p := append(at, i)
		err := fn(p, child)
		if errors.Is(err, SkipChildren) {
			continue
		}
		if err != nil {
			return err
		}
		switch n := child.(type) {
		case *Leaf:
		case *Group:
			if err := walkChildren(n.Children, p, fn); err != nil {
				return err
			}
		default:
			panic(unknownNode(n))
		}
	}
	return nil
}

// CountLeaves returns the number of filters in t.
func CountLeaves(t Tree) int {
	var n int
	_ = Walk(t, func(_ Path, node Node) error {
		if _, ok := node.(*Leaf); ok {
			n++
		}
		return nil
	})
	return n
}

// Leaves returns the leaves of t in pre-order.
func Leaves(t Tree) []*Leaf {
	var out []*Leaf
	_ = Walk(t, func(_ Path, node Node) error {
		if l, ok := node.(*Leaf); ok {
			out = append(out, l)
		}
		return nil
	})
	return out
}

// Height returns the largest number of group ancestors of any node in t.
// A flat tree has height 0.
func Height(t Tree) int {
	var h int
	_ = Walk(t, func(p Path, _ Node) error {
		if d := p.Depth() - 1; d > h {
			h = d
		}
		return nil
	})
	return h
}

// FindFilter returns the path of the leaf carrying the filter with id.
func FindFilter(t Tree, id types.FilterID) (Path, bool) {
	var found Path
	errFound := errors.New("found")
	err := Walk(t, func(p Path, node Node) error {
		if l, ok := node.(*Leaf); ok && l.Filter.ID == id {
			found = p.Clone()
			return errFound
		}
		return nil
	})
	return found, errors.Is(err, errFound)
}
