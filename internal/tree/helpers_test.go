package tree

import (
	"fmt"
	"math/rand"

	"github.com/solatis/filtertree/internal/types"
)

// l builds a leaf whose label is name.
func l(name string) *Leaf {
	return NewLeaf(types.Filter{Field: name})
}

func and(children ...Node) *Group { return NewGroup(types.ConditionAnd, children...) }
func or(children ...Node) *Group  { return NewGroup(types.ConditionOr, children...) }

// randomTree builds a tree from seed. Groups may be empty or singletons so
// that normalization has something to do.
func randomTree(seed int64) Tree {
	r := rand.New(rand.NewSource(seed))
	var next int
	var build func(depth int) Node
	build = func(depth int) Node {
		if depth >= 4 || r.Intn(3) != 0 {
			next++
			return l(fmt.Sprintf("f%d", next))
		}
		cond := types.ConditionAnd
		if r.Intn(2) == 0 {
			cond = types.ConditionOr
		}
		n := r.Intn(4)
		children := make([]Node, n)
		for i := range children {
			children[i] = build(depth + 1)
		}
		return NewGroup(cond, children...)
	}

	root := make(Tree, 1+r.Intn(5))
	for i := range root {
		root[i] = build(1)
	}
	return root
}

// paths lists the path of every node in t matching keep.
func paths(t Tree, keep func(Node) bool) []Path {
	var out []Path
	_ = Walk(t, func(p Path, n Node) error {
		if keep(n) {
			out = append(out, p.Clone())
		}
		return nil
	})
	return out
}

func anyNode(Node) bool { return true }

func leafOnly(n Node) bool {
	_, ok := n.(*Leaf)
	return ok
}

func randomCondition(r *rand.Rand) types.Condition {
	if r.Intn(2) == 0 {
		return types.ConditionAnd
	}
	return types.ConditionOr
}

// wellFormed reports whether every group in t has at least two children.
func wellFormed(t Tree) bool {
	ok := true
	_ = Walk(t, func(_ Path, n Node) error {
		if g, isGroup := n.(*Group); isGroup && len(g.Children) < 2 {
			ok = false
		}
		return nil
	})
	return ok
}
