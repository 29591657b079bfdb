package tree

import "github.com/solatis/filtertree/internal/types"

// IsGroup reports whether n is a group.
func IsGroup(n Node) bool {
	_, ok := n.(*Group)
	return ok
}

// ConditionOf returns the condition of a group; ok is false for a leaf.
func ConditionOf(n Node) (cond types.Condition, ok bool) {
	switch n := n.(type) {
	case *Group:
		return n.Condition, true
	case *Leaf:
		return "", false
	default:
		panic(unknownNode(n))
	}
}

// ConditionOfPath classifies the node at p. The empty path is the root
// sequence and reports AND; a leaf reports ok == false.
func ConditionOfPath(t Tree, p Path) (cond types.Condition, ok bool, err error) {
	if p.IsRoot() {
		return types.RootCondition, true, nil
	}
	n, err := Resolve(t, p)
	if err != nil {
		return "", false, err
	}
	cond, ok = ConditionOf(n)
	return cond, ok, nil
}
