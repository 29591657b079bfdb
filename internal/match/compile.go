// internal/match/compile.go
package match

import (
	"fmt"
	"sort"

	"github.com/solatis/filtertree/internal/tree"
	"github.com/solatis/filtertree/internal/types"
)

/*
 * Tree compilation and validation.
 *
 * Compiles a tree.Tree into a CompiledNode tree with parsed field paths,
 * coerced filter values and cost-ordered children.
 *
 * Compilation workflow:
 *   1. Parse field, operator and field type of every enabled, complete leaf
 *   2. Validate limits (field path depth, wildcards, one-of values)
 *   3. Coerce the filter's values to its field type
 *   4. Order each group's children by ascending cost (stable sort)
 *
 * A leaf is complete when it names a field, an operator and, for operators
 * that compare, at least one value. Disabled and incomplete leaves compile to
 * match-all: an unfinished filter in the editor must not hide documents.
 *
 * Stable sort keeps equal-cost children in tree order so the reported
 * matched leaf is the same across identical inputs.
 */

// CompiledLeaf is a pre-processed filter ready for evaluation.
type CompiledLeaf struct {
	Path      tree.Path // position in the source tree
	Field     []types.PathSegment
	Operator  Operator // positive form
	Negate    bool
	FieldType FieldType
	Target    any  // coerced value, []any for one-of, [2]any for between
	MatchAll  bool // disabled or incomplete
	Cost      int
}

// CompiledNode is either a group (Leaf == nil) or a leaf.
type CompiledNode struct {
	Condition types.Condition
	Children  []*CompiledNode // ordered by ascending cost
	Leaf      *CompiledLeaf
	Cost      int
}

// Compiled is a tree ready for evaluation. Root is the implicit AND group.
type Compiled struct {
	Root   *CompiledNode
	Leaves int
}

// Compile validates and pre-processes t for evaluation.
func Compile(t tree.Tree) (*Compiled, error) {
	compiled := &Compiled{}
	root, err := compileChildren(t, tree.Path{}, types.RootCondition, &compiled.Leaves)
	if err != nil {
		return nil, err
	}
	compiled.Root = root
	return compiled, nil
}

func compileChildren(children []tree.Node, at tree.Path, cond types.Condition, leaves *int) (*CompiledNode, error) {
	group := &CompiledNode{
		Condition: cond,
		Children:  make([]*CompiledNode, 0, len(children)),
	}

	for i, child := range children {
		p := at.Child(i)
		var cn *CompiledNode
		switch n := child.(type) {
		case *tree.Leaf:
			leaf, err := compileLeaf(n.Filter, p)
			if err != nil {
				return nil, fmt.Errorf("compile filter %q: %w", p, err)
			}
			*leaves++
			cn = &CompiledNode{Leaf: leaf, Cost: leaf.Cost}
		case *tree.Group:
			var err error
			cn, err = compileChildren(n.Children, p, n.Condition, leaves)
			if err != nil {
				return nil, err
			}
		default:
			panic(fmt.Sprintf("match: unknown node type %T", n))
		}
		group.Children = append(group.Children, cn)
		group.Cost += cn.Cost
	}

	sort.SliceStable(group.Children, func(i, j int) bool {
		return group.Children[i].Cost < group.Children[j].Cost
	})
	return group, nil
}

func compileLeaf(f types.Filter, p tree.Path) (*CompiledLeaf, error) {
	matchAll := &CompiledLeaf{Path: p, MatchAll: true}
	if f.Disabled || f.Field == "" || f.Operator == "" {
		return matchAll, nil
	}

	path, err := ParseField(f.Field)
	if err != nil {
		return nil, err
	}
	op, err := ParseOperator(f.Operator)
	if err != nil {
		return nil, err
	}
	ft, err := ParseFieldType(f.FieldType)
	if err != nil {
		return nil, err
	}

	positive, negate := op.Positive()
	leaf := &CompiledLeaf{
		Path:      p,
		Field:     path,
		Operator:  positive,
		Negate:    negate,
		FieldType: ft,
		Cost:      CalculateLeafCost(path, positive, ft),
	}

	switch positive {
	case OpExists:
	case OpIs:
		if f.Value == nil {
			return matchAll, nil
		}
		v, err := coerceFilterValue(f.Value, ft)
		if err != nil {
			return nil, err
		}
		leaf.Target = v

	case OpIsOneOf:
		if len(f.Values) > types.MaxOneOfValues {
			return nil, fmt.Errorf("%d values: %w", len(f.Values), types.ErrTooManyValues)
		}
		set := make([]any, 0, len(f.Values))
		for _, raw := range f.Values {
			if raw == nil {
				continue
			}
			v, err := coerceFilterValue(raw, ft)
			if err != nil {
				return nil, err
			}
			set = append(set, v)
		}
		if len(set) == 0 {
			return matchAll, nil
		}
		leaf.Target = set

	case OpIsBetween:
		if len(f.Values) > 2 {
			return nil, fmt.Errorf("range needs at most 2 bounds, got %d: %w", len(f.Values), types.ErrInvalidOperator)
		}
		var bounds [2]any
		for i, raw := range f.Values {
			if raw == nil {
				continue
			}
			v, err := coerceFilterValue(raw, ft)
			if err != nil {
				return nil, err
			}
			bounds[i] = v
		}
		if bounds[0] == nil && bounds[1] == nil {
			return matchAll, nil
		}
		leaf.Target = bounds
	}
	return leaf, nil
}

func coerceFilterValue(v any, ft FieldType) (any, error) {
	res, err := Coerce(v, ft)
	if err != nil {
		return nil, fmt.Errorf("value %v: %w", v, err)
	}
	return res.Value, nil
}
