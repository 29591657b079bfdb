// internal/match/evaluate.go
package match

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/solatis/filtertree/internal/tree"
	"github.com/solatis/filtertree/internal/types"
)

/*
 * Tree evaluation.
 *
 * Evaluates a Compiled tree against one JSON document. Groups short-circuit:
 * AND on the first child that fails, OR on the first child that matches.
 * Cost ordering from compilation maximizes the benefit.
 *
 * Per leaf: resolve field -> coerce type -> compare positive operator ->
 * negate if the operator is a negation. A missing or null field makes the
 * positive operator fail. A document value that cannot be coerced to the
 * field type does not match either.
 *
 * Diagnostics: an AND group reports the first leaf it evaluated, an OR group
 * the child that matched.
 */

// MatchResult contains the outcome of evaluating a tree.
type MatchResult struct {
	Matched      bool
	MatchedPath  tree.Path // tree position of the deciding leaf; nil for an empty tree
	MatchedField string    // resolved field, wildcards replaced by actual keys
	MatchedValue any
}

type leafMatch struct {
	path  tree.Path
	field []types.PathSegment
	value any
}

// Evaluate checks whether the compiled tree selects doc.
func Evaluate(c *Compiled, doc types.Document) (MatchResult, error) {
	if len(doc) > types.MaxDocumentSize {
		return MatchResult{}, types.ErrDocumentTooLarge
	}
	var data any
	if err := json.Unmarshal(doc, &data); err != nil {
		return MatchResult{}, fmt.Errorf("decode document: %w", err)
	}
	return EvaluateValue(c, data)
}

// EvaluateValue is Evaluate over an already decoded document.
func EvaluateValue(c *Compiled, data any) (MatchResult, error) {
	matched, info, err := evaluateNode(c.Root, data)
	if err != nil {
		return MatchResult{}, err
	}
	result := MatchResult{Matched: matched}
	if matched && info != nil {
		result.MatchedPath = info.path
		if len(info.field) > 0 {
			result.MatchedField = FormatField(info.field)
		}
		result.MatchedValue = info.value
	}
	return result, nil
}

func evaluateNode(n *CompiledNode, data any) (bool, *leafMatch, error) {
	if n.Leaf != nil {
		return evaluateLeaf(n.Leaf, data)
	}

	if n.Condition == types.ConditionOr {
		for _, child := range n.Children {
			matched, info, err := evaluateNode(child, data)
			if err != nil {
				return false, nil, err
			}
			if matched {
				return true, info, nil
			}
		}
		return false, nil, nil
	}

	var first *leafMatch
	for _, child := range n.Children {
		matched, info, err := evaluateNode(child, data)
		if err != nil {
			return false, nil, err
		}
		if !matched {
			return false, nil, nil
		}
		if first == nil {
			first = info
		}
	}
	return true, first, nil
}

func evaluateLeaf(leaf *CompiledLeaf, data any) (bool, *leafMatch, error) {
	info := &leafMatch{path: leaf.Path}
	if leaf.MatchAll {
		return true, info, nil
	}

	positive, err := evaluatePositive(leaf, data, info)
	if err != nil {
		return false, nil, err
	}
	return positive != leaf.Negate, info, nil
}

func evaluatePositive(leaf *CompiledLeaf, data any, info *leafMatch) (bool, error) {
	resolved, err := Resolve(leaf.Field, data)
	if errors.Is(err, types.ErrFieldNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	info.field = resolved.ResolvedPath
	if leaf.Operator == OpExists {
		info.value = resolved.Value
		return resolved.Value != nil, nil
	}

	coerced, err := Coerce(resolved.Value, leaf.FieldType)
	if errors.Is(err, types.ErrCoercionFailed) {
		info.value = resolved.Value
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if coerced.IsNull {
		return false, nil
	}
	info.value = coerced.Value

	return Compare(leaf.Operator, coerced.Value, leaf.Target), nil
}
