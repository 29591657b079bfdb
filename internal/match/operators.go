// internal/match/operators.go
package match

import (
	"fmt"
	"strings"

	"github.com/solatis/filtertree/internal/types"
)

/*
 * Operator comparison logic.
 *
 * Four positive operators and their negations:
 *   - is / is_not: equality with numeric tolerance across int/float
 *   - is_one_of / is_not_one_of: membership with equality semantics
 *   - is_between / is_not_between: inclusive range, either bound may be open
 *   - exists / does_not_exist: field presence (null counts as absent)
 *
 * A negated operator is evaluated as the negation of its positive form, so a
 * missing field fails "is" and satisfies "is_not".
 *
 * Values reach Compare already coerced via Coerce().
 */

// Operator is the parsed form of Filter.Operator.
type Operator int

const (
	OpUnspecified Operator = iota
	OpIs
	OpIsNot
	OpIsOneOf
	OpIsNotOneOf
	OpIsBetween
	OpIsNotBetween
	OpExists
	OpDoesNotExist
)

var operatorNames = map[string]Operator{
	types.OperatorIs:           OpIs,
	types.OperatorIsNot:        OpIsNot,
	types.OperatorIsOneOf:      OpIsOneOf,
	types.OperatorIsNotOneOf:   OpIsNotOneOf,
	types.OperatorIsBetween:    OpIsBetween,
	types.OperatorIsNotBetween: OpIsNotBetween,
	types.OperatorExists:       OpExists,
	types.OperatorDoesNotExist: OpDoesNotExist,
}

// ParseOperator maps a filter's operator name.
func ParseOperator(s string) (Operator, error) {
	op, ok := operatorNames[strings.ToLower(s)]
	if !ok {
		return OpUnspecified, fmt.Errorf("%w: %q", types.ErrInvalidOperator, s)
	}
	return op, nil
}

// Positive returns the non-negated form of op and whether op negates it.
func (op Operator) Positive() (Operator, bool) {
	switch op {
	case OpIsNot:
		return OpIs, true
	case OpIsNotOneOf:
		return OpIsOneOf, true
	case OpIsNotBetween:
		return OpIsBetween, true
	case OpDoesNotExist:
		return OpExists, true
	default:
		return op, false
	}
}

// Compare applies a positive operator to value. target is the filter value
// for is, a []any for is_one_of and a [2]any range for is_between.
func Compare(op Operator, value, target any) bool {
	switch op {
	case OpExists:
		return value != nil
	case OpIs:
		return compareEqual(value, target)
	case OpIsOneOf:
		return compareIn(value, target)
	case OpIsBetween:
		return compareBetween(value, target)
	default:
		return false
	}
}

// compareEqual performs equality comparison with numeric type coercion.
func compareEqual(a, b any) bool {
	if na, nb, ok := asNumbers(a, b); ok {
		return na == nb
	}
	switch a.(type) {
	case map[string]any, []any:
		return false
	}
	switch b.(type) {
	case map[string]any, []any:
		return false
	}
	return a == b
}

// compareOrdered performs three-way comparison of two numbers or two strings.
func compareOrdered(a, b any) (int, bool) {
	if na, nb, ok := asNumbers(a, b); ok {
		switch {
		case na < nb:
			return -1, true
		case na > nb:
			return 1, true
		default:
			return 0, true
		}
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := toFloat64(a)
	nb, okb := toFloat64(b)
	return na, nb, oka && okb
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func compareIn(value, set any) bool {
	arr, ok := set.([]any)
	if !ok {
		return false
	}
	for _, elem := range arr {
		if compareEqual(value, elem) {
			return true
		}
	}
	return false
}

// compareBetween checks lo <= value <= hi. A nil bound is open.
func compareBetween(value, bounds any) bool {
	r, ok := bounds.([2]any)
	if !ok {
		return false
	}
	if lo := r[0]; lo != nil {
		c, ok := compareOrdered(value, lo)
		if !ok || c < 0 {
			return false
		}
	}
	if hi := r[1]; hi != nil {
		c, ok := compareOrdered(value, hi)
		if !ok || c > 0 {
			return false
		}
	}
	return true
}
