// internal/match/cost.go
package match

import "github.com/solatis/filtertree/internal/types"

/*
 * Cost model for leaf evaluation.
 *
 * cost = lookup_cost + operator_cost * type_multiplier * 8^wildcards
 *
 * Group children are evaluated cheapest first so AND groups fail and OR
 * groups succeed as early as possible. A group costs the sum of its
 * children. A leaf that always matches costs 0.
 */

const (
	CostExists  = 1
	CostIs      = 5
	CostBetween = 7
	CostOneOf   = 8

	// Field lookup cost per named segment
	CostLookupPerSegment = 128

	MultiplierBool   = 1
	MultiplierNumber = 4
	MultiplierString = 48
	MultiplierAny    = 128
)

// CalculateLeafCost computes the evaluation cost of a single filter.
func CalculateLeafCost(path []types.PathSegment, op Operator, fieldType FieldType) int {
	lookupCost := 0
	wildcardCount := 0
	for _, seg := range path {
		if seg.Key != "" {
			lookupCost += CostLookupPerSegment
		}
		if seg.Wildcard {
			wildcardCount++
		}
	}

	execMult := 1
	for i := 0; i < wildcardCount; i++ {
		execMult *= 8
	}

	return lookupCost + operatorCost(op)*typeMultiplier(fieldType)*execMult
}

func operatorCost(op Operator) int {
	positive, _ := op.Positive()
	switch positive {
	case OpExists:
		return CostExists
	case OpIs:
		return CostIs
	case OpIsBetween:
		return CostBetween
	case OpIsOneOf:
		return CostOneOf
	default:
		return CostIs
	}
}

func typeMultiplier(ft FieldType) int {
	switch ft {
	case FieldTypeNumber:
		return MultiplierNumber
	case FieldTypeBoolean:
		return MultiplierBool
	case FieldTypeString:
		return MultiplierString
	default:
		return MultiplierAny
	}
}
