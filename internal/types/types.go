// Package types provides domain models shared across filtertree components.
//
// Zero-dependency design: types.go, filter.go and errors.go use only the
// standard library so the tree core can be embedded without pulling in the
// service stack. ID utilities in ids.go import uuid but are isolated.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Condition is the boolean connective of a group. The root sequence of a tree
// is always an implicit AND.
type Condition string

const (
	ConditionAnd Condition = "and"
	ConditionOr  Condition = "or"
)

// RootCondition is the fixed condition of the top-level sequence.
const RootCondition = ConditionAnd

// ParseCondition accepts "and"/"or" in any letter case.
func ParseCondition(s string) (Condition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "and":
		return ConditionAnd, nil
	case "or":
		return ConditionOr, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCondition, s)
	}
}

// Valid reports whether c is AND or OR.
func (c Condition) Valid() bool {
	return c == ConditionAnd || c == ConditionOr
}

// Opposite returns OR for AND and AND for OR.
func (c Condition) Opposite() Condition {
	if c == ConditionOr {
		return ConditionAnd
	}
	return ConditionOr
}

// String renders the condition the way the editor shows it between siblings.
func (c Condition) String() string {
	return strings.ToUpper(string(c))
}

// Document is a JSON sample document used to preview what a tree selects.
// json.RawMessage wrapper keeps the original bytes; the match engine decodes
// it once per evaluation.
type Document json.RawMessage

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	return json.RawMessage(d).MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	return (*json.RawMessage)(d).UnmarshalJSON(data)
}

// Resource limits enforced by the tree core, the editor and the match engine.
const (
	// DefaultMaxDepth is the nesting ceiling offered by the editor when the
	// host does not configure one.
	DefaultMaxDepth = 10

	// MaxPathLength bounds path parsing. A tree deeper than this cannot be
	// addressed, so no legitimate path is longer.
	MaxPathLength = 64

	// DefaultMaxLeaves caps the number of filters in one editing session.
	DefaultMaxLeaves = 1024

	// MaxFieldPathDepth prevents stack overflow during document field resolution.
	MaxFieldPathDepth = 16

	// MaxNestedWildcards limits wildcard expansion in a filter's field path.
	MaxNestedWildcards = 2

	// MaxOneOfValues limits is_one_of value lists.
	MaxOneOfValues = 64

	// MaxDocumentSize limits preview documents.
	MaxDocumentSize = 1024 * 1024
)
