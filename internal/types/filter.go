// internal/types/filter.go
package types

/*
 * Leaf payload carried by the filter tree.
 *
 * The tree core never looks inside a Filter: it is moved, wrapped and
 * dropped as an opaque value. Only internal/match interprets Field, Operator
 * and the values when previewing a tree against a sample document.
 *
 * Key types:
 *   - Filter: one field/operator/value condition edited by the host UI
 *   - PathSegment: one component of a document field path (key, index, wildcard)
 */

// Filter operators understood by the preview evaluator.
const (
	OperatorIs           = "is"
	OperatorIsNot        = "is_not"
	OperatorIsOneOf      = "is_one_of"
	OperatorIsNotOneOf   = "is_not_one_of"
	OperatorIsBetween    = "is_between"
	OperatorIsNotBetween = "is_not_between"
	OperatorExists       = "exists"
	OperatorDoesNotExist = "does_not_exist"
)

// Field types understood by the preview evaluator. Empty means any.
const (
	FieldTypeNumber  = "number"
	FieldTypeString  = "string"
	FieldTypeBoolean = "boolean"
)

// Filter is a single, non-decomposable filter condition.
type Filter struct {
	ID         FilterID `json:"id,omitempty" yaml:"id,omitempty"`
	DataViewID string   `json:"data_view_id,omitempty" yaml:"data_view_id,omitempty"`
	Field      string   `json:"field,omitempty" yaml:"field,omitempty"`
	FieldType  string   `json:"field_type,omitempty" yaml:"field_type,omitempty"`
	Operator   string   `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value      any      `json:"value,omitempty" yaml:"value,omitempty"`
	Values     []any    `json:"values,omitempty" yaml:"values,omitempty"`
	Disabled   bool     `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Label is a short human-readable rendering used in logs and tree dumps.
func (f Filter) Label() string {
	switch {
	case f.Field == "" && f.Operator == "":
		return "<empty>"
	case f.Operator == "":
		return f.Field
	default:
		return f.Field + " " + f.Operator
	}
}

// PathSegment represents one component of a document field path.
// A numeric segment carries both Key and Index: it indexes arrays and is
// looked up by name in objects.
type PathSegment struct {
	Key      string // object key
	Index    int    // array index, valid when IsIndex
	IsIndex  bool   // disambiguates Index=0 from unset
	Wildcard bool   // "*": first element or key that resolves
}
