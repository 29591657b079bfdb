package types

import "errors"

// Tree addressing errors.
var (
	// ErrInvalidPath indicates a path string with a non-numeric segment.
	ErrInvalidPath = errors.New("invalid path")

	// ErrPathNotFound indicates a path whose indices exceed the tree at some depth.
	ErrPathNotFound = errors.New("path not found")

	// ErrPathTooDeep indicates a path longer than MaxPathLength.
	ErrPathTooDeep = errors.New("path exceeds maximum length")

	// ErrNotALeaf indicates an update addressed a group.
	ErrNotALeaf = errors.New("node is not a leaf")

	// ErrMoveIntoSelf indicates a move whose destination lies inside the moving subtree.
	ErrMoveIntoSelf = errors.New("cannot move a node into its own subtree")

	// ErrInvalidCondition indicates a condition other than AND/OR.
	ErrInvalidCondition = errors.New("invalid condition")

	// ErrInvalidNode indicates a malformed node in a serialized tree.
	ErrInvalidNode = errors.New("invalid node")
)

// Editor policy errors.
var (
	// ErrConditionDisabled indicates the requested condition is not offered at that depth.
	ErrConditionDisabled = errors.New("condition not allowed at this depth")

	// ErrLastFilter indicates removal of the only remaining root filter.
	ErrLastFilter = errors.New("cannot remove the last filter")

	// ErrTooManyFilters indicates a session would exceed its leaf limit.
	ErrTooManyFilters = errors.New("too many filters")

	// ErrUnknownAction indicates an editor action kind that does not exist.
	ErrUnknownAction = errors.New("unknown action")
)

// Session store errors.
var (
	// ErrSessionNotFound indicates no session exists for the ID and tenant.
	ErrSessionNotFound = errors.New("session not found")

	// ErrRevisionConflict indicates a write against a stale session revision.
	ErrRevisionConflict = errors.New("session revision conflict")
)

// Preview evaluation errors.
var (
	// ErrFieldPathTooDeep indicates a filter field path exceeds MaxFieldPathDepth.
	ErrFieldPathTooDeep = errors.New("field path exceeds maximum depth")

	// ErrTooManyWildcards indicates a field path exceeds MaxNestedWildcards.
	ErrTooManyWildcards = errors.New("field path has too many wildcards")

	// ErrInvalidFieldPath indicates a malformed filter field.
	ErrInvalidFieldPath = errors.New("invalid field path")

	// ErrTooManyValues indicates a one-of operator exceeds MaxOneOfValues.
	ErrTooManyValues = errors.New("operator has too many values")

	// ErrInvalidOperator indicates an unknown operator or a bad value shape for it.
	ErrInvalidOperator = errors.New("invalid operator")

	// ErrInvalidFieldType indicates a field type other than number, string or boolean.
	ErrInvalidFieldType = errors.New("invalid field type")

	// ErrCoercionFailed indicates type coercion failed.
	ErrCoercionFailed = errors.New("type coercion failed")

	// ErrFieldNotFound indicates a field path could not be resolved.
	ErrFieldNotFound = errors.New("field not found")

	// ErrDocumentTooLarge indicates a preview document exceeds MaxDocumentSize.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size")
)
