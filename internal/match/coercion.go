// internal/match/coercion.go
package match

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/solatis/filtertree/internal/types"
)

/*
 * Type coercion for preview evaluation.
 *
 * A filter's field type decides how both the document value and the filter's
 * own values are compared:
 *   - number: strict; numeric strings become float64, booleans are rejected
 *   - string: lenient; every scalar is rendered as a string
 *   - boolean: strict; only JSON booleans and "true"/"false"
 *   - any (empty field type): values are compared as decoded
 *
 * Null is reported separately from coercion failure: a null field behaves
 * like a missing one, a value that cannot be coerced simply does not match.
 */

// FieldType is the parsed form of Filter.FieldType.
type FieldType int

const (
	FieldTypeAny FieldType = iota
	FieldTypeNumber
	FieldTypeString
	FieldTypeBoolean
)

// ParseFieldType maps a filter's field type name.
func ParseFieldType(s string) (FieldType, error) {
	switch s {
	case "":
		return FieldTypeAny, nil
	case types.FieldTypeNumber:
		return FieldTypeNumber, nil
	case types.FieldTypeString:
		return FieldTypeString, nil
	case types.FieldTypeBoolean:
		return FieldTypeBoolean, nil
	default:
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidFieldType, s)
	}
}

// CoercionResult holds the coerced value or indicates null.
type CoercionResult struct {
	Value  any  // coerced value (valid only if !IsNull)
	IsNull bool // true if input was nil/null
}

// Coerce converts value to the expected field type.
// Returns ErrCoercionFailed for impossible coercions.
func Coerce(value any, fieldType FieldType) (CoercionResult, error) {
	if value == nil {
		return CoercionResult{IsNull: true}, nil
	}

	switch fieldType {
	case FieldTypeNumber:
		return coerceNumber(value)
	case FieldTypeString:
		return coerceString(value)
	case FieldTypeBoolean:
		return coerceBoolean(value)
	case FieldTypeAny:
		return CoercionResult{Value: value}, nil
	default:
		return CoercionResult{}, types.ErrCoercionFailed
	}
}

func coerceNumber(value any) (CoercionResult, error) {
	switch v := value.(type) {
	case float64:
		return CoercionResult{Value: v}, nil
	case int:
		return CoercionResult{Value: float64(v)}, nil
	case int64:
		return CoercionResult{Value: float64(v)}, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return CoercionResult{}, types.ErrCoercionFailed
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return CoercionResult{}, types.ErrCoercionFailed
		}
		return CoercionResult{Value: f}, nil
	default:
		return CoercionResult{}, types.ErrCoercionFailed
	}
}

func coerceString(value any) (CoercionResult, error) {
	switch v := value.(type) {
	case string:
		return CoercionResult{Value: v}, nil
	case float64:
		return CoercionResult{Value: strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case int:
		return CoercionResult{Value: strconv.Itoa(v)}, nil
	case int64:
		return CoercionResult{Value: strconv.FormatInt(v, 10)}, nil
	case bool:
		return CoercionResult{Value: strconv.FormatBool(v)}, nil
	case map[string]any, []any:
		return CoercionResult{}, types.ErrCoercionFailed
	default:
		return CoercionResult{Value: fmt.Sprintf("%v", v)}, nil
	}
}

func coerceBoolean(value any) (CoercionResult, error) {
	switch v := value.(type) {
	case bool:
		return CoercionResult{Value: v}, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return CoercionResult{Value: true}, nil
		case "false":
			return CoercionResult{Value: false}, nil
		}
	}
	return CoercionResult{}, types.ErrCoercionFailed
}
