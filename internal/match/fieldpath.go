// internal/match/fieldpath.go
package match

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/solatis/filtertree/internal/types"
)

/*
 * Field path resolution for preview documents.
 *
 * A filter names its field in dotted form: "user.address.city",
 * "items.*.price", "tags.0". ParseField turns that into PathSegments once at
 * compile time; Resolve walks a decoded document along them.
 *
 * Wildcard semantics: a "*" segment resolves to the first element (arrays) or
 * first key in sorted order (objects) for which the rest of the path
 * resolves. Evaluation stays deterministic for identical inputs.
 *
 * Limits: MaxFieldPathDepth segments and MaxNestedWildcards wildcards, both
 * enforced at parse and at resolution time.
 */

// ResolveResult contains the resolved value and the actual path taken.
type ResolveResult struct {
	Value        any                 // resolved value (nil if not found or JSON null)
	ResolvedPath []types.PathSegment // path with wildcards replaced by actual indices
	Found        bool
}

// ParseField splits a dotted field name into path segments.
func ParseField(field string) ([]types.PathSegment, error) {
	if field == "" {
		return nil, fmt.Errorf("parse field: empty: %w", types.ErrInvalidFieldPath)
	}

	parts := strings.Split(field, ".")
	if len(parts) > types.MaxFieldPathDepth {
		return nil, fmt.Errorf("parse field %q: %w", field, types.ErrFieldPathTooDeep)
	}

	path := make([]types.PathSegment, len(parts))
	wildcards := 0
	for i, part := range parts {
		switch {
		case part == "":
			return nil, fmt.Errorf("parse field %q: segment %d is empty: %w", field, i, types.ErrInvalidFieldPath)
		case part == "*":
			path[i] = types.PathSegment{Wildcard: true}
			wildcards++
		default:
			seg := types.PathSegment{Key: part}
			if n, err := strconv.Atoi(part); err == nil && n >= 0 {
				seg.Index = n
				seg.IsIndex = true
			}
			path[i] = seg
		}
	}
	if wildcards > types.MaxNestedWildcards {
		return nil, fmt.Errorf("parse field %q: %w", field, types.ErrTooManyWildcards)
	}
	return path, nil
}

// FormatField renders segments back to dotted form.
func FormatField(path []types.PathSegment) string {
	parts := make([]string, len(path))
	for i, seg := range path {
		switch {
		case seg.Wildcard:
			parts[i] = "*"
		case seg.Key != "":
			parts[i] = seg.Key
		default:
			parts[i] = strconv.Itoa(seg.Index)
		}
	}
	return strings.Join(parts, ".")
}

// Resolve traverses a decoded JSON document following path.
// Returns ErrFieldPathTooDeep or ErrTooManyWildcards for paths over the limits,
// ErrFieldNotFound if the path does not exist in data.
func Resolve(path []types.PathSegment, data any) (ResolveResult, error) {
	if len(path) > types.MaxFieldPathDepth {
		return ResolveResult{}, types.ErrFieldPathTooDeep
	}

	wildcardCount := 0
	for _, seg := range path {
		if seg.Wildcard {
			wildcardCount++
		}
	}
	if wildcardCount > types.MaxNestedWildcards {
		return ResolveResult{}, types.ErrTooManyWildcards
	}

	return resolveRecursive(path, data, make([]types.PathSegment, 0, len(path)))
}

func resolveRecursive(path []types.PathSegment, current any, resolvedSoFar []types.PathSegment) (ResolveResult, error) {
	if len(path) == 0 {
		return ResolveResult{
			Value:        current,
			ResolvedPath: resolvedSoFar,
			Found:        true,
		}, nil
	}

	seg := path[0]
	remaining := path[1:]

	switch v := current.(type) {
	case map[string]any:
		if seg.Wildcard {
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, key := range keys {
				resolved := appendSegment(resolvedSoFar, types.PathSegment{Key: key})
				result, err := resolveRecursive(remaining, v[key], resolved)
				if err == nil && result.Found {
					return result, nil
				}
			}
			return ResolveResult{}, types.ErrFieldNotFound
		}
		val, ok := v[seg.Key]
		if !ok {
			return ResolveResult{}, types.ErrFieldNotFound
		}
		return resolveRecursive(remaining, val, appendSegment(resolvedSoFar, types.PathSegment{Key: seg.Key}))

	case []any:
		if seg.Wildcard {
			for i, elem := range v {
				resolved := appendSegment(resolvedSoFar, types.PathSegment{Index: i, IsIndex: true})
				result, err := resolveRecursive(remaining, elem, resolved)
				if err == nil && result.Found {
					return result, nil
				}
			}
			return ResolveResult{}, types.ErrFieldNotFound
		}
		if !seg.IsIndex || seg.Index >= len(v) {
			return ResolveResult{}, types.ErrFieldNotFound
		}
		return resolveRecursive(remaining, v[seg.Index], appendSegment(resolvedSoFar, types.PathSegment{Index: seg.Index, IsIndex: true}))

	default:
		// null or scalar with path remaining
		return ResolveResult{}, types.ErrFieldNotFound
	}
}

// appendSegment never shares the backing array between wildcard branches.
func appendSegment(path []types.PathSegment, seg types.PathSegment) []types.PathSegment {
	out := make([]types.PathSegment, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}
