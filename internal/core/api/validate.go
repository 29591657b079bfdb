package api

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/filtertree/internal/tree"
	"github.com/solatis/filtertree/internal/types"
)

// validateFilter rejects filter values that have no JSON representation and
// one-of lists past the value limit. The tree itself never inspects them.
func validateFilter(f *types.Filter) error {
	if f == nil {
		return nil
	}
	if f.Value != nil {
		if _, err := structpb.NewValue(f.Value); err != nil {
			return fmt.Errorf("filter %q value: %v: %w", f.Label(), err, types.ErrInvalidNode)
		}
	}
	if len(f.Values) > types.MaxOneOfValues {
		return fmt.Errorf("filter %q: %d values, limit %d: %w", f.Label(), len(f.Values), types.MaxOneOfValues, types.ErrTooManyValues)
	}
	if len(f.Values) > 0 {
		if _, err := structpb.NewList(f.Values); err != nil {
			return fmt.Errorf("filter %q values: %v: %w", f.Label(), err, types.ErrInvalidNode)
		}
	}
	return nil
}

// prepareWire validates every filter in nodes and returns a copy in which
// filters without an ID have been given one.
func prepareWire(nodes []tree.WireNode) ([]tree.WireNode, error) {
	out := make([]tree.WireNode, len(nodes))
	for i, n := range nodes {
		out[i] = n
		if n.Filter != nil {
			if err := validateFilter(n.Filter); err != nil {
				return nil, err
			}
			f := *n.Filter
			if f.ID == "" {
				f.ID = types.NewFilterID()
			}
			out[i].Filter = &f
		}
		if len(n.Children) > 0 {
			children, err := prepareWire(n.Children)
			if err != nil {
				return nil, err
			}
			out[i].Children = children
		}
	}
	return out, nil
}
