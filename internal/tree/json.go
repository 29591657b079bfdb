// internal/tree/json.go
package tree

import (
	"encoding/json"
	"fmt"

	"github.com/solatis/filtertree/internal/types"
)

/*
 * Wire form of a tree.
 *
 * A tree is a JSON array of nodes. A group is {"condition":"or","children":[...]},
 * a leaf is {"filter":{...}}. The same WireNode shape is what the CLI renders
 * as YAML and what the session store persists.
 */

// WireNode is the serialized form of one node. Exactly one of Filter or
// Condition is set.
type WireNode struct {
	Condition types.Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Children  []WireNode      `json:"children,omitempty" yaml:"children,omitempty"`
	Filter    *types.Filter   `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// ToWire converts t to its wire form. An empty tree becomes an empty,
// non-nil slice so it encodes as [] rather than null.
func ToWire(t Tree) []WireNode {
	return toWireChildren(t)
}

func toWireChildren(children []Node) []WireNode {
	out := make([]WireNode, len(children))
	for i, child := range children {
		switch n := child.(type) {
		case *Leaf:
			f := n.Filter
			out[i] = WireNode{Filter: &f}
		case *Group:
			out[i] = WireNode{Condition: n.Condition, Children: toWireChildren(n.Children)}
		default:
			panic(unknownNode(n))
		}
	}
	return out
}

// FromWire builds a tree from its wire form. The result is not normalized;
// callers that accept external input normalize it themselves.
func FromWire(nodes []WireNode) (Tree, error) {
	children, err := fromWireChildren(nodes, Path{})
	if err != nil {
		return nil, err
	}
	return Tree(children), nil
}

func fromWireChildren(nodes []WireNode, at Path) ([]Node, error) {
	if at.Depth() >= types.MaxPathLength {
		return nil, fmt.Errorf("decode node %q: %w", at, types.ErrPathTooDeep)
	}
	out := make([]Node, len(nodes))
	for i, w := range nodes {
		p := at.Child(i)
		switch {
		case w.Filter != nil && (w.Condition != "" || len(w.Children) > 0):
			return nil, fmt.Errorf("decode node %q: both filter and group fields set: %w", p, types.ErrInvalidNode)
		case w.Filter != nil:
			out[i] = NewLeaf(*w.Filter)
		case w.Condition != "":
			cond, err := types.ParseCondition(string(w.Condition))
			if err != nil {
				return nil, fmt.Errorf("decode node %q: %w", p, err)
			}
			children, err := fromWireChildren(w.Children, p)
			if err != nil {
				return nil, err
			}
			out[i] = NewGroup(cond, children...)
		default:
			return nil, fmt.Errorf("decode node %q: neither filter nor condition set: %w", p, types.ErrInvalidNode)
		}
	}
	return out, nil
}

// MarshalJSON implements json.Marshaler.
func (t Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToWire(t))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var nodes []WireNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return fmt.Errorf("decode tree: %w", err)
	}
	decoded, err := FromWire(nodes)
	if err != nil {
		return err
	}
	*t = decoded
	return nil
}

// DecodeTree parses a JSON tree and normalizes it.
func DecodeTree(data []byte) (Tree, error) {
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return Normalize(t), nil
}
