// internal/editor/action.go
package editor

import (
	"github.com/solatis/filtertree/internal/types"
)

// ActionKind names a structural edit.
type ActionKind string

const (
	ActionAdd    ActionKind = "add"
	ActionRemove ActionKind = "remove"
	ActionMove   ActionKind = "move"
	ActionUpdate ActionKind = "update"
)

// Action is one edit as a host submits it. Paths use the dotted form.
//
//   - add: Path, Condition, Filter
//   - remove: Path
//   - move: From, To, Condition
//   - update: Path, Filter
type Action struct {
	Kind      ActionKind      `json:"kind" yaml:"kind"`
	Path      string          `json:"path,omitempty" yaml:"path,omitempty"`
	From      string          `json:"from,omitempty" yaml:"from,omitempty"`
	To        string          `json:"to,omitempty" yaml:"to,omitempty"`
	Condition types.Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Filter    *types.Filter   `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// DragEnd is the outcome of a drag gesture. Destination is set when the
// node was dropped between nodes, Combine when it was dropped onto one.
// Both empty means the drop was cancelled.
type DragEnd struct {
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	Combine     string `json:"combine,omitempty"`
}

// Actions translates the gesture into a move: a destination drop moves with
// AND, a combine drop with OR. A gesture carrying both is a combine; the
// destination is only the slot the pointer passed on the way.
func (d DragEnd) Actions() []Action {
	switch {
	case d.Source == "":
		return nil
	case d.Combine != "":
		return []Action{{Kind: ActionMove, From: d.Source, To: d.Combine, Condition: types.ConditionOr}}
	case d.Destination != "":
		return []Action{{Kind: ActionMove, From: d.Source, To: d.Destination, Condition: types.ConditionAnd}}
	default:
		return nil
	}
}
