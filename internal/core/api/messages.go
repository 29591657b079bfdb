package api

import (
	"time"

	"github.com/solatis/filtertree/internal/editor"
	"github.com/solatis/filtertree/internal/tree"
	"github.com/solatis/filtertree/internal/types"
)

// Session is the wire view of a stored session.
type Session struct {
	ID        string          `json:"id"`
	Revision  int64           `json:"revision"`
	MaxDepth  int             `json:"max_depth"`
	Tree      []tree.WireNode `json:"tree"`
	Rendered  string          `json:"rendered"`
	Leaves    int             `json:"leaves"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type CreateSessionRequest struct {
	Tree     []tree.WireNode `json:"tree,omitempty"`
	MaxDepth int             `json:"max_depth,omitempty"`
}

type GetSessionRequest struct {
	SessionID string `json:"session_id"`
}

type SessionResponse struct {
	Session Session `json:"session"`
}

type DeleteSessionRequest struct {
	SessionID string `json:"session_id"`
}

type DeleteSessionResponse struct{}

// ApplyRequest carries a batch of actions, or a drag gesture, applied in
// order. The batch is saved only if every action succeeds. When
// ExpectedRevision is set the batch is refused unless the session is still at
// that revision.
type ApplyRequest struct {
	SessionID        string          `json:"session_id"`
	ExpectedRevision *int64          `json:"expected_revision,omitempty"`
	Actions          []editor.Action `json:"actions,omitempty"`
	Gesture          *editor.DragEnd `json:"gesture,omitempty"`
}

type ApplyResponse struct {
	Session Session        `json:"session"`
	Changed bool           `json:"changed"`
	Events  []editor.Event `json:"events,omitempty"`
}

type AffordancesRequest struct {
	SessionID string `json:"session_id"`
}

// Affordance is the wire view of tree.Affordance.
type Affordance struct {
	Path       string `json:"path"`
	Depth      int    `json:"depth"`
	Condition  string `json:"condition"`
	IsGroup    bool   `json:"is_group"`
	OrAllowed  bool   `json:"or_allowed"`
	AndAllowed bool   `json:"and_allowed"`
	Removable  bool   `json:"removable"`
}

type AffordancesResponse struct {
	Revision    int64        `json:"revision"`
	Affordances []Affordance `json:"affordances"`
}

type PreviewRequest struct {
	SessionID string           `json:"session_id"`
	Documents []types.Document `json:"documents"`
}

// PreviewResult reports whether one document is selected by the tree.
type PreviewResult struct {
	Matched      bool        `json:"matched"`
	MatchedPath  string      `json:"matched_path,omitempty"`
	MatchedField string      `json:"matched_field,omitempty"`
	MatchedValue interface{} `json:"matched_value,omitempty"`
}

type PreviewResponse struct {
	Revision int64           `json:"revision"`
	Results  []PreviewResult `json:"results"`
}

type ListEventsRequest struct {
	SessionID     string `json:"session_id"`
	AfterRevision int64  `json:"after_revision,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

type ListEventsResponse struct {
	Events []editor.Event `json:"events"`
}
