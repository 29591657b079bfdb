package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/solatis/filtertree/internal/tree"
	"github.com/solatis/filtertree/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func leaf(name string) *tree.Leaf {
	return tree.NewLeaf(types.Filter{ID: types.FilterID("id-" + name), Field: name})
}

func filter(name string) *types.Filter {
	return &types.Filter{Field: name}
}

type recorded struct {
	kind   string
	err    error
	leaves int
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *fakeRecorder) ObserveApply(kind string, err error, _ time.Duration, leaves int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recorded{kind: kind, err: err, leaves: leaves})
}

func TestEditor_Apply(t *testing.T) {
	tests := []struct {
		name    string
		initial tree.Tree
		policy  tree.Policy
		action  Action
		want    string
		wantErr error
	}{
		{
			name:    "add to empty tree",
			initial: tree.Tree{},
			action:  Action{Kind: ActionAdd, Condition: types.ConditionAnd, Filter: filter("A")},
			want:    "A",
		},
		{
			name:    "add sibling",
			initial: tree.Tree{leaf("A"), leaf("B")},
			action:  Action{Kind: ActionAdd, Path: "0", Condition: types.ConditionAnd, Filter: filter("C")},
			want:    "A AND C AND B",
		},
		{
			name:    "add wraps",
			initial: tree.Tree{leaf("A"), leaf("B")},
			action:  Action{Kind: ActionAdd, Path: "1", Condition: types.ConditionOr, Filter: filter("C")},
			want:    "A AND (B OR C)",
		},
		{
			name:    "add with disabled condition",
			initial: tree.Tree{leaf("A")},
			policy:  tree.Policy{MaxDepth: 10, DisableOr: true},
			action:  Action{Kind: ActionAdd, Path: "0", Condition: types.ConditionOr, Filter: filter("B")},
			wantErr: types.ErrConditionDisabled,
		},
		{
			name:    "add past depth ceiling",
			initial: tree.Tree{leaf("A"), tree.NewGroup(types.ConditionOr, leaf("B"), leaf("C"))},
			policy:  tree.Policy{MaxDepth: 1},
			action:  Action{Kind: ActionAdd, Path: "1.0", Condition: types.ConditionAnd, Filter: filter("D")},
			wantErr: types.ErrConditionDisabled,
		},
		{
			name:    "same condition at depth ceiling",
			initial: tree.Tree{leaf("A"), tree.NewGroup(types.ConditionOr, leaf("B"), leaf("C"))},
			policy:  tree.Policy{MaxDepth: 1},
			action:  Action{Kind: ActionAdd, Path: "1.0", Condition: types.ConditionOr, Filter: filter("D")},
			want:    "A AND (B OR D OR C)",
		},
		{
			name:    "add without filter",
			initial: tree.Tree{leaf("A")},
			action:  Action{Kind: ActionAdd, Condition: types.ConditionAnd},
			wantErr: types.ErrInvalidNode,
		},
		{
			name:    "remove nested",
			initial: tree.Tree{tree.NewGroup(types.ConditionOr, leaf("A"), leaf("B"))},
			action:  Action{Kind: ActionRemove, Path: "0.1"},
			want:    "A",
		},
		{
			name:    "remove last filter",
			initial: tree.Tree{leaf("A")},
			action:  Action{Kind: ActionRemove, Path: "0"},
			wantErr: types.ErrLastFilter,
		},
		{
			name:    "remove missing",
			initial: tree.Tree{leaf("A"), leaf("B")},
			action:  Action{Kind: ActionRemove, Path: "5"},
			wantErr: types.ErrPathNotFound,
		},
		{
			name:    "move reorders",
			initial: tree.Tree{leaf("A"), leaf("B"), leaf("C")},
			action:  Action{Kind: ActionMove, From: "0", To: "2", Condition: types.ConditionAnd},
			want:    "B AND C AND A",
		},
		{
			name:    "move combines",
			initial: tree.Tree{leaf("A"), leaf("B"), leaf("C")},
			action:  Action{Kind: ActionMove, From: "0", To: "2", Condition: types.ConditionOr},
			want:    "B AND (C OR A)",
		},
		{
			name:    "move combine disabled",
			initial: tree.Tree{leaf("A"), leaf("B")},
			policy:  tree.Policy{MaxDepth: 10, DisableOr: true},
			action:  Action{Kind: ActionMove, From: "0", To: "1", Condition: types.ConditionOr},
			wantErr: types.ErrConditionDisabled,
		},
		{
			name:    "move into self",
			initial: tree.Tree{tree.NewGroup(types.ConditionOr, leaf("A"), leaf("B")), leaf("C")},
			action:  Action{Kind: ActionMove, From: "0", To: "0.1", Condition: types.ConditionOr},
			wantErr: types.ErrMoveIntoSelf,
		},
		{
			name: "move group past depth ceiling",
			initial: tree.Tree{
				tree.NewGroup(types.ConditionOr, leaf("A"), leaf("B")),
				tree.NewGroup(types.ConditionOr, leaf("C"), tree.NewGroup(types.ConditionAnd, leaf("D"), leaf("E"))),
			},
			policy:  tree.Policy{MaxDepth: 2},
			action:  Action{Kind: ActionMove, From: "1", To: "0.0", Condition: types.ConditionAnd},
			wantErr: types.ErrPathTooDeep,
		},
		{
			name: "move group within depth ceiling",
			initial: tree.Tree{
				tree.NewGroup(types.ConditionOr, leaf("A"), leaf("B")),
				tree.NewGroup(types.ConditionOr, leaf("C"), tree.NewGroup(types.ConditionAnd, leaf("D"), leaf("E"))),
			},
			policy: tree.Policy{MaxDepth: 4},
			action: Action{Kind: ActionMove, From: "1", To: "0.0", Condition: types.ConditionAnd},
			want:   "((A AND (C OR (D AND E))) OR B)",
		},
		{
			name:    "update",
			initial: tree.Tree{leaf("A"), leaf("B")},
			action:  Action{Kind: ActionUpdate, Path: "1", Filter: filter("Z")},
			want:    "A AND Z",
		},
		{
			name:    "update group",
			initial: tree.Tree{tree.NewGroup(types.ConditionOr, leaf("A"), leaf("B"))},
			action:  Action{Kind: ActionUpdate, Path: "0", Filter: filter("Z")},
			wantErr: types.ErrNotALeaf,
		},
		{
			name:    "invalid path",
			initial: tree.Tree{leaf("A")},
			action:  Action{Kind: ActionRemove, Path: "a.b"},
			wantErr: types.ErrInvalidPath,
		},
		{
			name:    "unknown action",
			initial: tree.Tree{leaf("A")},
			action:  Action{Kind: "rename"},
			wantErr: types.ErrUnknownAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := tt.policy
			if policy.MaxDepth == 0 {
				policy = tree.DefaultPolicy()
			}
			e := New(tt.initial, 3, Options{Policy: policy})
			defer e.Close()

			res, err := e.Apply(context.Background(), tt.action)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				got, rev := e.Snapshot()
				assert.Equal(t, tt.initial.String(), got.String())
				assert.Equal(t, int64(3), rev)
				return
			}
			require.NoError(t, err)
			assert.True(t, res.Changed)
			assert.Equal(t, int64(4), res.Revision)
			assert.Equal(t, tt.want, res.Tree.String())
			require.NotNil(t, res.Event)
			assert.Equal(t, tt.action.Kind, res.Event.Kind)
			assert.Equal(t, int64(4), res.Event.Revision)
			assert.NotEmpty(t, res.Event.ID)

			got, rev := e.Snapshot()
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, int64(4), rev)
		})
	}
}

func TestEditor_AddAssignsFilterID(t *testing.T) {
	e := New(nil, 0, Options{})
	defer e.Close()

	res, err := e.Apply(context.Background(), Action{Kind: ActionAdd, Condition: types.ConditionAnd, Filter: filter("A")})
	require.NoError(t, err)

	l := res.Tree[0].(*tree.Leaf)
	_, err = types.ParseFilterID(string(l.Filter.ID))
	require.NoError(t, err)
	assert.Equal(t, l.Filter.ID, res.Event.FilterID)
}

func TestEditor_UpdateKeepsFilterID(t *testing.T) {
	e := New(tree.Tree{leaf("A")}, 0, Options{})
	defer e.Close()

	res, err := e.Apply(context.Background(), Action{Kind: ActionUpdate, Path: "0", Filter: filter("B")})
	require.NoError(t, err)

	l := res.Tree[0].(*tree.Leaf)
	assert.Equal(t, types.FilterID("id-A"), l.Filter.ID)
	assert.Equal(t, "B", l.Filter.Field)
}

func TestEditor_LeafLimit(t *testing.T) {
	e := New(tree.Tree{leaf("A"), leaf("B")}, 0, Options{MaxLeaves: 2})
	defer e.Close()

	_, err := e.Apply(context.Background(), Action{Kind: ActionAdd, Condition: types.ConditionAnd, Filter: filter("C")})
	assert.ErrorIs(t, err, types.ErrTooManyFilters)
}

func TestEditor_NoopKeepsRevision(t *testing.T) {
	e := New(tree.Tree{leaf("A"), leaf("B")}, 7, Options{})
	defer e.Close()

	events := e.Subscribe(context.Background())
	res, err := e.Apply(context.Background(), Action{Kind: ActionMove, From: "1", To: "1", Condition: types.ConditionAnd})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Nil(t, res.Event)
	assert.Equal(t, int64(7), res.Revision)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestEditor_CanceledContext(t *testing.T) {
	e := New(tree.Tree{leaf("A")}, 0, Options{})
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Apply(ctx, Action{Kind: ActionRemove, Path: "0"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEditor_ApplyGesture(t *testing.T) {
	e := New(tree.Tree{leaf("A"), leaf("B")}, 0, Options{})
	defer e.Close()

	res, err := e.ApplyGesture(context.Background(), DragEnd{Source: "0", Combine: "1"})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "(B OR A)", res.Tree.String())

	res, err = e.ApplyGesture(context.Background(), DragEnd{Source: "0"})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, int64(1), res.Revision)
}

func TestEditor_ApplyGestureCombineAndDestination(t *testing.T) {
	e := New(tree.Tree{leaf("A"), leaf("B"), leaf("C")}, 0, Options{})
	defer e.Close()

	res, err := e.ApplyGesture(context.Background(), DragEnd{Source: "0", Destination: "1", Combine: "2"})
	require.NoError(t, err)
	assert.Equal(t, "B AND (C OR A)", res.Tree.String())
	assert.Equal(t, int64(1), res.Revision)
}

func TestEditor_DropTarget(t *testing.T) {
	e := New(tree.Tree{leaf("A"), tree.NewGroup(types.ConditionOr, leaf("B"), leaf("C"))}, 0, Options{})
	defer e.Close()

	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: "1.1", want: "1.1"},
		{in: "1.5", want: "1"},
		{in: "0.3", want: "0"},
		{in: "4", wantErr: types.ErrPathNotFound},
		{in: "x", wantErr: types.ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := e.DropTarget(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestEditor_Affordances(t *testing.T) {
	e := New(tree.Tree{leaf("A")}, 0, Options{})
	defer e.Close()

	affs := e.Affordances()
	require.Len(t, affs, 1)
	assert.False(t, affs[0].Removable)
	assert.True(t, affs[0].OrAllowed)
}

func TestEditor_Subscribe(t *testing.T) {
	e := New(tree.Tree{leaf("A")}, 0, Options{SubscriberBuffer: 4, SessionID: "s1"})
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events := e.Subscribe(ctx)

	_, err := e.Apply(context.Background(), Action{Kind: ActionAdd, Condition: types.ConditionOr, Path: "0", Filter: filter("B")})
	require.NoError(t, err)

	ev := <-events
	assert.Equal(t, ActionAdd, ev.Kind)
	assert.Equal(t, types.SessionID("s1"), ev.SessionID)
	assert.Equal(t, types.ConditionOr, ev.Condition)
	assert.Equal(t, "0", ev.Path)
	assert.Equal(t, 2, ev.Leaves)
	assert.Equal(t, int64(1), ev.Revision)

	cancel()
	for range events {
	}
}

func TestEditor_SubscribeAfterClose(t *testing.T) {
	e := New(nil, 0, Options{})
	e.Close()
	e.Close()

	_, ok := <-e.Subscribe(context.Background())
	assert.False(t, ok)
}

func TestEditor_CloseEndsSubscriptions(t *testing.T) {
	e := New(nil, 0, Options{})
	events := e.Subscribe(context.Background())
	e.Close()

	_, ok := <-events
	assert.False(t, ok)
}

func TestEditor_SlowSubscriberDrops(t *testing.T) {
	e := New(tree.Tree{leaf("A")}, 0, Options{})
	defer e.Close()

	_ = e.Subscribe(context.Background())
	_, err := e.Apply(context.Background(), Action{Kind: ActionAdd, Condition: types.ConditionAnd, Filter: filter("B")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.Dropped())
}

func TestEditor_LogsAndRecords(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	rec := &fakeRecorder{}
	e := New(tree.Tree{leaf("A")}, 0, Options{Logger: zap.New(core), Recorder: rec})
	defer e.Close()

	_, err := e.Apply(context.Background(), Action{Kind: ActionAdd, Condition: types.ConditionAnd, Filter: filter("B")})
	require.NoError(t, err)
	_, err = e.Apply(context.Background(), Action{Kind: ActionRemove, Path: "9"})
	require.Error(t, err)

	applied := logs.FilterMessage("action applied").All()
	require.Len(t, applied, 1)
	assert.Equal(t, int64(1), applied[0].ContextMap()["revision"])
	assert.Len(t, logs.FilterMessage("action rejected").All(), 1)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.calls, 2)
	assert.Equal(t, recorded{kind: "add", leaves: 2}, rec.calls[0])
	assert.Equal(t, "remove", rec.calls[1].kind)
	assert.True(t, errors.Is(rec.calls[1].err, types.ErrPathNotFound))
}

func TestEditor_ConcurrentApply(t *testing.T) {
	e := New(tree.Tree{leaf("A")}, 0, Options{})
	defer e.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Apply(context.Background(), Action{Kind: ActionAdd, Condition: types.ConditionAnd, Filter: filter("X")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, rev := e.Snapshot()
	assert.Equal(t, int64(20), rev)
	assert.Equal(t, 21, tree.CountLeaves(got))
}
