// Package editor hosts one filter tree as a single-writer editing session.
//
// The tree core is pure; the editor owns the current snapshot, serializes
// edits against it, applies the host policy (depth ceiling, disabled
// conditions, the last-filter floor, the leaf limit) and publishes an event
// for every edit that changed the tree.
package editor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/solatis/filtertree/internal/tree"
	"github.com/solatis/filtertree/internal/types"
)

// Recorder observes applied actions. The metrics package implements it.
type Recorder interface {
	ObserveApply(kind string, err error, elapsed time.Duration, leaves int)
}

// Options configures an Editor.
type Options struct {
	SessionID        types.SessionID
	Policy           tree.Policy
	MaxLeaves        int
	SubscriberBuffer int
	Logger           *zap.Logger
	Recorder         Recorder
	Clock            func() time.Time
}

// Result is the outcome of one Apply.
type Result struct {
	Tree     tree.Tree
	Revision int64
	Changed  bool
	Event    *Event // nil when nothing changed
}

// Editor is safe for concurrent use; edits are applied one at a time.
type Editor struct {
	opts Options

	mu       sync.Mutex
	tree     tree.Tree
	revision int64

	subMu   sync.Mutex
	subs    map[*subscriber]struct{}
	closed  bool
	done    chan struct{}
	dropped atomic.Int64
}

// New creates an editor over initial at revision.
func New(initial tree.Tree, revision int64, opts Options) *Editor {
	if opts.Policy.MaxDepth == 0 {
		opts.Policy.MaxDepth = types.DefaultMaxDepth
	}
	if opts.MaxLeaves == 0 {
		opts.MaxLeaves = types.DefaultMaxLeaves
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if initial == nil {
		initial = tree.Tree{}
	}
	return &Editor{
		opts:     opts,
		tree:     initial,
		revision: revision,
		subs:     make(map[*subscriber]struct{}),
		done:     make(chan struct{}),
	}
}

// Snapshot returns the current tree and revision. The tree is immutable and
// may be retained.
func (e *Editor) Snapshot() (tree.Tree, int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tree, e.revision
}

// Policy returns the depth policy this editor enforces.
func (e *Editor) Policy() tree.Policy {
	return e.opts.Policy
}

// Affordances reports per-node controls for the current tree.
func (e *Editor) Affordances() []tree.Affordance {
	t, _ := e.Snapshot()
	return e.opts.Policy.Affordances(t)
}

// DropTarget resolves a hovered path tolerantly: it returns the path of the
// deepest node that exists along p.
func (e *Editor) DropTarget(p string) (tree.Path, error) {
	path, err := tree.ParsePath(p)
	if err != nil {
		return nil, err
	}
	t, _ := e.Snapshot()
	_, resolved, err := tree.ResolveNearest(t, path)
	return resolved, err
}

// Close ends all subscriptions.
func (e *Editor) Close() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.done)
}

// Apply runs one action against the current tree.
func (e *Editor) Apply(ctx context.Context, a Action) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	start := e.opts.Clock()
	e.mu.Lock()
	res, ev, err := e.applyLocked(a)
	leaves := tree.CountLeaves(e.tree)
	e.mu.Unlock()

	if e.opts.Recorder != nil {
		e.opts.Recorder.ObserveApply(string(a.Kind), err, e.opts.Clock().Sub(start), leaves)
	}
	if err != nil {
		e.opts.Logger.Debug("action rejected",
			zap.String("session_id", string(e.opts.SessionID)),
			zap.String("kind", string(a.Kind)),
			zap.Error(err))
		return Result{}, err
	}

	if ev != nil {
		e.opts.Logger.Debug("action applied",
			zap.String("session_id", string(e.opts.SessionID)),
			zap.String("kind", string(a.Kind)),
			zap.Int64("revision", ev.Revision),
			zap.Int("leaves", ev.Leaves))
		e.publish(*ev)
	}
	return res, nil
}

// ApplyGesture applies the moves a drag gesture translates to.
func (e *Editor) ApplyGesture(ctx context.Context, d DragEnd) (Result, error) {
	actions := d.Actions()
	if len(actions) == 0 {
		t, rev := e.Snapshot()
		return Result{Tree: t, Revision: rev}, nil
	}
	var res Result
	for _, a := range actions {
		next, err := e.Apply(ctx, a)
		if err != nil {
			return Result{}, err
		}
		next.Changed = next.Changed || res.Changed
		res = next
	}
	return res, nil
}

func (e *Editor) applyLocked(a Action) (Result, *Event, error) {
	current := e.tree
	ev := Event{
		SessionID: e.opts.SessionID,
		Kind:      a.Kind,
		Condition: a.Condition,
	}

	var next tree.Tree
	var err error
	switch a.Kind {
	case ActionAdd:
		next, err = e.add(current, a, &ev)
	case ActionRemove:
		next, err = e.remove(current, a, &ev)
	case ActionMove:
		next, err = e.move(current, a, &ev)
	case ActionUpdate:
		next, err = e.update(current, a, &ev)
	default:
		err = fmt.Errorf("%w: %q", types.ErrUnknownAction, a.Kind)
	}
	if err != nil {
		return Result{}, nil, err
	}

	if sameTree(current, next) {
		return Result{Tree: current, Revision: e.revision}, nil, nil
	}

	e.tree = next
	e.revision++
	ev.ID = types.NewEventID()
	ev.Revision = e.revision
	ev.Leaves = tree.CountLeaves(next)
	ev.At = e.opts.Clock()
	return Result{Tree: next, Revision: e.revision, Changed: true, Event: &ev}, &ev, nil
}

func (e *Editor) add(t tree.Tree, a Action, ev *Event) (tree.Tree, error) {
	p, err := tree.ParsePath(a.Path)
	if err != nil {
		return nil, err
	}
	if a.Filter == nil {
		return nil, fmt.Errorf("add at %q: missing filter: %w", p, types.ErrInvalidNode)
	}
	if err := e.opts.Policy.CheckAdd(t, p, a.Condition); err != nil {
		return nil, err
	}
	if tree.CountLeaves(t) >= e.opts.MaxLeaves {
		return nil, fmt.Errorf("add at %q: limit %d: %w", p, e.opts.MaxLeaves, types.ErrTooManyFilters)
	}

	f := *a.Filter
	if f.ID == "" {
		f.ID = types.NewFilterID()
	}
	ev.Path = p.String()
	ev.FilterID = f.ID
	return tree.Add(t, tree.NewLeaf(f), p, a.Condition)
}

func (e *Editor) remove(t tree.Tree, a Action, ev *Event) (tree.Tree, error) {
	p, err := tree.ParsePath(a.Path)
	if err != nil {
		return nil, err
	}
	n, err := tree.Resolve(t, p)
	if err != nil {
		return nil, err
	}
	container, err := tree.ResolveContainer(t, p)
	if err != nil {
		return nil, err
	}
	if !tree.CanRemove(p.Depth(), len(container.Children)) {
		return nil, fmt.Errorf("remove %q: %w", p, types.ErrLastFilter)
	}

	ev.Path = p.String()
	if l, ok := n.(*tree.Leaf); ok {
		ev.FilterID = l.Filter.ID
	}
	return tree.Remove(t, p)
}

func (e *Editor) move(t tree.Tree, a Action, ev *Event) (tree.Tree, error) {
	from, err := tree.ParsePath(a.From)
	if err != nil {
		return nil, err
	}
	to, err := tree.ParsePath(a.To)
	if err != nil {
		return nil, err
	}
	if err := e.checkMove(t, from, to, a.Condition); err != nil {
		return nil, err
	}

	ev.From = from.String()
	ev.To = to.String()
	if n, err := tree.Resolve(t, from); err == nil {
		if l, ok := n.(*tree.Leaf); ok {
			ev.FilterID = l.Filter.ID
		}
	}
	next, err := tree.Move(t, from, to, a.Condition)
	if err != nil {
		return nil, err
	}
	// A moved group carries its own nesting with it.
	if h := tree.Height(next); h > e.opts.Policy.MaxDepth && h > tree.Height(t) {
		return nil, fmt.Errorf("move %q to %q: tree would nest %d groups, limit %d: %w",
			from, to, h, e.opts.Policy.MaxDepth, types.ErrPathTooDeep)
	}
	return next, nil
}

// checkMove applies the policy to moves that open a new group. Reorders and
// drops into a sequence of the same condition never deepen the tree.
func (e *Editor) checkMove(t tree.Tree, from, to tree.Path, cond types.Condition) error {
	if to.IsRoot() || from.Equal(to) {
		return nil
	}
	container, err := tree.ResolveContainer(t, to)
	if err != nil {
		// reported by tree.Move
		return nil
	}
	if container.Condition == cond || to.Last() >= len(container.Children) {
		return nil
	}
	return e.opts.Policy.CheckAdd(t, to, cond)
}

func (e *Editor) update(t tree.Tree, a Action, ev *Event) (tree.Tree, error) {
	p, err := tree.ParsePath(a.Path)
	if err != nil {
		return nil, err
	}
	if a.Filter == nil {
		return nil, fmt.Errorf("update %q: missing filter: %w", p, types.ErrInvalidNode)
	}
	current, err := tree.Resolve(t, p)
	if err != nil {
		return nil, err
	}
	old, ok := current.(*tree.Leaf)
	if !ok {
		return nil, fmt.Errorf("update %q: %w", p, types.ErrNotALeaf)
	}

	f := *a.Filter
	if f.ID == "" {
		f.ID = old.Filter.ID
	}
	ev.Path = p.String()
	ev.FilterID = f.ID
	return tree.Update(t, p, tree.NewLeaf(f))
}

// sameTree reports whether b is a as returned by a no-op edit.
func sameTree(a, b tree.Tree) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
