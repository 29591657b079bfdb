// internal/editor/events.go
package editor

import (
	"context"
	"time"

	"github.com/solatis/filtertree/internal/types"
)

// Event records one applied edit that changed the tree.
type Event struct {
	ID        types.EventID   `json:"id"`
	SessionID types.SessionID `json:"session_id,omitempty"`
	Kind      ActionKind      `json:"kind"`
	Path      string          `json:"path,omitempty"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	Condition types.Condition `json:"condition,omitempty"`
	FilterID  types.FilterID  `json:"filter_id,omitempty"`
	Revision  int64           `json:"revision"`
	Leaves    int             `json:"leaves"`
	At        time.Time       `json:"at"`
}

type subscriber struct {
	ch chan Event
}

// Subscribe returns a channel receiving every event published after the
// call. The channel is closed when ctx ends or the editor is closed. A
// subscriber that falls behind its buffer loses events; see Dropped.
func (e *Editor) Subscribe(ctx context.Context) <-chan Event {
	sub := &subscriber{ch: make(chan Event, e.opts.SubscriberBuffer)}

	e.subMu.Lock()
	if e.closed {
		e.subMu.Unlock()
		close(sub.ch)
		return sub.ch
	}
	e.subs[sub] = struct{}{}
	e.subMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-e.done:
		}
		e.unsubscribe(sub)
	}()
	return sub.ch
}

func (e *Editor) unsubscribe(sub *subscriber) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	if _, ok := e.subs[sub]; ok {
		delete(e.subs, sub)
		close(sub.ch)
	}
}

// publish never blocks the writer.
func (e *Editor) publish(ev Event) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for sub := range e.subs {
		select {
		case sub.ch <- ev:
		default:
			e.dropped.Add(1)
		}
	}
}

// Dropped returns the number of events lost to slow subscribers.
func (e *Editor) Dropped() int64 {
	return e.dropped.Load()
}
