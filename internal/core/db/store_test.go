package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/filtertree/internal/tree"
	"github.com/solatis/filtertree/internal/types"
)

func sampleTree() tree.Tree {
	return tree.Tree{
		tree.NewLeaf(types.Filter{ID: "f1", Field: "status", Operator: types.OperatorIs, Value: "open"}),
		tree.NewGroup(types.ConditionOr,
			tree.NewLeaf(types.Filter{ID: "f2", Field: "owner", Operator: types.OperatorExists}),
			tree.NewLeaf(types.Filter{ID: "f3", Field: "age", Operator: types.OperatorIsBetween, Values: []any{1.0, 5.0}}),
		),
	}
}

func TestStore_CreateAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess := &Session{TenantID: "tenant-a", Tree: sampleTree()}
	require.NoError(t, s.CreateSession(ctx, sess))
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, types.DefaultMaxDepth, sess.MaxDepth)

	got, err := s.LoadSession(ctx, "tenant-a", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Tree.String(), got.Tree.String())
	assert.Equal(t, int64(0), got.Revision)
	assert.Equal(t, "tenant-a", got.TenantID)

	l := got.Tree[1].(*tree.Group).Children[1].(*tree.Leaf)
	assert.Equal(t, []any{1.0, 5.0}, l.Filter.Values)
}

func TestStore_LoadOtherTenant(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess := &Session{TenantID: "tenant-a"}
	require.NoError(t, s.CreateSession(ctx, sess))

	_, err := s.LoadSession(ctx, "tenant-b", sess.ID)
	assert.ErrorIs(t, err, types.ErrSessionNotFound)
}

func TestStore_SaveSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess := &Session{TenantID: "t", Tree: sampleTree()}
	require.NoError(t, s.CreateSession(ctx, sess))

	sess.Tree = sess.Tree[:1]
	sess.Revision = 1
	ev := EventRecord{SessionID: sess.ID, Kind: "remove", Revision: 1, Payload: `{"kind":"remove"}`}
	require.NoError(t, s.SaveSession(ctx, sess, 0, ev))

	got, err := s.LoadSession(ctx, "t", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Revision)
	assert.Equal(t, "status is", got.Tree.String())

	events, err := s.ListEvents(ctx, "t", sess.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "remove", events[0].Kind)
	assert.NotEmpty(t, events[0].ID)
	assert.JSONEq(t, `{"kind":"remove"}`, events[0].Payload)
}

func TestStore_SaveSessionConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess := &Session{TenantID: "t", Tree: sampleTree()}
	require.NoError(t, s.CreateSession(ctx, sess))

	sess.Revision = 1
	require.NoError(t, s.SaveSession(ctx, sess, 0))

	sess.Revision = 2
	ev := EventRecord{SessionID: sess.ID, Kind: "add", Revision: 2, Payload: "{}"}
	err := s.SaveSession(ctx, sess, 0, ev)
	assert.ErrorIs(t, err, types.ErrRevisionConflict)

	// the rolled back transaction left no event behind
	events, err := s.ListEvents(ctx, "t", sess.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStore_SaveMissingSession(t *testing.T) {
	s := openTestStore(t)

	err := s.SaveSession(context.Background(), &Session{ID: types.NewSessionID(), TenantID: "t", Revision: 1}, 0)
	assert.ErrorIs(t, err, types.ErrSessionNotFound)
}

func TestStore_ListEventsPaging(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess := &Session{TenantID: "t"}
	require.NoError(t, s.CreateSession(ctx, sess))
	for rev := int64(1); rev <= 5; rev++ {
		sess.Revision = rev
		require.NoError(t, s.SaveSession(ctx, sess, rev-1, EventRecord{SessionID: sess.ID, Kind: "add", Revision: rev, Payload: "{}"}))
	}

	page, err := s.ListEvents(ctx, "t", sess.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(3), page[0].Revision)
	assert.Equal(t, int64(4), page[1].Revision)

	other, err := s.ListEvents(ctx, "other", sess.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_DeleteSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess := &Session{TenantID: "t"}
	require.NoError(t, s.CreateSession(ctx, sess))
	sess.Revision = 1
	require.NoError(t, s.SaveSession(ctx, sess, 0, EventRecord{SessionID: sess.ID, Kind: "add", Revision: 1, Payload: "{}"}))

	require.NoError(t, s.DeleteSession(ctx, "t", sess.ID))
	_, err := s.LoadSession(ctx, "t", sess.ID)
	assert.ErrorIs(t, err, types.ErrSessionNotFound)

	var remaining int
	require.NoError(t, s.q.db.Get(&remaining, "SELECT COUNT(*) FROM session_events WHERE session_id = ?", string(sess.ID)))
	assert.Zero(t, remaining)
	assert.ErrorIs(t, s.DeleteSession(ctx, "t", sess.ID), types.ErrSessionNotFound)
}

func TestStore_APIKeys(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	key := &APIKey{TenantID: "t", Name: "ci", Hash: []byte{1, 2, 3}}
	require.NoError(t, s.CreateAPIKey(ctx, key))
	require.NotEmpty(t, key.ID)

	var row struct {
		TenantID string       `db:"tenant_id"`
		APIKeyID string       `db:"api_key_id"`
		LastUsed sql.NullTime `db:"last_used_at"`
		Revoked  sql.NullTime `db:"revoked_at"`
	}
	require.NoError(t, s.Queries().Get("get-api-key-by-hash", &row, []byte{1, 2, 3}))
	assert.Equal(t, "t", row.TenantID)

	require.NoError(t, s.RevokeAPIKey(ctx, key.ID))
	require.NoError(t, s.RevokeAPIKey(ctx, key.ID))
	err := s.CreateAPIKey(ctx, &APIKey{TenantID: "t", Name: "dup", Hash: []byte{1, 2, 3}})
	assert.ErrorContains(t, err, "database error")
}
