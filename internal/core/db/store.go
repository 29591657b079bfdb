package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/filtertree/internal/tree"
	"github.com/solatis/filtertree/internal/types"
)

// Session is a persisted editing session.
type Session struct {
	ID        types.SessionID
	TenantID  string
	Tree      tree.Tree
	Revision  int64
	MaxDepth  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventRecord is one persisted edit. Payload is the JSON event as the
// editor published it.
type EventRecord struct {
	ID        types.EventID   `db:"event_id"`
	SessionID types.SessionID `db:"session_id"`
	Kind      string          `db:"kind"`
	Revision  int64           `db:"revision"`
	Payload   string          `db:"payload"`
	CreatedAt time.Time       `db:"created_at"`
}

type sessionRow struct {
	SessionID string    `db:"session_id"`
	TenantID  string    `db:"tenant_id"`
	TreeJSON  string    `db:"tree_json"`
	Revision  int64     `db:"revision"`
	MaxDepth  int       `db:"max_depth"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Store reads and writes sessions through named queries. Writes are
// optimistic: SaveSession only succeeds against the revision the caller
// loaded.
type Store struct {
	q   *Queries
	now func() time.Time
}

// NewStore loads the named queries for db.
func NewStore(db *sqlx.DB) (*Store, error) {
	q, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &Store{q: q, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Queries exposes the named queries, e.g. for the authenticator.
func (s *Store) Queries() *Queries {
	return s.q
}

// CreateSession inserts a new session at revision 0. A zero ID is replaced
// by a fresh one.
func (s *Store) CreateSession(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = types.NewSessionID()
	}
	if sess.Tree == nil {
		sess.Tree = tree.Tree{}
	}
	if sess.MaxDepth == 0 {
		sess.MaxDepth = types.DefaultMaxDepth
	}
	encoded, err := json.Marshal(sess.Tree)
	if err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}

	now := s.now()
	sess.Revision = 0
	sess.CreatedAt = now
	sess.UpdatedAt = now

	_, err = s.q.ExecContext(ctx, "insert-session",
		string(sess.ID), sess.TenantID, string(encoded), sess.Revision, sess.MaxDepth, now, now)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	return nil
}

// LoadSession returns the session owned by tenantID.
func (s *Store) LoadSession(ctx context.Context, tenantID string, id types.SessionID) (*Session, error) {
	var row sessionRow
	err := s.q.GetContext(ctx, "get-session", &row, string(id), tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, types.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	t, err := tree.DecodeTree([]byte(row.TreeJSON))
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return &Session{
		ID:        types.SessionID(row.SessionID),
		TenantID:  row.TenantID,
		Tree:      t,
		Revision:  row.Revision,
		MaxDepth:  row.MaxDepth,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// SaveSession writes sess.Tree and sess.Revision if the stored revision is
// still expectedRevision, and appends events in the same transaction. A
// stale expectedRevision fails with types.ErrRevisionConflict.
func (s *Store) SaveSession(ctx context.Context, sess *Session, expectedRevision int64, events ...EventRecord) error {
	encoded, err := json.Marshal(sess.Tree)
	if err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	now := s.now()

	err = s.q.InTx(ctx, func(tx *Tx) error {
		res, err := tx.ExecContext(ctx, "update-session",
			string(encoded), sess.Revision, now, string(sess.ID), sess.TenantID, expectedRevision)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDatabase, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDatabase, err)
		}
		if n == 0 {
			var current int64
			err := tx.GetContext(ctx, "get-session-revision", &current, string(sess.ID), sess.TenantID)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("session %s: %w", sess.ID, types.ErrSessionNotFound)
			}
			if err != nil {
				return fmt.Errorf("%w: %w", ErrDatabase, err)
			}
			return fmt.Errorf("session %s: expected revision %d, stored %d: %w",
				sess.ID, expectedRevision, current, types.ErrRevisionConflict)
		}

		for _, ev := range events {
			if err := insertEvent(ctx, tx, ev, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	sess.UpdatedAt = now
	return nil
}

func insertEvent(ctx context.Context, tx *Tx, ev EventRecord, now time.Time) error {
	if ev.ID == "" {
		ev.ID = types.NewEventID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	_, err := tx.ExecContext(ctx, "insert-event",
		string(ev.ID), string(ev.SessionID), ev.Kind, ev.Revision, ev.Payload, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	return nil
}

// ListEvents returns up to limit events of a session with a revision above
// afterRevision, oldest first.
func (s *Store) ListEvents(ctx context.Context, tenantID string, id types.SessionID, afterRevision int64, limit int) ([]EventRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []EventRecord
	if err := s.q.SelectContext(ctx, "list-events", &events, string(id), tenantID, afterRevision, limit); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	return events, nil
}

// DeleteSession removes a session and its events.
func (s *Store) DeleteSession(ctx context.Context, tenantID string, id types.SessionID) error {
	res, err := s.q.ExecContext(ctx, "delete-session", string(id), tenantID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, types.ErrSessionNotFound)
	}
	return nil
}

// APIKey is a stored API key. Only the HMAC of the key is kept.
type APIKey struct {
	ID       string
	TenantID string
	Name     string
	Hash     []byte
}

// CreateAPIKey stores a key hash for tenantID.
func (s *Store) CreateAPIKey(ctx context.Context, key *APIKey) error {
	if key.ID == "" {
		key.ID = types.NewAPIKeyID()
	}
	_, err := s.q.ExecContext(ctx, "insert-api-key", key.ID, key.TenantID, key.Name, key.Hash, s.now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	return nil
}

// RevokeAPIKey marks a key revoked. Revoking twice is not an error.
func (s *Store) RevokeAPIKey(ctx context.Context, id string) error {
	if _, err := s.q.ExecContext(ctx, "revoke-api-key", s.now(), id); err != nil {
		return fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	return nil
}
