// Package api implements the filter editor gRPC service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/filtertree/internal/core/auth"
	"github.com/solatis/filtertree/internal/core/config"
	"github.com/solatis/filtertree/internal/core/db"
	"github.com/solatis/filtertree/internal/editor"
	"github.com/solatis/filtertree/internal/match"
	"github.com/solatis/filtertree/internal/tree"
	"github.com/solatis/filtertree/internal/types"
)

// Service implements FilterEditorServer.
// Thin orchestration layer: every mutating call loads the session, applies
// through an editor, and saves against the loaded revision.
type Service struct {
	store    *db.Store
	engine   *match.Engine
	cfg      *config.Config
	recorder editor.Recorder
	logger   *zap.Logger
}

var _ FilterEditorServer = (*Service)(nil)

// NewService creates service instance with dependencies. recorder may be nil.
func NewService(store *db.Store, engine *match.Engine, cfg *config.Config, recorder editor.Recorder, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		engine:   engine,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger,
	}, nil
}

func tenantFrom(ctx context.Context) (string, error) {
	tenantID := auth.TenantIDFromContext(ctx)
	if tenantID == "" {
		return "", status.Error(codes.Internal, "missing tenant_id in context")
	}
	return tenantID, nil
}

func parseSessionID(s string) (types.SessionID, error) {
	id, err := types.ParseSessionID(s)
	if err != nil {
		return "", status.Error(codes.InvalidArgument, fmt.Sprintf("invalid session_id %q", s))
	}
	return id, nil
}

func (s *Service) load(ctx context.Context, sessionID string) (*db.Session, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	sess, err := s.store.LoadSession(ctx, tenantID, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return sess, nil
}

func (s *Service) policy(sess *db.Session) tree.Policy {
	p := s.cfg.Editor.Policy()
	p.MaxDepth = sess.MaxDepth
	return p
}

// CreateSession stores a new session, optionally seeded with a tree.
func (s *Service) CreateSession(ctx context.Context, req *CreateSessionRequest) (*SessionResponse, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}

	maxDepth := req.MaxDepth
	if maxDepth == 0 {
		maxDepth = s.cfg.Editor.MaxDepth
	}
	if maxDepth < 1 || maxDepth >= types.MaxPathLength {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("max_depth must be between 1 and %d", types.MaxPathLength-1))
	}

	nodes, err := prepareWire(req.Tree)
	if err != nil {
		return nil, toStatus(err)
	}
	t, err := tree.FromWire(nodes)
	if err != nil {
		return nil, toStatus(err)
	}
	t = tree.Normalize(t)

	if n := tree.CountLeaves(t); n > s.cfg.Server.MaxLeaves {
		return nil, toStatus(fmt.Errorf("tree has %d filters, limit %d: %w", n, s.cfg.Server.MaxLeaves, types.ErrTooManyFilters))
	}
	if h := tree.Height(t); h > maxDepth {
		return nil, toStatus(fmt.Errorf("tree nests %d groups, limit %d: %w", h, maxDepth, types.ErrPathTooDeep))
	}

	sess := &db.Session{TenantID: tenantID, Tree: t, MaxDepth: maxDepth}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info("session created",
		zap.String("tenant_id", tenantID),
		zap.String("session_id", string(sess.ID)),
		zap.Int("leaves", tree.CountLeaves(t)))
	return &SessionResponse{Session: sessionView(sess)}, nil
}

// GetSession returns the current tree of a session.
func (s *Service) GetSession(ctx context.Context, req *GetSessionRequest) (*SessionResponse, error) {
	sess, err := s.load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{Session: sessionView(sess)}, nil
}

// Apply runs a batch of actions, or a drag gesture, against a session.
// Either every action lands and the session advances, or nothing is saved.
func (s *Service) Apply(ctx context.Context, req *ApplyRequest) (*ApplyResponse, error) {
	sess, err := s.load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if req.ExpectedRevision != nil && *req.ExpectedRevision != sess.Revision {
		return nil, toStatus(fmt.Errorf("session %s: expected revision %d, stored %d: %w",
			sess.ID, *req.ExpectedRevision, sess.Revision, types.ErrRevisionConflict))
	}

	actions := make([]editor.Action, 0, len(req.Actions)+1)
	actions = append(actions, req.Actions...)
	if req.Gesture != nil {
		actions = append(actions, req.Gesture.Actions()...)
	}
	if len(actions) == 0 {
		return nil, status.Error(codes.InvalidArgument, "no actions")
	}
	for i := range actions {
		if err := validateFilter(actions[i].Filter); err != nil {
			return nil, toStatus(fmt.Errorf("action %d: %w", i, err))
		}
	}

	ed := editor.New(sess.Tree, sess.Revision, editor.Options{
		SessionID:        sess.ID,
		Policy:           s.policy(sess),
		MaxLeaves:        s.cfg.Server.MaxLeaves,
		SubscriberBuffer: s.cfg.Editor.SubscriberBuffer,
		Logger:           s.logger,
		Recorder:         s.recorder,
	})
	defer ed.Close()

	loaded := sess.Revision
	var events []editor.Event
	for i, a := range actions {
		res, err := ed.Apply(ctx, a)
		if err != nil {
			return nil, toStatus(fmt.Errorf("action %d (%s): %w", i, a.Kind, err))
		}
		if res.Event != nil {
			events = append(events, *res.Event)
		}
	}

	if len(events) == 0 {
		return &ApplyResponse{Session: sessionView(sess)}, nil
	}

	records := make([]db.EventRecord, len(events))
	for i, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		records[i] = db.EventRecord{
			ID:        ev.ID,
			SessionID: sess.ID,
			Kind:      string(ev.Kind),
			Revision:  ev.Revision,
			Payload:   string(payload),
			CreatedAt: ev.At.UTC(),
		}
	}

	sess.Tree, sess.Revision = ed.Snapshot()
	if err := s.store.SaveSession(ctx, sess, loaded, records...); err != nil {
		return nil, toStatus(err)
	}

	s.logger.Debug("session updated",
		zap.String("session_id", string(sess.ID)),
		zap.Int64("revision", sess.Revision),
		zap.Int("events", len(events)))
	return &ApplyResponse{Session: sessionView(sess), Changed: true, Events: events}, nil
}

// Affordances reports the controls a host may offer for each node.
func (s *Service) Affordances(ctx context.Context, req *AffordancesRequest) (*AffordancesResponse, error) {
	sess, err := s.load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	affs := s.policy(sess).Affordances(sess.Tree)
	out := make([]Affordance, len(affs))
	for i, a := range affs {
		out[i] = Affordance{
			Path:       a.Path.String(),
			Depth:      a.Depth,
			Condition:  string(a.Condition),
			IsGroup:    a.IsGroup,
			OrAllowed:  a.OrAllowed,
			AndAllowed: a.AndAllowed,
			Removable:  a.Removable,
		}
	}
	return &AffordancesResponse{Revision: sess.Revision, Affordances: out}, nil
}

// Preview evaluates the session tree against sample documents.
func (s *Service) Preview(ctx context.Context, req *PreviewRequest) (*PreviewResponse, error) {
	if len(req.Documents) > s.cfg.Server.MaxPreviewDocs {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("preview accepts at most %d documents", s.cfg.Server.MaxPreviewDocs))
	}
	sess, err := s.load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := s.engine.Preview(ctx, sess.Tree, req.Documents)
	if s.recorder != nil {
		s.recorder.ObserveApply("preview", err, time.Since(start), tree.CountLeaves(sess.Tree))
	}
	if err != nil {
		return nil, toStatus(err)
	}

	out := make([]PreviewResult, len(results))
	for i, r := range results {
		out[i] = PreviewResult{
			Matched:      r.Matched,
			MatchedField: r.MatchedField,
			MatchedValue: r.MatchedValue,
		}
		if r.MatchedPath != nil {
			out[i].MatchedPath = r.MatchedPath.String()
		}
	}
	return &PreviewResponse{Revision: sess.Revision, Results: out}, nil
}

// DeleteSession removes a session and its event history.
func (s *Service) DeleteSession(ctx context.Context, req *DeleteSessionRequest) (*DeleteSessionResponse, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseSessionID(req.SessionID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteSession(ctx, tenantID, id); err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info("session deleted",
		zap.String("tenant_id", tenantID),
		zap.String("session_id", string(id)))
	return &DeleteSessionResponse{}, nil
}

// ListEvents pages through the edit history of a session.
func (s *Service) ListEvents(ctx context.Context, req *ListEventsRequest) (*ListEventsResponse, error) {
	if req.Limit < 0 || req.Limit > 1000 {
		return nil, status.Error(codes.InvalidArgument, "limit must be between 0 and 1000")
	}
	sess, err := s.load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	records, err := s.store.ListEvents(ctx, sess.TenantID, sess.ID, req.AfterRevision, req.Limit)
	if err != nil {
		return nil, toStatus(err)
	}

	events := make([]editor.Event, 0, len(records))
	for _, r := range records {
		var ev editor.Event
		if err := json.Unmarshal([]byte(r.Payload), &ev); err != nil {
			// Skip malformed event - continue with the rest
			s.logger.Warn("skipping malformed event",
				zap.String("event_id", string(r.ID)), zap.Error(err))
			continue
		}
		events = append(events, ev)
	}
	return &ListEventsResponse{Events: events}, nil
}

func sessionView(sess *db.Session) Session {
	return Session{
		ID:        string(sess.ID),
		Revision:  sess.Revision,
		MaxDepth:  sess.MaxDepth,
		Tree:      tree.ToWire(sess.Tree),
		Rendered:  sess.Tree.String(),
		Leaves:    tree.CountLeaves(sess.Tree),
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
}
