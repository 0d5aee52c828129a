package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/logging"
	"github.com/gangwaa/NerualAdsV2/internal/service/workflow"
)

// Default session limits.
const (
	DefaultSessionIdleTTL = 30 * time.Minute
	DefaultMaxSessions    = 256
)

// SessionOptions configures a SessionRegistry and the orchestrators it creates.
type SessionOptions struct {
	Oracle      core.Oracle
	Advertisers core.AdvertiserLookup
	// Store receives finished plans. Nil disables persistence.
	Store    core.PlanStore
	Logger   *logging.Logger
	Debounce time.Duration
	Narrate  bool
	// IdleTTL is how long an unused session survives. Zero disables eviction.
	IdleTTL time.Duration
	// MaxSessions caps live sessions. Zero means DefaultMaxSessions.
	MaxSessions int
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// SessionInfo is the list view of a session.
type SessionInfo struct {
	ID        core.SessionID `json:"session_id"`
	CreatedAt time.Time      `json:"created_at"`
	LastUsed  time.Time      `json:"last_used"`
	Status    core.Status    `json:"status"`
	PlanID    core.PlanID    `json:"plan_id,omitempty"`
}

// Session is one planning conversation: an orchestrator plus bookkeeping.
type Session struct {
	ID        core.SessionID
	CreatedAt time.Time

	orch   *workflow.Orchestrator
	store  core.PlanStore
	logger *logging.Logger
	now    func() time.Time

	mu       sync.Mutex
	lastUsed time.Time
	planID   core.PlanID
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = s.now()
	s.mu.Unlock()
}

// Orchestrator returns the session's workflow.
func (s *Session) Orchestrator() *workflow.Orchestrator { return s.orch }

// Process runs the current stage. When the line item stage completes the
// finished plan is saved to the plan store; a store failure is logged and
// does not fail the stage.
func (s *Session) Process(ctx context.Context, input string) (*core.WorkflowResult, error) {
	s.touch()
	res, err := s.orch.ProcessCurrentStage(ctx, input)
	if err != nil {
		return nil, err
	}
	if res.Stage == core.StageLineItemGeneration && s.store != nil {
		s.savePlan(ctx)
	}
	return res, nil
}

func (s *Session) savePlan(ctx context.Context) {
	snap := s.orch.Snapshot()
	if snap.Parameters == nil || snap.Structure == nil {
		return
	}
	plan := &core.PlanRecord{
		ID:          core.PlanID(uuid.NewString()),
		SessionID:   s.ID,
		Advertiser:  snap.Parameters.Advertiser,
		TotalBudget: snap.Structure.TotalBudget,
		LineItems:   len(snap.Structure.LineItems),
		Confidence:  snap.Structure.Confidence,
		Snapshot:    snap,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.SavePlan(ctx, plan); err != nil {
		s.logger.Error("saving plan failed", "error", err)
		return
	}
	s.mu.Lock()
	s.planID = plan.ID
	s.mu.Unlock()
	s.logger.Info("plan saved", "plan_id", plan.ID, "line_items", plan.LineItems)
}

// Advance moves the workflow forward. An empty target means the successor
// of the current stage.
func (s *Session) Advance(ctx context.Context, target core.Stage) (core.Stage, error) {
	s.touch()
	if target == "" {
		return s.orch.AdvanceStage(ctx)
	}
	return s.orch.AdvanceTo(ctx, target)
}

// Reset returns the workflow to its initial state.
func (s *Session) Reset() {
	s.touch()
	s.orch.Reset()
	s.mu.Lock()
	s.planID = ""
	s.mu.Unlock()
}

// Status returns the workflow status.
func (s *Session) Status() core.Status {
	return s.orch.Status()
}

// PlanID returns the ID of the last plan saved by this session, if any.
func (s *Session) PlanID() core.PlanID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planID
}

// Info returns a snapshot of the session's metadata.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		LastUsed:  s.lastUsed,
		Status:    s.orch.Status(),
		PlanID:    s.planID,
	}
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed)
}

// SessionRegistry owns every live session. Each session has its own
// orchestrator, so concurrent users never share workflow state.
type SessionRegistry struct {
	opts   SessionOptions
	logger *logging.Logger

	mu       sync.RWMutex
	sessions map[core.SessionID]*Session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry(opts SessionOptions) *SessionRegistry {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	return &SessionRegistry{
		opts:     opts,
		logger:   opts.Logger,
		sessions: make(map[core.SessionID]*Session),
	}
}

// Create starts a session with a fresh ID.
func (r *SessionRegistry) Create() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(core.SessionID(uuid.NewString()))
}

func (r *SessionRegistry) createLocked(id core.SessionID) (*Session, error) {
	if len(r.sessions) >= r.opts.MaxSessions {
		return nil, core.ErrConcurrentAccess(core.CodeSessionLimit,
			fmt.Sprintf("session limit of %d reached", r.opts.MaxSessions))
	}
	logger := r.logger.WithSession(string(id))
	now := r.opts.Clock()
	s := &Session{
		ID:        id,
		CreatedAt: now.UTC(),
		orch: workflow.New(workflow.Options{
			Oracle:      r.opts.Oracle,
			Advertisers: r.opts.Advertisers,
			Logger:      logger,
			Debounce:    r.opts.Debounce,
			Narrate:     r.opts.Narrate,
			Clock:       r.opts.Clock,
		}),
		store:    r.opts.Store,
		logger:   logger,
		now:      r.opts.Clock,
		lastUsed: now,
	}
	r.sessions[id] = s
	logger.Debug("session created", "sessions", len(r.sessions))
	return s, nil
}

// Get returns the session with the given ID.
func (r *SessionRegistry) Get(id core.SessionID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, core.ErrNotFound("session", string(id))
	}
	return s, nil
}

// GetOrCreate returns the session with the given ID, creating it when it
// does not exist. An empty ID always creates a session with a fresh ID.
// Caller-supplied IDs must be UUIDs. created reports whether a session was
// made.
func (r *SessionRegistry) GetOrCreate(id core.SessionID) (s *Session, created bool, err error) {
	if id == "" {
		s, err = r.Create()
		return s, err == nil, err
	}
	if _, err := uuid.Parse(string(id)); err != nil {
		return nil, false, core.ErrValidation(core.CodeInvalidID, fmt.Sprintf("invalid session id %q", id))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, false, nil
	}
	s, err = r.createLocked(id)
	return s, err == nil, err
}

// Delete removes a session. It reports whether the session existed.
func (r *SessionRegistry) Delete(id core.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// List returns every session, oldest first.
func (r *SessionRegistry) List() []SessionInfo {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	out := make([]SessionInfo, len(sessions))
	for i, s := range sessions {
		out[i] = s.Info()
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle removes sessions unused for longer than the idle TTL and returns
// how many were removed. Busy sessions are kept.
func (r *SessionRegistry) EvictIdle() int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	now := r.opts.Clock()

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, s := range r.sessions {
		if s.idleSince(now) > r.opts.IdleTTL && !s.Status().Busy {
			delete(r.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		r.logger.Info("evicted idle sessions", "count", evicted, "remaining", len(r.sessions))
	}
	return evicted
}

// Run evicts idle sessions periodically until ctx is cancelled.
func (r *SessionRegistry) Run(ctx context.Context) {
	if r.opts.IdleTTL <= 0 {
		return
	}
	interval := r.opts.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.EvictIdle()
		}
	}
}
