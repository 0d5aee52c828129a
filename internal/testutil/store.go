package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

// MemoryPlanStore implements core.PlanStore in memory.
type MemoryPlanStore struct {
	mu      sync.Mutex
	plans   map[core.PlanID]*core.PlanRecord
	saveErr error
}

// NewMemoryPlanStore creates an empty store.
func NewMemoryPlanStore() *MemoryPlanStore {
	return &MemoryPlanStore{plans: make(map[core.PlanID]*core.PlanRecord)}
}

// WithSaveError configures SavePlan to fail with err.
func (s *MemoryPlanStore) WithSaveError(err error) *MemoryPlanStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
	return s
}

// SavePlan implements core.PlanStore.
func (s *MemoryPlanStore) SavePlan(_ context.Context, plan *core.PlanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	c := *plan
	c.Snapshot = plan.Snapshot.Clone()
	s.plans[plan.ID] = &c
	return nil
}

// GetPlan implements core.PlanStore.
func (s *MemoryPlanStore) GetPlan(_ context.Context, id core.PlanID) (*core.PlanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, core.ErrNotFound("plan", string(id))
	}
	c := *p
	c.Snapshot = p.Snapshot.Clone()
	return &c, nil
}

// ListPlans implements core.PlanStore.
func (s *MemoryPlanStore) ListPlans(_ context.Context, limit int) ([]core.PlanSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.PlanSummary, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, core.PlanSummary{
			ID:          p.ID,
			SessionID:   p.SessionID,
			Advertiser:  p.Advertiser,
			TotalBudget: p.TotalBudget,
			LineItems:   p.LineItems,
			CreatedAt:   p.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of stored plans.
func (s *MemoryPlanStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plans)
}

// Close implements core.PlanStore.
func (s *MemoryPlanStore) Close() error { return nil }

var _ core.PlanStore = (*MemoryPlanStore)(nil)
