package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

func newTestPlan(id string, created time.Time) *core.PlanRecord {
	return &core.PlanRecord{
		ID:          core.PlanID(id),
		SessionID:   "7f8c2a4e-3b1d-4c5e-9f6a-1b2c3d4e5f60",
		Advertiser:  "Acme Corp",
		TotalBudget: 250000,
		LineItems:   2,
		Confidence:  0.88,
		Snapshot: &core.Snapshot{
			Stage: core.StageLineItemGeneration,
			Parameters: &core.CampaignParameters{
				Advertiser: "Acme Corp",
				Budget:     250000,
				Objective:  "Awareness",
				Timeline:   "6 weeks",
				Confidence: 0.92,
			},
			Structure: &core.CampaignStructure{
				LineItems: []core.LineItem{
					{Name: "Acme_NY_Drama", Budget: 150000, BidCPM: 30, FrequencyCap: "3/day"},
					{Name: "Acme_LA_Sports", Budget: 100000, BidCPM: 35, FrequencyCap: "2/day"},
				},
				TotalBudget: 250000,
				Confidence:  0.88,
			},
		},
		CreatedAt: created,
	}
}

func newTestStore(t *testing.T) *SQLitePlanStore {
	t.Helper()
	store, err := NewSQLitePlanStore(filepath.Join(t.TempDir(), "plans.db"))
	if err != nil {
		t.Fatalf("NewSQLitePlanStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLitePlanStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	if err := store.SavePlan(ctx, newTestPlan("plan-1", created)); err != nil {
		t.Fatalf("SavePlan() error = %v", err)
	}

	got, err := store.GetPlan(ctx, "plan-1")
	if err != nil {
		t.Fatalf("GetPlan() error = %v", err)
	}
	if got.Advertiser != "Acme Corp" {
		t.Errorf("Advertiser = %q, want Acme Corp", got.Advertiser)
	}
	if got.TotalBudget != 250000 || got.LineItems != 2 {
		t.Errorf("unexpected totals: budget=%v items=%d", got.TotalBudget, got.LineItems)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if got.Snapshot == nil || got.Snapshot.Structure == nil {
		t.Fatal("snapshot was not restored")
	}
	if n := len(got.Snapshot.Structure.LineItems); n != 2 {
		t.Errorf("restored %d line items, want 2", n)
	}
	if got.Snapshot.Parameters.Timeline != "6 weeks" {
		t.Errorf("Timeline = %q", got.Snapshot.Parameters.Timeline)
	}
}

func TestSQLitePlanStore_Upsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	plan := newTestPlan("plan-1", time.Now().UTC())

	if err := store.SavePlan(ctx, plan); err != nil {
		t.Fatalf("SavePlan() error = %v", err)
	}
	plan.Advertiser = "Acme Corporation"
	if err := store.SavePlan(ctx, plan); err != nil {
		t.Fatalf("SavePlan() second error = %v", err)
	}

	list, err := store.ListPlans(ctx, 0)
	if err != nil {
		t.Fatalf("ListPlans() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListPlans() returned %d plans, want 1", len(list))
	}
	if list[0].Advertiser != "Acme Corporation" {
		t.Errorf("Advertiser = %q, want updated value", list[0].Advertiser)
	}
}

func TestSQLitePlanStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPlan(context.Background(), "missing")
	if core.GetCategory(err) != core.ErrCatNotFound {
		t.Errorf("GetPlan() error = %v, want not_found", err)
	}
}

func TestSQLitePlanStore_ListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := store.SavePlan(ctx, newTestPlan(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SavePlan(%s) error = %v", id, err)
		}
	}

	list, err := store.ListPlans(ctx, 2)
	if err != nil {
		t.Fatalf("ListPlans() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListPlans(2) returned %d plans", len(list))
	}
	if list[0].ID != "c" || list[1].ID != "b" {
		t.Errorf("order = [%s %s], want [c b]", list[0].ID, list[1].ID)
	}
}

func TestSQLitePlanStore_RejectsMissingID(t *testing.T) {
	store := newTestStore(t)
	err := store.SavePlan(context.Background(), &core.PlanRecord{})
	if core.GetCode(err) != core.CodeInvalidID {
		t.Errorf("SavePlan() error = %v, want INVALID_ID", err)
	}
}

func TestSQLitePlanStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "plans.db")
	store, err := NewSQLitePlanStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLitePlanStore() error = %v", err)
	}
	if err := store.SavePlan(context.Background(), newTestPlan("plan-1", time.Now().UTC())); err != nil {
		t.Fatalf("SavePlan() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLitePlanStore(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.GetPlan(context.Background(), "plan-1"); err != nil {
		t.Errorf("GetPlan() after reopen error = %v", err)
	}
}

func TestNewPlanStore(t *testing.T) {
	store, err := NewPlanStore("")
	if err != nil || store != nil {
		t.Fatalf("NewPlanStore(\"\") = %v, %v; want nil, nil", store, err)
	}

	path := filepath.Join(t.TempDir(), "plans.sqlite")
	store, err = NewPlanStore(path)
	if err != nil {
		t.Fatalf("NewPlanStore() error = %v", err)
	}
	defer store.Close()

	want := filepath.Join(filepath.Dir(path), "plans.db")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected database at %s: %v", want, err)
	}
}
