package state

import (
	"path/filepath"
	"strings"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

// NewPlanStore creates a PlanStore (SQLite) at the specified path.
// The path should be the plan database path (e.g., ".adplanner/plans.db").
// An empty path returns a nil store, which disables persistence.
func NewPlanStore(path string) (core.PlanStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	if !strings.HasSuffix(path, ".db") {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".db"
	}
	store, err := NewSQLitePlanStore(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}
