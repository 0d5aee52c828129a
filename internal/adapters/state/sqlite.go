// Package state persists finished campaign plans in SQLite.
package state

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

//go:embed migrations/001_plans.sql
var migrationV1 string

// DefaultListLimit bounds ListPlans when the caller passes a non-positive limit.
const DefaultListLimit = 50

// SQLitePlanStore implements core.PlanStore with SQLite storage.
type SQLitePlanStore struct {
	dbPath string
	db     *sql.DB
	mu     sync.RWMutex
}

// NewSQLitePlanStore opens (or creates) the database at dbPath and applies
// pending migrations.
func NewSQLitePlanStore(dbPath string) (*SQLitePlanStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &SQLitePlanStore{dbPath: dbPath, db: db}

	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLitePlanStore) Path() string { return s.dbPath }

// Close closes the database connection.
func (s *SQLitePlanStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLitePlanStore) migrate() error {
	var version int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		// Fresh database.
		version = 0
	}
	if version < 1 {
		if _, err := s.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}
	return nil
}

// SavePlan inserts or replaces a plan.
func (s *SQLitePlanStore) SavePlan(ctx context.Context, plan *core.PlanRecord) error {
	if plan == nil || plan.ID == "" {
		return core.ErrValidation(core.CodeInvalidID, "plan id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshotJSON []byte
	if plan.Snapshot != nil {
		var err error
		snapshotJSON, err = json.Marshal(plan.Snapshot)
		if err != nil {
			return fmt.Errorf("marshaling snapshot: %w", err)
		}
	}
	createdAt := plan.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plans (
			id, session_id, advertiser, total_budget, line_items, confidence, snapshot, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			session_id = excluded.session_id,
			advertiser = excluded.advertiser,
			total_budget = excluded.total_budget,
			line_items = excluded.line_items,
			confidence = excluded.confidence,
			snapshot = excluded.snapshot
	`,
		string(plan.ID), string(plan.SessionID), plan.Advertiser, plan.TotalBudget,
		plan.LineItems, plan.Confidence, nullableString(snapshotJSON), createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting plan: %w", err)
	}
	return nil
}

// GetPlan loads a plan with its snapshot.
func (s *SQLitePlanStore) GetPlan(ctx context.Context, id core.PlanID) (*core.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var plan core.PlanRecord
	var snapshotJSON sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, advertiser, total_budget, line_items, confidence, snapshot, created_at
		FROM plans WHERE id = ?
	`, string(id)).Scan(
		&plan.ID, &plan.SessionID, &plan.Advertiser, &plan.TotalBudget,
		&plan.LineItems, &plan.Confidence, &snapshotJSON, &plan.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound("plan", string(id))
	}
	if err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}

	if snapshotJSON.Valid && snapshotJSON.String != "" {
		plan.Snapshot = &core.Snapshot{}
		if err := json.Unmarshal([]byte(snapshotJSON.String), plan.Snapshot); err != nil {
			return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
		}
	}
	return &plan, nil
}

// ListPlans returns plan summaries, newest first.
func (s *SQLitePlanStore) ListPlans(ctx context.Context, limit int) ([]core.PlanSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, advertiser, total_budget, line_items, created_at
		FROM plans ORDER BY created_at DESC, id ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var out []core.PlanSummary
	for rows.Next() {
		var p core.PlanSummary
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Advertiser, &p.TotalBudget, &p.LineItems, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plans: %w", err)
	}
	return out, nil
}

func nullableString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

var _ core.PlanStore = (*SQLitePlanStore)(nil)
