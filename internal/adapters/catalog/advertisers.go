// Package catalog loads the reference data the planner consults: the
// historical advertiser vector database, the audience segment catalog and
// the advertiser preference fixtures.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/logging"
)

// advertiserEntry is one element of the on-disk vector database.
type advertiserEntry struct {
	Metadata struct {
		Advertiser string `json:"advertiser"`
		TotalCount int64  `json:"total_count"`
	} `json:"metadata"`
	Vector map[string]float64 `json:"vector"`
}

// AdvertiserDB is an in-memory advertiser vector database. It is safe for
// concurrent use and can be reloaded while in use.
type AdvertiserDB struct {
	mu      sync.RWMutex
	records []*core.AdvertiserRecord
}

// NewAdvertiserDB creates a database holding records.
func NewAdvertiserDB(records ...*core.AdvertiserRecord) *AdvertiserDB {
	return &AdvertiserDB{records: records}
}

// LoadAdvertisers reads the database at path. A missing file yields an empty
// database and a warning, since preference analysis degrades gracefully
// without history.
func LoadAdvertisers(path string, logger *logging.Logger) (*AdvertiserDB, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	db := NewAdvertiserDB()
	if err := db.Reload(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("advertiser database not found, continuing without history", "path", path)
			return db, nil
		}
		return nil, err
	}
	logger.Info("advertiser database loaded", "path", path, "advertisers", db.Len())
	return db, nil
}

// Reload replaces the records with the contents of path.
func (db *AdvertiserDB) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading advertiser database: %w", err)
	}
	var entries []advertiserEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing advertiser database %s: %w", path, err)
	}

	records := make([]*core.AdvertiserRecord, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Metadata.Advertiser) == "" {
			continue
		}
		records = append(records, &core.AdvertiserRecord{
			Advertiser: e.Metadata.Advertiser,
			Vector:     e.Vector,
			TotalCount: e.Metadata.TotalCount,
		})
	}

	db.mu.Lock()
	db.records = records
	db.mu.Unlock()
	return nil
}

// Lookup resolves name to a record: an exact case-insensitive match first,
// then a record whose name contains the query, then a record whose name is
// contained in the query. The returned record is a copy.
func (db *AdvertiserDB) Lookup(name string) (*core.AdvertiserRecord, bool) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return nil, false
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	matchers := []func(candidate string) bool{
		func(c string) bool { return c == q },
		func(c string) bool { return strings.Contains(c, q) },
		func(c string) bool { return strings.Contains(q, c) },
	}
	for _, match := range matchers {
		for _, r := range db.records {
			if match(strings.ToLower(r.Advertiser)) {
				return r.Clone(), true
			}
		}
	}
	return nil, false
}

// Names returns the advertiser names in sorted order.
func (db *AdvertiserDB) Names() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	names := make([]string, len(db.records))
	for i, r := range db.records {
		names[i] = r.Advertiser
	}
	sort.Strings(names)
	return names
}

// Len returns the number of advertisers.
func (db *AdvertiserDB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.records)
}

// Watch reloads the database whenever path is written or replaced, until
// ctx is cancelled. The parent directory is watched so editors that save by
// rename are picked up. A failed reload keeps the previous records.
func (db *AdvertiserDB) Watch(ctx context.Context, path string, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := db.Reload(path); err != nil {
				logger.Warn("advertiser database reload failed", "path", path, "error", err)
				continue
			}
			logger.Info("advertiser database reloaded", "path", path, "advertisers", db.Len())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("advertiser database watcher error", "error", err)
		}
	}
}

var _ core.AdvertiserLookup = (*AdvertiserDB)(nil)
