package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/gangwaa/NerualAdsV2/internal/logging"
)

// Preferences is a stored set of targeting preferences.
type Preferences struct {
	Networks  []string `json:"networks"`
	Genres    []string `json:"genres"`
	Devices   []string `json:"devices"`
	Locations []string `json:"locations"`
}

// AdvertiserPreferences pairs an advertiser ID with its preferences.
type AdvertiserPreferences struct {
	AdvertiserID string      `json:"advertiser_id"`
	Preferences  Preferences `json:"preferences"`
}

var defaultPreferences = Preferences{
	Networks:  []string{"Hulu", "Roku", "Tubi"},
	Genres:    []string{"Sports", "Comedy", "Drama"},
	Devices:   []string{"SmartTV", "Mobile"},
	Locations: []string{"Los Angeles", "New York", "Chicago"},
}

// PreferenceStore serves the preference fixture, loaded on first use. The
// same fixture answers for every advertiser ID.
type PreferenceStore struct {
	path   string
	logger *logging.Logger

	once  sync.Once
	prefs Preferences
	err   error
}

// NewPreferenceStore creates a store backed by the JSON file at path.
func NewPreferenceStore(path string, logger *logging.Logger) *PreferenceStore {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PreferenceStore{path: path, logger: logger}
}

// Get returns the preferences for advertiserID.
func (s *PreferenceStore) Get(advertiserID string) (*AdvertiserPreferences, error) {
	s.once.Do(s.load)
	if s.err != nil {
		return nil, s.err
	}
	return &AdvertiserPreferences{
		AdvertiserID: advertiserID,
		Preferences: Preferences{
			Networks:  slices.Clone(s.prefs.Networks),
			Genres:    slices.Clone(s.prefs.Genres),
			Devices:   slices.Clone(s.prefs.Devices),
			Locations: slices.Clone(s.prefs.Locations),
		},
	}, nil
}

func (s *PreferenceStore) load() {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("preference fixture not found, using built-in preferences", "path", s.path)
		s.prefs = defaultPreferences
		return
	}
	if err != nil {
		s.err = fmt.Errorf("reading preference fixture: %w", err)
		return
	}
	if err := json.Unmarshal(data, &s.prefs); err != nil {
		s.err = fmt.Errorf("parsing preference fixture %s: %w", s.path, err)
	}
}
