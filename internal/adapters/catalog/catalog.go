package catalog

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/gangwaa/NerualAdsV2/internal/logging"
)

// Paths locates the catalog files.
type Paths struct {
	Advertisers string
	Segments    string
	Preferences string
}

// Catalog bundles the loaded reference data.
type Catalog struct {
	Advertisers *AdvertiserDB
	Segments    *SegmentCatalog
	Preferences *PreferenceStore
}

// LoadAll loads every catalog concurrently. Missing files fall back to
// built-in data; malformed files are errors.
func LoadAll(ctx context.Context, paths Paths, logger *logging.Logger) (*Catalog, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Catalog{
		Segments:    NewSegmentCatalog(paths.Segments, logger),
		Preferences: NewPreferenceStore(paths.Preferences, logger),
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		db, err := LoadAdvertisers(paths.Advertisers, logger)
		c.Advertisers = db
		return err
	})
	g.Go(func() error {
		_, err := c.Segments.All()
		return err
	})
	g.Go(func() error {
		_, err := c.Preferences.Get("")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}
