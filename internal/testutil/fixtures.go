package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// AdvertiserCatalogJSON is a small advertiser vector database in the
// on-disk format.
const AdvertiserCatalogJSON = `[
  {
    "metadata": {"advertiser": "Acme Corp", "total_count": 1250000},
    "vector": {
      "genre:Drama": 0.42,
      "genre:Comedy": 0.31,
      "genre:Action;Adventure": 0.18,
      "channel:HBO": 0.27,
      "channel:ESPN": 0.12,
      "network:Warner Bros": 0.33,
      "network:Disney": 0.21,
      "zip:10001": 0.09,
      "zip:90210": 0.07,
      "zip:60601": 0.05
    }
  },
  {
    "metadata": {"advertiser": "Globex Foods", "total_count": 480000},
    "vector": {
      "genre:Cooking": 0.55,
      "channel:Food Network": 0.4,
      "network:Discovery": 0.3
    }
  }
]`

// SegmentsCSV is a small segment catalog in the on-disk format.
const SegmentsCSV = `segmentId,name,size,geo,demoTags
101,Heavy Binge Watchers,2800000,National,"Streaming,18-34"
102,Sports Fans Chicago,3200000,Chicago,"Sports,25-54"
103,News Enthusiasts,1900000,New York,"News,35+"
`

// PreferencesJSON is a preference fixture in the on-disk format.
const PreferencesJSON = `{
  "networks": ["Hulu", "Peacock"],
  "genres": ["Drama", "Comedy"],
  "devices": ["SmartTV"],
  "locations": ["Boston"]
}`

// TempFile writes content to name inside a fresh temporary directory and
// returns the path.
func TempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}
