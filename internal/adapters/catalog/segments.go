package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/gangwaa/NerualAdsV2/internal/logging"
)

// Segment is one entry of the audience segment catalog.
type Segment struct {
	ID       int      `json:"segmentId"`
	Name     string   `json:"name"`
	Size     int64    `json:"size"`
	Geo      string   `json:"geo"`
	DemoTags []string `json:"demoTags"`
}

// defaultSegments is served when the catalog file is missing.
var defaultSegments = []Segment{
	{ID: 1, Name: "SportsFansLA", Size: 50000, Geo: "Los Angeles", DemoTags: []string{"Sports", "18-34"}},
	{ID: 2, Name: "DramaWatchersNY", Size: 75000, Geo: "New York", DemoTags: []string{"Drama", "25-44"}},
	{ID: 3, Name: "ComedyLoversCHI", Size: 60000, Geo: "Chicago", DemoTags: []string{"Comedy", "18-49"}},
}

// SegmentCatalog serves the segment CSV, loaded on first use.
type SegmentCatalog struct {
	path   string
	logger *logging.Logger

	once     sync.Once
	segments []Segment
	err      error
}

// NewSegmentCatalog creates a catalog backed by the CSV file at path.
func NewSegmentCatalog(path string, logger *logging.Logger) *SegmentCatalog {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SegmentCatalog{path: path, logger: logger}
}

// All returns every segment.
func (c *SegmentCatalog) All() ([]Segment, error) {
	c.once.Do(c.load)
	if c.err != nil {
		return nil, c.err
	}
	return append([]Segment(nil), c.segments...), nil
}

// Search returns segments whose name, geo or tags fuzzy-match query, best
// match first. An empty query returns every segment.
func (c *SegmentCatalog) Search(query string) ([]Segment, error) {
	all, err := c.All()
	if err != nil || strings.TrimSpace(query) == "" {
		return all, err
	}
	matches := fuzzy.FindFrom(query, segmentSource(all))
	out := make([]Segment, len(matches))
	for i, m := range matches {
		out[i] = all[m.Index]
	}
	return out, nil
}

// Get returns the segment with the given ID.
func (c *SegmentCatalog) Get(id int) (Segment, bool) {
	all, err := c.All()
	if err != nil {
		return Segment{}, false
	}
	for _, s := range all {
		if s.ID == id {
			return s, true
		}
	}
	return Segment{}, false
}

func (c *SegmentCatalog) load() {
	f, err := os.Open(c.path)
	if errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("segment catalog not found, using built-in segments", "path", c.path)
		c.segments = defaultSegments
		return
	}
	if err != nil {
		c.err = fmt.Errorf("opening segment catalog: %w", err)
		return
	}
	defer f.Close()

	c.segments, c.err = ParseSegments(f)
	if c.err == nil {
		c.logger.Debug("segment catalog loaded", "path", c.path, "segments", len(c.segments))
	}
}

// ParseSegments reads a segment CSV with the header
// segmentId,name,size,geo,demoTags. demoTags is a comma-separated list.
func ParseSegments(r io.Reader) ([]Segment, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading segment header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, want := range []string{"segmentId", "name", "size", "geo", "demoTags"} {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("segment catalog missing column %q", want)
		}
	}

	var out []Segment
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading segment line %d: %w", line, err)
		}
		id, err := strconv.Atoi(strings.TrimSpace(row[cols["segmentId"]]))
		if err != nil {
			return nil, fmt.Errorf("segment line %d: invalid segmentId: %w", line, err)
		}
		size, err := strconv.ParseInt(strings.TrimSpace(row[cols["size"]]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("segment line %d: invalid size: %w", line, err)
		}
		var tags []string
		for _, t := range strings.Split(strings.Trim(row[cols["demoTags"]], `"`), ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		out = append(out, Segment{
			ID:       id,
			Name:     strings.TrimSpace(row[cols["name"]]),
			Size:     size,
			Geo:      strings.TrimSpace(row[cols["geo"]]),
			DemoTags: tags,
		})
	}
}

// segmentSource adapts segments to fuzzy.Source.
type segmentSource []Segment

func (s segmentSource) String(i int) string {
	return s[i].Name + " " + s[i].Geo + " " + strings.Join(s[i].DemoTags, " ")
}

func (s segmentSource) Len() int { return len(s) }
