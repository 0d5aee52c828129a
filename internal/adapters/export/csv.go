// Package export writes finished campaign plans as ad-server CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

// DateLayout is the date format used in exported files.
const DateLayout = "2006-01-02"

// DefaultFlightDays is the flight length used when the timeline cannot be parsed.
const DefaultFlightDays = 30

// Columns is the CSV header, one row per line item.
var Columns = []string{
	"line_item_id", "line_item_name", "budget", "start_date", "end_date",
	"networks", "genres", "devices", "locations", "segment_ids",
	"audience", "bid_cpm", "daily_cap", "frequency_cap",
}

var (
	timelinePattern = regexp.MustCompile(`(?i)(\d+)\s*(day|week|month)s?`)
	unsafeFileChars = regexp.MustCompile(`[^a-z0-9_]+`)
)

// FlightEnd returns the end date of a flight starting at start, derived from
// a timeline such as "6 weeks" or "3 months".
func FlightEnd(start time.Time, timeline string) time.Time {
	m := timelinePattern.FindStringSubmatch(timeline)
	if m == nil {
		return start.AddDate(0, 0, DefaultFlightDays)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return start.AddDate(0, 0, DefaultFlightDays)
	}
	switch strings.ToLower(m[2]) {
	case "week":
		return start.AddDate(0, 0, 7*n)
	case "month":
		return start.AddDate(0, n, 0)
	default:
		return start.AddDate(0, 0, n)
	}
}

// FlightStart returns the plan's start date: an explicit "start_date"
// requirement when it parses, otherwise the day the plan was created.
func FlightStart(plan *core.PlanRecord) time.Time {
	if snap := plan.Snapshot; snap != nil && snap.Parameters != nil {
		if v, ok := snap.Parameters.Requirements["start_date"].(string); ok {
			if t, err := time.Parse(DateLayout, strings.TrimSpace(v)); err == nil {
				return t
			}
		}
	}
	y, m, d := plan.CreatedAt.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Write renders plan as CSV to w.
func Write(w io.Writer, plan *core.PlanRecord) error {
	if plan == nil || plan.Snapshot == nil || plan.Snapshot.Structure == nil {
		return core.ErrValidation("PLAN_INCOMPLETE", "plan has no line items to export")
	}
	snap := plan.Snapshot

	start := FlightStart(plan)
	var timeline string
	if snap.Parameters != nil {
		timeline = snap.Parameters.Timeline
	}
	end := FlightEnd(start, timeline)

	var planNetworks []string
	if snap.Preferences != nil {
		planNetworks = snap.Preferences.NetworkPreferences
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, li := range snap.Structure.LineItems {
		networks := planNetworks
		if v := li.TargetingCriteria["networks"]; v != "" {
			networks = splitList(v)
		}
		segment := ""
		if idx := snap.Audience.SegmentIndex(li.Audience); idx > 0 {
			segment = strconv.Itoa(idx)
		}
		row := []string{
			strconv.Itoa(i + 1),
			li.Name,
			money(li.Budget),
			start.Format(DateLayout),
			end.Format(DateLayout),
			joinList(networks),
			joinList(splitList(li.Content)),
			joinList(splitList(li.Device)),
			joinList(splitList(li.Geo)),
			segment,
			li.Audience,
			money(li.BidCPM),
			money(li.DailyCap),
			li.FrequencyCap,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing line item %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Exporter writes plan CSVs into a directory.
type Exporter struct {
	dir string
}

// NewExporter creates an exporter rooted at dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// FileName returns the export file name for a plan.
func FileName(plan *core.PlanRecord) string {
	name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(plan.Advertiser), " ", "_"))
	name = strings.Trim(unsafeFileChars.ReplaceAllString(name, ""), "_")
	if name == "" {
		name = "campaign"
	}
	id := string(plan.ID)
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		return "campaign_plan_" + name + ".csv"
	}
	return "campaign_plan_" + name + "_" + id + ".csv"
}

// WriteFile exports plan atomically and returns the written path.
func (e *Exporter) WriteFile(plan *core.PlanRecord) (string, error) {
	var b strings.Builder
	if err := Write(&b, plan); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0o750); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(e.dir, FileName(plan))
	if err := renameio.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinList(values []string) string {
	return strings.Join(values, "|")
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
