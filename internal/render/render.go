// Package render formats plans, stage results and catalogs for the terminal.
package render

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"

	"github.com/gangwaa/NerualAdsV2/internal/adapters/catalog"
	"github.com/gangwaa/NerualAdsV2/internal/core"
)

const defaultWordWrap = 100

// Renderer turns domain values into terminal text.
type Renderer struct {
	md  *glamour.TermRenderer
	pal palette
}

// New creates a renderer for out. Colors are used only when color is set;
// lipgloss additionally downgrades them when out is not a terminal.
func New(out io.Writer, color bool) (*Renderer, error) {
	style := glamour.WithStandardStyle(styles.NoTTYStyle)
	if color {
		style = glamour.WithStyles(styles.DraculaStyleConfig)
	}
	md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(defaultWordWrap))
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	lg := lipgloss.NewRenderer(out)
	if !color {
		lg.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{md: md, pal: newPalette(lg)}, nil
}

// Stage renders one stage result: a status line followed by the reasoning.
func (r *Renderer) Stage(res *core.WorkflowResult) string {
	var b strings.Builder

	order := core.StageOrder(res.Stage) + 1
	title := res.Stage.Description()
	if res.Stage == core.StageComplete {
		b.WriteString(r.pal.good.Render("✓ "+title) + "\n")
		return b.String()
	}
	b.WriteString(r.pal.stage.Render(fmt.Sprintf("[%d/4] %s", order, title)))
	b.WriteString(r.pal.muted.Render(fmt.Sprintf("  confidence %.2f", res.Confidence)))
	if res.Degraded {
		b.WriteString("  " + r.pal.degraded.Render("fallback"))
	}
	b.WriteString("\n")

	reasoning, err := r.md.Render(res.Reasoning)
	if err != nil {
		reasoning = res.Reasoning + "\n"
	}
	b.WriteString(reasoning)
	return b.String()
}

// Plan renders a finished campaign structure as a summary and a line item
// table.
func (r *Renderer) Plan(advertiser string, s *core.CampaignStructure) string {
	var b strings.Builder

	b.WriteString(r.pal.title.Render(fmt.Sprintf("%s: %d line items, %s total",
		advertiser, len(s.LineItems), dollars(s.TotalBudget))))
	b.WriteString("\n")

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.pal.border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.pal.header
			}
			return r.pal.cell
		}).
		Headers("Name", "Content", "Geo", "Device", "Audience", "CPM", "Freq", "Budget")
	for _, li := range s.LineItems {
		t.Row(li.Name, li.Content, li.Geo, li.Device, li.Audience,
			"$"+strconv.FormatFloat(li.BidCPM, 'f', 2, 64), li.FrequencyCap, dollars(li.Budget))
	}
	b.WriteString(t.Render())
	b.WriteString("\n")

	if len(s.BudgetAllocation) > 0 {
		keys := make([]string, 0, len(s.BudgetAllocation))
		for k := range s.BudgetAllocation {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s %.0f%%", k, s.BudgetAllocation[k]*100)
		}
		b.WriteString(r.pal.muted.Render("Allocation: "+strings.Join(parts, " · ")) + "\n")
	}
	if s.BudgetNormalized {
		b.WriteString(r.pal.muted.Render("Line item budgets were scaled to match the total.") + "\n")
	}
	return b.String()
}

// Segments renders segment catalog entries as a table.
func (r *Renderer) Segments(segments []catalog.Segment) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.pal.border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.pal.header
			}
			return r.pal.cell
		}).
		Headers("ID", "Name", "Households", "Geo", "Tags")
	for _, s := range segments {
		t.Row(strconv.Itoa(s.ID), s.Name, humanize.Comma(s.Size), s.Geo, strings.Join(s.DemoTags, ", "))
	}
	return t.Render() + "\n"
}

func dollars(v float64) string {
	if v == float64(int64(v)) {
		return "$" + humanize.Comma(int64(v))
	}
	return "$" + humanize.CommafWithDigits(v, 2)
}
