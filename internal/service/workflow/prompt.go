package workflow

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"
)

//go:embed prompts/*.md.tmpl
var promptsFS embed.FS

var promptTemplates = template.Must(
	template.New("prompts").Funcs(templateFuncs()).ParseFS(promptsFS, "prompts/*.md.tmpl"),
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"join":    strings.Join,
		"dollars": dollars,
		"head": func(n int, s []string) []string {
			if len(s) > n {
				return s[:n]
			}
			return s
		},
	}
}

// renderPrompt executes the named template (file name without .md.tmpl).
func renderPrompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplates.ExecuteTemplate(&buf, name+".md.tmpl", data); err != nil {
		return "", fmt.Errorf("rendering prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// dollars formats an amount as "$250,000" (cents only when present).
func dollars(v float64) string {
	if v == float64(int64(v)) {
		return "$" + humanize.Comma(int64(v))
	}
	return "$" + humanize.CommafWithDigits(v, 2)
}

type insightsPromptParams struct {
	Advertiser string
	Objective  string
	Genres     []string
	Channels   []string
	Networks   []string
	Zips       []string
}

type profilePromptParams struct {
	Advertiser string
	Objective  string
}

type audiencePromptParams struct {
	Advertiser string
	Budget     float64
	Content    []string
	Networks   []string
	Geo        []string
	Taxonomy   []string
}

type lineItemsPromptParams struct {
	Advertiser string
	NamePrefix string
	Budget     float64
	Content    []string
	Geo        []string
	Devices    []string
	Segments   []string
}

type narratePromptParams struct {
	Title string
	Facts []string
}
