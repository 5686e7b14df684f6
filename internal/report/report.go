// Package report renders a user's values profile as a markdown or HTML
// document for export.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"github.com/purposenavigator/self-analyzation/internal/analysis"
)

// Report is one rendered values profile.
type Report struct {
	UserID      string
	GeneratedAt time.Time
	Profile     []analysis.LabeledAttribute
}

// New builds a report for a user's labeled profile.
func New(userID string, profile []analysis.LabeledAttribute) *Report {
	return &Report{
		UserID:      userID,
		GeneratedAt: time.Now().UTC(),
		Profile:     profile,
	}
}

// Markdown renders the report as a GFM document: one section per tier, each
// with a ranked table of attributes.
func (r *Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Values Profile\n\n")
	fmt.Fprintf(&b, "User: `%s`  \n", r.UserID)
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04 UTC"))

	if len(r.Profile) == 0 {
		b.WriteString("No analyzed conversations yet.\n")
		return b.String()
	}

	for _, tier := range []string{"high", "medium", "low"} {
		rows := r.tierRows(tier)
		if len(rows) == 0 {
			continue
		}

		fmt.Fprintf(&b, "## %s\n\n", strings.ToUpper(tier[:1])+tier[1:])
		b.WriteString("| Rank | Attribute | Mentions | Mean | Score | Explanation |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for rank, row := range rows {
			fmt.Fprintf(&b, "| %d | %s | %d | %.1f | %.1f | %s |\n",
				rank+1, row.Attribute, row.Count, row.Mean, row.RelevanceScore,
				strings.ReplaceAll(row.Explanation, "|", "\\|"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Report) tierRows(tier string) []analysis.LabeledAttribute {
	var rows []analysis.LabeledAttribute
	for _, row := range r.Profile {
		if row.Label == tier {
			rows = append(rows, row)
		}
	}
	return rows
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Values Profile</title>
<style>
body { font-family: -apple-system, sans-serif; max-width: 50rem; margin: 2rem auto; padding: 0 1rem; color: #1f2328; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #d1d9e0; padding: 0.4rem 0.6rem; text-align: left; }
th { background: #f6f8fa; }
</style>
</head>
<body>
{{.Content}}
</body>
</html>
`))

// HTML renders the report's markdown to a standalone HTML page.
func (r *Report) HTML() (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(htmlrenderer.WithUnsafe()),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(r.Markdown()), &body); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, map[string]any{
		"Content": template.HTML(body.String()),
	})
	if err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return page.String(), nil
}

// WriteFile writes the report to path, picking the format from the
// extension: .html renders HTML, anything else writes markdown.
func (r *Report) WriteFile(path string) error {
	var content string
	if filepath.Ext(path) == ".html" {
		html, err := r.HTML()
		if err != nil {
			return err
		}
		content = html
	} else {
		content = r.Markdown()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
