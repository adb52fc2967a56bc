// Package report renders finished research sessions as markdown, HTML and
// terminal text.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/cpunion/dexbot/pkg/research"
	"github.com/cpunion/dexbot/pkg/types"
)

// DefaultWidth is the terminal word wrap used when none is given.
const DefaultWidth = 80

// Markdown returns the report followed by a sources section listing its
// citations.
func Markdown(s *research.State) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(s.Report))
	b.WriteString("\n")
	if len(s.Citations) > 0 {
		b.WriteString("\n## Sources\n\n")
		for _, c := range s.Citations {
			b.WriteString(citationLine(c))
		}
	}
	return b.String()
}

func citationLine(c types.Citation) string {
	if c.ToolName == "" {
		return fmt.Sprintf("- [%d] %s\n", c.Index, c.Query)
	}
	return fmt.Sprintf("- [%d] %s (`%s`)\n", c.Index, c.Query, c.ToolName)
}

// HTMLFragment converts the markdown report to HTML. Raw HTML in the report
// is dropped.
func HTMLFragment(s *research.State) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank | mdhtml.SkipHTML,
	})
	return markdown.ToHTML([]byte(Markdown(s)), p, r)
}

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<article>
{{.Body}}
</article>
</body>
</html>
`))

// HTML returns a standalone page for the session's report.
func HTML(s *research.State) ([]byte, error) {
	title := s.Prompt
	if title == "" {
		title = "Research report"
	}
	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{title, template.HTML(HTMLFragment(s))})
	if err != nil {
		return nil, fmt.Errorf("render report page: %w", err)
	}
	return buf.Bytes(), nil
}

// TerminalOptions controls terminal rendering.
type TerminalOptions struct {
	Width int    // word wrap, DefaultWidth when zero
	Style string // glamour style name; empty picks one from the terminal
}

// Terminal renders the report for display in a terminal.
func Terminal(s *research.State, opts TerminalOptions) (string, error) {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	style := glamour.WithAutoStyle()
	if opts.Style != "" {
		style = glamour.WithStandardStyle(opts.Style)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(opts.Width))
	if err != nil {
		return "", fmt.Errorf("create terminal renderer: %w", err)
	}
	out, err := r.Render(Markdown(s))
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return out, nil
}
