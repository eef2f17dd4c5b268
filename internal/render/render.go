package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/buildwatch/buildwatch/internal/dashboard"
)

//go:embed templates/dashboard.html.tmpl
var templates embed.FS

// Renderer holds the parsed dashboard template.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("dashboard.html.tmpl").
		Funcs(funcMap()).
		ParseFS(templates, "templates/dashboard.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Dashboard writes the HTML front page for the given context bundle.
func (r *Renderer) Dashboard(w io.Writer, page *dashboard.Page) error {
	return r.tmpl.Execute(w, page)
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"firstLine":       firstLine,
		"committerName":   committerName,
		"formatTimestamp": formatTimestamp,
		"formatTime":      formatTime,
	}
}

// firstLine returns the first line of a commit message.
func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}

// committerName strips the trailing "<email>" from an author string.
func committerName(author string) string {
	name, _, _ := strings.Cut(author, " <")
	return strings.TrimSpace(name)
}

// formatTimestamp renders a unix-seconds timestamp as an absolute date plus a
// humanized distance, e.g. "2026-08-25 14:03 UTC, 2 hours ago".
func formatTimestamp(unix int64) string {
	return formatTime(time.Unix(unix, 0).UTC())
}

func formatTime(t time.Time) string {
	return fmt.Sprintf("%s, %s", t.UTC().Format("2006-01-02 15:04 UTC"), humanize.Time(t))
}
