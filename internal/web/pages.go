package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"Picture-Story/server/internal/engine"
	"Picture-Story/server/internal/models"
)

//go:embed templates/*.tmpl templates/style.css
var templatesFS embed.FS

// Pages renders the HTML shell
type Pages struct {
	templates *template.Template
	css       template.CSS
}

// PageView feeds both the form and the result page
type PageView struct {
	CSS      template.CSS
	Warnings []string
	Error    string

	Accept   string
	Styles   []models.Style
	Selected models.Style

	Images   []ImageView
	Heading  string
	Story    string
	AudioSrc template.URL
}

type ImageView struct {
	Src     template.URL
	Alt     string
	Caption string
}

// NewPages parses the embedded templates
func NewPages() (*Pages, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	rawCSS, err := templatesFS.ReadFile("templates/style.css")
	if err != nil {
		return nil, err
	}
	return &Pages{
		templates: tmpl,
		css:       template.CSS(rawCSS),
	}, nil
}

// FormView is the empty upload form
func (p *Pages) FormView(selected models.Style, warnings ...string) PageView {
	if selected == "" {
		selected = models.AllStyles[0]
	}
	return PageView{
		CSS:      p.css,
		Warnings: warnings,
		Accept:   strings.Join(models.AllowedExtensions, ","),
		Styles:   models.AllStyles,
		Selected: selected,
	}
}

// ResultView renders a finished cycle. Invalid input falls back to the form.
func (p *Pages) ResultView(outcome *engine.CycleOutcome) PageView {
	if outcome.Status == models.CycleInvalidInput {
		return p.FormView(outcome.Style, outcome.Warnings...)
	}

	view := PageView{
		CSS:      p.css,
		Warnings: outcome.Warnings,
		Error:    outcome.Error,
		Heading:  outcome.Heading,
		Story:    outcome.Story,
	}
	for _, img := range outcome.Images {
		view.Images = append(view.Images, ImageView{
			Src:     template.URL(img.DataURL()),
			Alt:     img.Filename,
			Caption: fmt.Sprintf("%d. %s", img.Index+1, img.Filename),
		})
	}
	if outcome.Audio != nil {
		view.AudioSrc = template.URL(outcome.Audio.DataURL())
	}
	return view
}

// Render executes the named template and writes it with status. The status
// is only sent once the page rendered; a template failure answers 500.
func (p *Pages) Render(w http.ResponseWriter, status int, name string, view PageView) {
	var buf bytes.Buffer
	if err := p.templates.ExecuteTemplate(&buf, name, view); err != nil {
		slog.Error("failed to render page", "template", name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
