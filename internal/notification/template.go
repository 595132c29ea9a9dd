package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer turns an envelope into an HTML body.
type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

func (r *Renderer) Render(env Envelope) (string, error) {
	if r.templates.Lookup(string(env.Template)) == nil {
		return "", fmt.Errorf("unknown mail template %q", env.Template)
	}
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, string(env.Template), env.Data); err != nil {
		return "", fmt.Errorf("render %s: %w", env.Template, err)
	}
	return buf.String(), nil
}
