// Package templates renders the HTML fragments used in tooltips, popups
// and the Datastar side panel.
package templates

import (
	"bytes"
	"embed"
	"html/template"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed fragments/*.html
var embedded embed.FS

var printer = message.NewPrinter(language.English)

// Thousands formats n with comma separators, e.g. 12,345.
func Thousands(n int) string {
	return printer.Sprintf("%d", n)
}

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	// num prints a count without a trailing ".0".
	"num": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
	"thousands": Thousands,
	// css marks generated style values (gradients, hex colors) as safe.
	"css": func(s string) template.CSS {
		return template.CSS(s)
	},
}

// Renderer manages HTML fragment templates.
type Renderer struct {
	templates *template.Template
	mu        sync.RWMutex
}

// New creates a renderer from the *.html files in fragmentsDir.
func New(fragmentsDir string) (*Renderer, error) {
	tmpl, err := parseDir(fragmentsDir)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

// NewEmbedded creates a renderer from the fragments compiled into the binary.
func NewEmbedded() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(embedded, "fragments/*.html")
	if err != nil {
		return nil, eris.Wrap(err, "templates: parse embedded fragments")
	}
	return &Renderer{templates: tmpl}, nil
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", eris.Wrapf(err, "templates: render %s", name)
	}
	return buf.String(), nil
}

// Reload re-parses the templates in fragmentsDir. On error the current
// templates stay in use.
func (r *Renderer) Reload(fragmentsDir string) error {
	tmpl, err := parseDir(fragmentsDir)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}

func parseDir(dir string) (*template.Template, error) {
	pattern := filepath.Join(dir, "*.html")
	tmpl, err := template.New("").Funcs(funcMap).ParseGlob(pattern)
	if err != nil {
		return nil, eris.Wrapf(err, "templates: parse %s", pattern)
	}
	return tmpl, nil
}
