package views

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"strconv"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/types"
)

const statusTemplate = "status.html"

// Renderer turns a reading into the public status page.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates. Call during startup; if it
// returns an error, do not start the server.
func NewRenderer() (*Renderer, error) {
	return loadFromFS(viewsFS, "templates")
}

// loadFromFS is split out so tests can feed broken template sets.
func loadFromFS(fsys fs.FS, dir string) (*Renderer, error) {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(statusTemplate).Funcs(template.FuncMap{
		"concentration": formatConcentration,
	}).ParseFS(sub, "*.html")
	if err != nil {
		return nil, err
	}
	if t := tmpl.Lookup(statusTemplate); t == nil || t.Tree == nil {
		return nil, fmt.Errorf("template %s not found in %s", statusTemplate, dir)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render returns a complete HTML document showing r. The output depends only
// on r.
func (rn *Renderer) Render(r types.Reading) ([]byte, error) {
	var buf bytes.Buffer
	if err := rn.tmpl.ExecuteTemplate(&buf, statusTemplate, r); err != nil {
		return nil, fmt.Errorf("render status page: %w", err)
	}
	return buf.Bytes(), nil
}

func formatConcentration(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
