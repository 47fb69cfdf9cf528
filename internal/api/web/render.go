package web

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"ossy/internal/domain/token"
	"ossy/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names
const (
	pageIndex  = "index"
	pageResult = "result"
)

// Renderer executes the embedded pages inside the shared layout
type Renderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*Renderer)(nil)

// NewRenderer parses the embedded page templates
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"available": func(v string) bool { return v != "" && v != token.NotAvailable },
	}

	r := &Renderer{pages: map[string]*template.Template{}}
	for _, name := range []string{pageIndex, pageResult} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "parse page %s", name)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render implements echo.Renderer
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "page %s", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
