package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
)

//go:embed templates static
var files embed.FS

// Static holds the assets served under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// TemplateCache holds every page parsed together with the base layout,
// keyed by file name.
type TemplateCache map[string]*template.Template

func NewTemplateCache() (TemplateCache, error) {
	tmplCache := make(TemplateCache)

	pages, err := fs.Glob(files, "templates/pages/*.tmpl")
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		name := path.Base(page)
		ts, err := template.New(name).ParseFS(files, "templates/base.html.tmpl", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}

		tmplCache[name] = ts
	}

	return tmplCache, nil
}

func (tc TemplateCache) Render(w io.Writer, tmplName string, data any) error {
	tmpl, ok := tc[tmplName]
	if !ok {
		return fmt.Errorf("template %q not in cache", tmplName)
	}

	return tmpl.ExecuteTemplate(w, "base", data)
}
