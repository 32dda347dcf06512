// Package view defines the components a route renders and how they are
// resolved.
//
// A route holds a Resolver rather than a component. Eager resolvers wrap a
// component that already exists; Lazy resolvers load their component on the
// first Resolve call and keep it for the rest of the process:
//
//	home, _ := view.NewTemplate("home.html", homeHTML)
//	routes := []router.Route{
//	    {Path: "/", Name: "Home", Component: view.Eager(home)},
//	    {Path: "/cve/:id", Name: "CVEDetail", Component: view.NewLazy(
//	        view.TemplateLoader(src, "cve_detail.html"),
//	    )},
//	}
//
// Components are fetched through a Source, which may be an embedded
// filesystem, a directory on disk, or an S3 bucket.
package view

import (
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/vango-dev/cveboard/pkg/routepath"
)

// Data is passed to a component when it is rendered.
type Data struct {
	// Title is the route name.
	Title string

	// BasePath is the application base path, for building links.
	BasePath string

	// Path is the matched application path (without base path).
	Path string

	// Params are the named segments captured from the path.
	Params map[string]string

	// Query is the parsed query string.
	Query url.Values

	// Args holds the route's typed parameters when the route decodes them.
	Args any
}

// Param returns a captured path parameter, or "" if absent.
func (d Data) Param(name string) string {
	return d.Params[name]
}

// Href joins an application path onto the base path.
func (d Data) Href(path string) string {
	return routepath.Join(d.BasePath, path)
}

// Component is a view that can be mounted for a route.
type Component interface {
	// Name identifies the component (usually its template file).
	Name() string

	// Render writes the component for the given data.
	Render(w io.Writer, data Data) error
}

// Template is a Component backed by an html/template.
type Template struct {
	name string
	tmpl *template.Template
}

// NewTemplate parses src as an html/template named name.
func NewTemplate(name string, src []byte) (*Template, error) {
	tmpl, err := template.New(name).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse view %s: %w", name, err)
	}
	return &Template{name: name, tmpl: tmpl}, nil
}

// Name implements Component.
func (t *Template) Name() string {
	return t.name
}

// Render implements Component.
func (t *Template) Render(w io.Writer, data Data) error {
	return t.tmpl.Execute(w, data)
}
