// Package routes provides the dashboard's route table and installs the
// navigation controller built on it.
//
// The table is fixed:
//
//	/           Home       eager
//	/cve-list   CVEList    lazy
//	/analysis   Analysis   lazy
//	/cve/:id    CVEDetail  lazy, id passed to the view
//
// Routes are matched in that order and the first match wins. Lazy views are
// fetched from the view source on first navigation and kept for the life of
// the process.
package routes

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/samber/lo"
	"github.com/vango-dev/cveboard/pkg/nav"
	"github.com/vango-dev/cveboard/pkg/router"
	"github.com/vango-dev/cveboard/pkg/view"
)

// Route names.
const (
	Home      = "Home"
	CVEList   = "CVEList"
	Analysis  = "Analysis"
	CVEDetail = "CVEDetail"
)

//go:embed views/*.html
var embedded embed.FS

// Definition describes one entry of the table before its view is resolved.
type Definition struct {
	Path string
	Name string
	File string
	Lazy bool

	args func(map[string]string) (any, error)
}

// DetailParams are the parameters the CVEDetail view receives as .Args.
type DetailParams struct {
	ID string `param:"id"`
}

var definitions = []Definition{
	{Path: "/", Name: Home, File: "home.html"},
	{Path: "/cve-list", Name: CVEList, File: "cve_list.html", Lazy: true},
	{Path: "/analysis", Name: Analysis, File: "analysis.html", Lazy: true},
	{Path: "/cve/:id", Name: CVEDetail, File: "cve_detail.html", Lazy: true, args: router.Decoder[DetailParams]()},
}

// Definitions returns the route definitions in match order.
func Definitions() []Definition {
	return append([]Definition(nil), definitions...)
}

// Files returns the view template files the table needs.
func Files() []string {
	return lo.Map(definitions, func(d Definition, _ int) string { return d.File })
}

// EmbeddedViews returns the view templates compiled into the binary.
func EmbeddedViews() view.Source {
	sub, err := fs.Sub(embedded, "views")
	if err != nil {
		panic(err)
	}
	return view.NewFSSource(sub)
}

// NewTable builds the route table over src. Eager views are loaded and
// parsed here, so a missing or broken Home template fails construction.
func NewTable(ctx context.Context, src view.Source) (*router.Table, error) {
	routes := make([]router.Route, 0, len(definitions))
	for _, d := range definitions {
		load := view.TemplateLoader(src, d.File)

		var res view.Resolver
		if d.Lazy {
			res = view.NewLazy(load)
		} else {
			comp, err := load(ctx)
			if err != nil {
				return nil, fmt.Errorf("routes: load %s: %w", d.Name, err)
			}
			res = view.Eager(comp)
		}
		routes = append(routes, router.Route{Path: d.Path, Name: d.Name, Component: res, Args: d.args})
	}
	return router.NewTable(routes...)
}

// New builds the table, creates a controller for basePath and installs it
// as the process-wide active controller. A previously installed controller
// is closed. A nil src uses the embedded views.
func New(ctx context.Context, basePath string, src view.Source, opts ...nav.Option) (*nav.Controller, error) {
	if src == nil {
		src = EmbeddedViews()
	}
	table, err := NewTable(ctx, src)
	if err != nil {
		return nil, err
	}

	c := nav.New(table, append([]nav.Option{nav.WithBase(basePath)}, opts...)...)
	if prev := nav.Install(c); prev != nil && prev != c {
		prev.Close()
	}
	return c, nil
}

// Detail returns the navigation target for one CVE.
func Detail(id string) router.Target {
	return router.Named(CVEDetail, map[string]string{"id": id})
}
