package router

import (
	"fmt"
	"maps"

	"github.com/samber/lo"
	"github.com/vango-dev/cveboard/pkg/routepath"
	"github.com/vango-dev/cveboard/pkg/view"
)

// Route associates a path pattern with a named view.
type Route struct {
	// Path is the pattern, e.g. "/cve/:id".
	Path string

	// Name identifies the route; unique within a Table.
	Name string

	// Component resolves the view to mount.
	Component view.Resolver

	// Args, if set, decodes the captured parameters into the typed value
	// handed to the view. A path whose parameters fail to decode does not
	// match the route.
	Args func(params map[string]string) (any, error)
}

// Params returns the parameter names declared by the route's pattern.
func (r Route) Params() []string {
	p, err := compilePattern(r.Path)
	if err != nil {
		return nil
	}
	return p.paramNames()
}

// Match is the result of matching a path against a Table.
type Match struct {
	// Route is the matched route.
	Route Route

	// Path is the application path that was matched.
	Path string

	// Params are the captured parameters (nil for static routes).
	Params map[string]string

	// Args is the route's decoded parameter value, nil without Route.Args.
	Args any
}

// Param returns a captured parameter value.
func (m Match) Param(name string) string {
	return m.Params[name]
}

type entry struct {
	route   Route
	pattern pattern
}

// Table is an immutable, ordered set of routes.
type Table struct {
	entries []entry
	byName  map[string]int
}

// NewTable validates and compiles routes in order. Route names must be
// unique and non-empty, every pattern must compile and every route must have
// a component.
func NewTable(routes ...Route) (*Table, error) {
	t := &Table{
		entries: make([]entry, 0, len(routes)),
		byName:  make(map[string]int, len(routes)),
	}

	for _, r := range routes {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: route %q has no name", ErrInvalidRoute, r.Path)
		}
		if r.Component == nil {
			return nil, fmt.Errorf("%w: route %q has no component", ErrInvalidRoute, r.Name)
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, r.Name)
		}

		p, err := compilePattern(r.Path)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", r.Name, err)
		}

		t.byName[r.Name] = len(t.entries)
		t.entries = append(t.entries, entry{route: r, pattern: p})
	}

	return t, nil
}

// MustTable is like NewTable but panics on error.
func MustTable(routes ...Route) *Table {
	t, err := NewTable(routes...)
	if err != nil {
		panic(err)
	}
	return t
}

// Routes returns the registered routes in order.
func (t *Table) Routes() []Route {
	return lo.Map(t.entries, func(e entry, _ int) Route { return e.route })
}

// Names returns the route names in order.
func (t *Table) Names() []string {
	return lo.Map(t.entries, func(e entry, _ int) string { return e.route.Name })
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.entries)
}

// Lookup returns the route registered under name.
func (t *Table) Lookup(name string) (Route, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Route{}, false
	}
	return t.entries[i].route, true
}

// Match returns the first route whose pattern matches path. path is an
// application path (base path already removed); it is cleaned before
// matching and any query string is ignored.
func (t *Table) Match(path string) (Match, bool) {
	cleaned, err := routepath.Clean(path)
	if err != nil {
		return Match{}, false
	}
	segs, err := routepath.Segments(cleaned.Path)
	if err != nil {
		return Match{}, false
	}

	for _, e := range t.entries {
		params, ok := e.pattern.match(segs)
		if !ok {
			continue
		}
		m := Match{Route: e.route, Path: cleaned.Path, Params: params}
		if e.route.Args != nil {
			args, err := e.route.Args(params)
			if err != nil {
				continue
			}
			m.Args = args
		}
		return m, true
	}
	return Match{}, false
}

// URL builds the application path for the named route.
func (t *Table) URL(name string, params map[string]string) (string, error) {
	i, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	return t.entries[i].pattern.build(params)
}

// Locate turns a Target into an application path with its query string.
func (t *Table) Locate(target Target) (string, error) {
	path := target.Path
	if target.Name != "" {
		p, err := t.URL(target.Name, target.Params)
		if err != nil {
			return "", err
		}
		path = p
	}
	if len(target.Query) > 0 {
		path += "?" + target.Query.Encode()
	}
	return path, nil
}

// cloneParams copies a parameter map so callers can't mutate shared state.
func cloneParams(params map[string]string) map[string]string {
	if params == nil {
		return nil
	}
	return maps.Clone(params)
}
