package router

import "net/url"

// Target is a navigation destination, given either as a literal path or as a
// route name with parameters.
type Target struct {
	// Path is a literal application path. Ignored when Name is set.
	Path string

	// Name selects a route by name.
	Name string

	// Params fill the named route's parameters.
	Params map[string]string

	// Query is appended to the resulting path.
	Query url.Values
}

// Path returns a Target for a literal path.
func Path(path string) Target {
	return Target{Path: path}
}

// Named returns a Target for the named route with params.
func Named(name string, params map[string]string) Target {
	return Target{Name: name, Params: cloneParams(params)}
}

// String returns a readable form of the target for logs.
func (t Target) String() string {
	if t.Name != "" {
		return "name:" + t.Name
	}
	return t.Path
}
