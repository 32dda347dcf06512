// Package router implements the ordered route table used for client-side
// navigation.
//
// The table provides:
//   - Static and named-parameter path patterns ("/cve/:id")
//   - Optional parameter type constraints ("/cve/:id:int")
//   - First-match-wins matching over the registration order
//   - Unique route names and URL building by name
//   - Parameter decoding into tagged structs
//
// # Patterns
//
// A pattern is a "/"-separated list of segments. A segment starting with ":"
// matches exactly one path segment and binds its decoded value under that
// name; every other segment must match literally:
//
//	/              → matches "/" only
//	/cve-list      → matches "/cve-list"
//	/cve/:id       → matches "/cve/42" with id = "42"
//	/cve/:id:int   → matches "/cve/42" but not "/cve/abc"
//
// Wildcard, optional and nested segments are not supported.
//
// # Matching
//
// Match walks the routes in the order they were given to NewTable and returns
// the first route whose pattern matches. When patterns overlap, the earlier
// registration wins; put literal routes before parameterized ones that could
// also match them.
//
// # Usage
//
//	t, err := router.NewTable(
//	    router.Route{Path: "/", Name: "Home", Component: home},
//	    router.Route{Path: "/cve/:id", Name: "CVEDetail", Component: detail},
//	)
//
//	m, ok := t.Match("/cve/42")
//	// m.Route.Name == "CVEDetail", m.Params["id"] == "42"
//
//	href, _ := t.URL("CVEDetail", map[string]string{"id": "42"})
//	// href == "/cve/42"
package router
