package router

import "errors"

// Route table errors.
var (
	// ErrNotFound is returned when no route matches a path.
	ErrNotFound = errors.New("router: no route matches path")

	// ErrDuplicateName is returned by NewTable when two routes share a name.
	ErrDuplicateName = errors.New("router: duplicate route name")

	// ErrInvalidPattern is returned by NewTable for a malformed path pattern.
	ErrInvalidPattern = errors.New("router: invalid route pattern")

	// ErrInvalidRoute is returned by NewTable for a route without a name or component.
	ErrInvalidRoute = errors.New("router: invalid route")

	// ErrUnknownRoute is returned when building a URL for an unregistered name.
	ErrUnknownRoute = errors.New("router: unknown route name")

	// ErrMissingParam is returned when building a URL without a required parameter.
	ErrMissingParam = errors.New("router: missing route parameter")
)
