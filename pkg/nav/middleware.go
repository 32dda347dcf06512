package nav

import (
	"context"
	"time"

	"github.com/vango-dev/cveboard/pkg/router"
)

// Navigation describes one navigation as it passes through middleware.
type Navigation struct {
	// ID is the navigation sequence number; later navigations have larger IDs.
	ID uint64

	// Target is what the caller asked for.
	Target router.Target

	// Location is the application path (with query) being navigated to.
	// Empty if the target could not be located.
	Location string

	// Action is how the history will change on commit.
	Action Action

	// Match is filled in once the location has matched a route.
	Match *router.Match

	// From is the route mounted when the navigation started, if any.
	From *Resolved

	// Started is when the navigation began.
	Started time.Time

	ctx context.Context
}

// Context returns the navigation's context.
func (n *Navigation) Context() context.Context {
	return n.ctx
}

// WithContext replaces the context used for the rest of the chain, e.g. to
// carry a tracing span.
func (n *Navigation) WithContext(ctx context.Context) {
	n.ctx = ctx
}

// RouteName returns the matched route name, or "" before a match.
func (n *Navigation) RouteName() string {
	if n.Match == nil {
		return ""
	}
	return n.Match.Route.Name
}

// Middleware wraps navigations.
type Middleware interface {
	// Handle processes the navigation and calls next to continue. The error
	// returned by next is the navigation's outcome; middleware should return
	// it unless it deliberately changes the result.
	Handle(nav *Navigation, next func() error) error
}

// MiddlewareFunc is a function adapter for Middleware.
type MiddlewareFunc func(nav *Navigation, next func() error) error

// Handle implements Middleware.
func (f MiddlewareFunc) Handle(nav *Navigation, next func() error) error {
	return f(nav, next)
}

// chain runs final through mw, outermost first.
func chain(mw []Middleware, nav *Navigation, final func() error) error {
	next := final
	for i := len(mw) - 1; i >= 0; i-- {
		m, inner := mw[i], next
		next = func() error { return m.Handle(nav, inner) }
	}
	return next()
}
