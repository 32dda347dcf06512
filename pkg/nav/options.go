package nav

import (
	"log/slog"
	"net/url"
)

// Option configures a Controller.
type Option func(*Controller)

// WithBase sets the application base path used by Href.
func WithBase(base string) Option {
	return func(c *Controller) {
		c.base = base
	}
}

// WithHistory sets the session history. Defaults to a MemoryHistory at "/".
func WithHistory(h History) Option {
	return func(c *Controller) {
		c.history = h
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithMiddleware appends navigation middleware. Middleware runs in the order
// given, outermost first.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *Controller) {
		c.middleware = append(c.middleware, mw...)
	}
}

// NavigateOptions configures a single navigation.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Query is merged into the target's query string.
	Query url.Values
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithQuery adds query parameters to the navigation URL.
func WithQuery(q url.Values) NavigateOption {
	return func(o *NavigateOptions) {
		if o.Query == nil {
			o.Query = url.Values{}
		}
		for k, vs := range q {
			o.Query[k] = append(o.Query[k], vs...)
		}
	}
}
