// Package nav provides the navigation controller: it matches locations
// against a route table, resolves the route's component, and mounts it
// without a page reload.
//
// Navigations are last-request-wins. Each call to Navigate takes a sequence
// number; when its component finishes resolving, the navigation is only
// committed if no newer navigation has started in the meantime. Otherwise it
// returns ErrSuperseded and its result is discarded.
//
// One controller is installed process-wide with Install and retrieved with
// Active.
package nav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/vango-dev/cveboard/pkg/router"
	"github.com/vango-dev/cveboard/pkg/routepath"
	"github.com/vango-dev/cveboard/pkg/view"
)

// Resolved is a mounted route: the current route value.
type Resolved struct {
	// ID is the sequence number of the navigation that mounted it.
	ID uint64

	// Match holds the route and captured parameters.
	Match router.Match

	// Component is the resolved view.
	Component view.Component

	// Location is the application path with query string.
	Location string

	// Query is the parsed query string.
	Query url.Values

	// At is when the route was mounted.
	At time.Time
}

// Name returns the route name.
func (r Resolved) Name() string {
	return r.Match.Route.Name
}

// Param returns a captured path parameter.
func (r Resolved) Param(name string) string {
	return r.Match.Param(name)
}

// Data returns the render data for the mounted component.
func (r Resolved) Data(base string) view.Data {
	return view.Data{
		Title:    r.Match.Route.Name,
		BasePath: routepath.NormalizeBase(base),
		Path:     r.Match.Path,
		Params:   r.Match.Params,
		Query:    r.Query,
		Args:     r.Match.Args,
	}
}

// Controller navigates between the routes of a table.
type Controller struct {
	table      *router.Table
	base       string
	history    History
	logger     *slog.Logger
	middleware []Middleware

	mu      sync.Mutex
	seq     uint64
	current *Resolved
	subs    map[uint64]chan Resolved
	nextSub uint64
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a controller for table and starts listening for history
// traversal events. Call Close to stop it.
func New(table *router.Table, opts ...Option) *Controller {
	c := &Controller{
		table: table,
		base:  "/",
		subs:  make(map[uint64]chan Resolved),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.base = routepath.NormalizeBase(c.base)
	if c.history == nil {
		c.history = NewMemoryHistory("/")
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "nav")

	c.ctx, c.cancel = context.WithCancel(context.Background())
	go c.listen()
	return c
}

// Navigate navigates to target. It returns the mounted route, or an error:
// ErrNotFound if nothing matches, ErrNavigationRejected if the component
// failed to load, ErrSuperseded if a newer navigation won, or ctx.Err().
func (c *Controller) Navigate(ctx context.Context, target router.Target, opts ...NavigateOption) (Resolved, error) {
	target, action := prepare(target, opts)
	return c.navigate(ctx, target, action)
}

// NavigateTo is shorthand for Navigate with a literal path.
func (c *Controller) NavigateTo(ctx context.Context, path string, opts ...NavigateOption) (Resolved, error) {
	return c.Navigate(ctx, router.Path(path), opts...)
}

// Pending is a navigation started with Start.
type Pending struct {
	// ID is the navigation sequence number, 0 if it never started.
	ID uint64

	done chan struct{}
	res  Resolved
	err  error
}

// Done is closed when the navigation has finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the navigation finishes and returns its result, with
// the same errors as Navigate.
func (p *Pending) Wait() (Resolved, error) {
	<-p.done
	return p.res, p.err
}

// Start begins a navigation and returns without waiting for its component.
// The sequence number is taken before Start returns, so navigations started
// one after another are ordered for last-request-wins even though they
// resolve concurrently.
func (c *Controller) Start(ctx context.Context, target router.Target, opts ...NavigateOption) *Pending {
	p := &Pending{done: make(chan struct{})}
	target, action := prepare(target, opts)
	n, err := c.begin(ctx, target, action)
	if err != nil {
		p.err = err
		close(p.done)
		return p
	}
	p.ID = n.ID
	go func() {
		defer close(p.done)
		p.res, p.err = c.finish(n)
	}()
	return p
}

// prepare applies navigate options to target.
func prepare(target router.Target, opts []NavigateOption) (router.Target, Action) {
	var o NavigateOptions
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.Query) > 0 {
		q := url.Values{}
		for k, vs := range target.Query {
			q[k] = append(q[k], vs...)
		}
		for k, vs := range o.Query {
			q[k] = append(q[k], vs...)
		}
		target.Query = q
	}

	action := ActionPush
	if o.Replace {
		action = ActionReplace
	}
	return target, action
}

func (c *Controller) navigate(ctx context.Context, target router.Target, action Action) (Resolved, error) {
	n, err := c.begin(ctx, target, action)
	if err != nil {
		return Resolved{}, err
	}
	return c.finish(n)
}

// begin takes the next sequence number for a navigation.
func (c *Controller) begin(ctx context.Context, target router.Target, action Action) (*Navigation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	c.seq++
	return &Navigation{
		ID:      c.seq,
		Target:  target,
		Action:  action,
		From:    c.current,
		Started: time.Now(),
		ctx:     ctx,
	}, nil
}

// finish runs a begun navigation through the middleware chain.
func (c *Controller) finish(n *Navigation) (Resolved, error) {
	var mounted Resolved
	err := chain(c.middleware, n, func() error {
		r, err := c.run(n)
		mounted = r
		return err
	})
	if err != nil {
		c.logResult(n, err)
		return Resolved{}, err
	}
	c.logger.Debug("navigation committed",
		"id", n.ID,
		"route", mounted.Name(),
		"location", mounted.Location,
	)
	return mounted, nil
}

// run locates, matches, resolves and commits a navigation.
func (c *Controller) run(n *Navigation) (Resolved, error) {
	loc, err := c.table.Locate(n.Target)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	cleaned, err := routepath.CleanNav(loc)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: %q: %w", ErrInvalidTarget, loc, err)
	}
	n.Location = cleaned.Path
	if cleaned.Query != "" {
		n.Location += "?" + cleaned.Query
	}

	m, ok := c.table.Match(cleaned.Path)
	if !ok {
		return Resolved{}, fmt.Errorf("%w: %s", ErrNotFound, cleaned.Path)
	}
	n.Match = &m

	query, err := url.ParseQuery(cleaned.Query)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: query: %w", ErrInvalidTarget, err)
	}

	comp, err := m.Route.Component.Resolve(n.Context())
	if err != nil {
		if ctxErr := n.Context().Err(); ctxErr != nil {
			return Resolved{}, ctxErr
		}
		return Resolved{}, fmt.Errorf("%w: %s: %w", ErrNavigationRejected, m.Route.Name, err)
	}

	r := Resolved{
		ID:        n.ID,
		Match:     m,
		Component: comp,
		Location:  n.Location,
		Query:     query,
		At:        time.Now(),
	}
	if err := c.commit(n, r); err != nil {
		return Resolved{}, err
	}
	return r, nil
}

// commit mounts r unless a newer navigation has started.
func (c *Controller) commit(n *Navigation, r Resolved) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if n.ID != c.seq {
		return ErrSuperseded
	}

	switch {
	case n.Action == ActionPop:
	case n.Action == ActionReplace, c.current == nil, c.history.Location() == r.Location:
		c.history.Replace(r.Location)
	default:
		c.history.Push(r.Location)
	}

	c.current = &r
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- r
	}
	return nil
}

func (c *Controller) logResult(n *Navigation, err error) {
	attrs := []any{"id", n.ID, "target", n.Target.String(), "error", err}
	switch {
	case errors.Is(err, ErrSuperseded):
		c.logger.Debug("navigation superseded", attrs...)
	case errors.Is(err, ErrNotFound):
		c.logger.Info("navigation not found", attrs...)
	default:
		c.logger.Warn("navigation failed", attrs...)
	}
}

// listen handles history traversal events until the controller is closed.
func (c *Controller) listen() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.history.Events():
			if ev.Action != ActionPop {
				continue
			}
			// Errors are logged by finish. The history has already moved
			// and is left there; see Back.
			_, _ = c.navigate(c.ctx, router.Path(ev.Location), ActionPop)
		}
	}
}

// Back moves one history entry back. The route is mounted asynchronously
// when the traversal event is handled; use Subscribe to observe it.
//
// The history moves before the route resolves. If that navigation is
// rejected, not found or superseded, History().Location() stays on the new
// entry while Current() keeps the previously mounted route, as a browser's
// location bar does when a page fails to load. A later navigation commits
// against the moved history.
func (c *Controller) Back() bool {
	return c.history.Go(-1)
}

// Forward moves one history entry forward. It behaves like Back when the
// navigation fails.
func (c *Controller) Forward() bool {
	return c.history.Go(1)
}

// Current returns the mounted route, if any navigation has committed.
func (c *Controller) Current() (Resolved, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Resolved{}, false
	}
	return *c.current, true
}

// Subscribe returns a channel that receives the current route after every
// committed navigation. Slow subscribers only see the latest value. The
// returned function unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan Resolved, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Resolved, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	if c.current != nil {
		ch <- *c.current
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
}

// Routes returns the registered routes in order.
func (c *Controller) Routes() []router.Route {
	return c.table.Routes()
}

// Table returns the route table.
func (c *Controller) Table() *router.Table {
	return c.table
}

// Base returns the normalized base path.
func (c *Controller) Base() string {
	return c.base
}

// History returns the session history.
func (c *Controller) History() History {
	return c.history
}

// Href returns the base-prefixed URL for target, for use in links.
func (c *Controller) Href(target router.Target) (string, error) {
	loc, err := c.table.Locate(target)
	if err != nil {
		return "", err
	}
	return routepath.Join(c.base, loc), nil
}

// Match matches an observed URL path (including the base path) against the
// table.
func (c *Controller) Match(urlPath string) (router.Match, error) {
	path, err := routepath.Strip(c.base, urlPath)
	if err != nil {
		return router.Match{}, fmt.Errorf("%w: %s", ErrNotFound, urlPath)
	}
	m, ok := c.table.Match(path)
	if !ok {
		return router.Match{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return m, nil
}

// Close stops listening for history events and closes all subscriptions.
// Navigations still in flight return ErrClosed. A closed controller is
// uninstalled if it was the active one.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.mu.Unlock()

	Uninstall(c)
	c.cancel()
	<-c.done
}
