package view

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// State is the load state of a Resolver.
type State int

const (
	Pending State = iota // Not requested yet
	Loading              // Load in progress
	Ready                // Component available
	Error                // Last load failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Resolver produces the component for a route.
type Resolver interface {
	// Resolve returns the component, loading it if necessary.
	Resolve(ctx context.Context) (Component, error)

	// State reports the current load state.
	State() State

	// Deferred reports whether the component is loaded on demand.
	Deferred() bool
}

// LoadFunc loads a component. It is called by Lazy at most once per
// successful load.
type LoadFunc func(ctx context.Context) (Component, error)

type eager struct {
	c Component
}

// Eager returns a Resolver for a component that is already available.
func Eager(c Component) Resolver {
	return &eager{c: c}
}

func (e *eager) Resolve(context.Context) (Component, error) { return e.c, nil }
func (e *eager) State() State                               { return Ready }
func (e *eager) Deferred() bool                             { return false }

// Lazy is a memoized Resolver. The first Resolve runs the load function;
// concurrent callers share that one load. A successful result is kept for the
// lifetime of the Lazy. A failed load is reported to every waiting caller and
// is not cached, so a later Resolve tries again.
type Lazy struct {
	load  LoadFunc
	group singleflight.Group

	mu    sync.Mutex
	state State
	comp  Component
	err   error
	loads int
}

// NewLazy creates a Lazy resolver around load.
func NewLazy(load LoadFunc) *Lazy {
	return &Lazy{load: load}
}

// Resolve returns the cached component or loads it. If ctx is cancelled while
// waiting, Resolve returns ctx.Err(); the load itself keeps running and its
// result is still cached for the next caller.
func (l *Lazy) Resolve(ctx context.Context) (Component, error) {
	l.mu.Lock()
	if l.state == Ready {
		c := l.comp
		l.mu.Unlock()
		return c, nil
	}
	l.mu.Unlock()

	ch := l.group.DoChan("load", func() (any, error) {
		return l.run(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Component), nil
	}
}

func (l *Lazy) run(ctx context.Context) (Component, error) {
	l.mu.Lock()
	if l.state == Ready {
		c := l.comp
		l.mu.Unlock()
		return c, nil
	}
	l.state = Loading
	l.loads++
	l.mu.Unlock()

	c, err := l.load(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.state = Error
		l.err = err
		return nil, err
	}
	l.state = Ready
	l.comp = c
	l.err = nil
	return c, nil
}

// State implements Resolver.
func (l *Lazy) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Deferred implements Resolver.
func (l *Lazy) Deferred() bool { return true }

// Err returns the error from the last failed load, if any.
func (l *Lazy) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Loads returns how many times the load function has been invoked.
func (l *Lazy) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}
