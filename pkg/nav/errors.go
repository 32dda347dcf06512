package nav

import (
	"errors"

	"github.com/vango-dev/cveboard/pkg/router"
)

// Navigation errors.
var (
	// ErrNotFound is returned when the target matches no route.
	ErrNotFound = router.ErrNotFound

	// ErrNavigationRejected is returned when the route's component could not
	// be resolved. The underlying load error is wrapped alongside it.
	ErrNavigationRejected = errors.New("nav: navigation rejected")

	// ErrSuperseded is returned when a newer navigation started before this
	// one finished. The superseded navigation is never mounted.
	ErrSuperseded = errors.New("nav: navigation superseded")

	// ErrInvalidTarget is returned for targets that cannot be turned into a path.
	ErrInvalidTarget = errors.New("nav: invalid navigation target")

	// ErrClosed is returned after the controller has been closed.
	ErrClosed = errors.New("nav: controller closed")
)
