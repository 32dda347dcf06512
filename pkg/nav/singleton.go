package nav

import "sync/atomic"

var active atomic.Pointer[Controller]

// Install makes c the process-wide active controller and returns the one it
// replaced, if any.
func Install(c *Controller) *Controller {
	return active.Swap(c)
}

// Active returns the installed controller, or nil.
func Active() *Controller {
	return active.Load()
}

// Uninstall removes c if it is still the active controller.
func Uninstall(c *Controller) bool {
	return active.CompareAndSwap(c, nil)
}
