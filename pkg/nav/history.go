package nav

import "sync"

// Action describes how the history location changed.
type Action int

const (
	ActionPush    Action = iota // New entry appended
	ActionReplace               // Current entry replaced
	ActionPop                   // Moved through existing entries (back/forward)
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionPush:
		return "push"
	case ActionReplace:
		return "replace"
	case ActionPop:
		return "pop"
	default:
		return "unknown"
	}
}

// Event reports a history change.
type Event struct {
	Action   Action
	Location string
}

// History is a browser-style session history.
//
// Push and Replace are called by the controller when it commits a
// navigation and do not emit events, like pushState in a browser. Traversal
// (Go, Back, Forward) moves through existing entries and emits an ActionPop
// event on Events; the controller listens to that channel and mounts the
// route for the new location.
type History interface {
	// Location returns the current entry.
	Location() string

	// Push appends an entry after the current one, discarding forward entries.
	Push(location string)

	// Replace overwrites the current entry.
	Replace(location string)

	// Go moves delta entries and reports whether the move was possible.
	Go(delta int) bool

	// Len returns the number of entries.
	Len() int

	// Events delivers traversal events.
	Events() <-chan Event
}

// MemoryHistory is an in-memory History.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []string
	index   int
	events  chan Event
}

// eventBuffer bounds undelivered traversal events.
const eventBuffer = 32

// NewMemoryHistory creates a history with a single entry at location.
func NewMemoryHistory(location string) *MemoryHistory {
	if location == "" {
		location = "/"
	}
	return &MemoryHistory{
		entries: []string{location},
		events:  make(chan Event, eventBuffer),
	}
}

// Location implements History.
func (h *MemoryHistory) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// Push implements History.
func (h *MemoryHistory) Push(location string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], location)
	h.index++
}

// Replace implements History.
func (h *MemoryHistory) Replace(location string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = location
}

// Go implements History. The event is dropped if the buffer is full.
func (h *MemoryHistory) Go(delta int) bool {
	h.mu.Lock()
	next := h.index + delta
	if delta == 0 || next < 0 || next >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = next
	ev := Event{Action: ActionPop, Location: h.entries[next]}
	h.mu.Unlock()

	select {
	case h.events <- ev:
	default:
	}
	return true
}

// Back moves one entry back.
func (h *MemoryHistory) Back() bool { return h.Go(-1) }

// Forward moves one entry forward.
func (h *MemoryHistory) Forward() bool { return h.Go(1) }

// Len implements History.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Entries returns a copy of all entries and the current index.
func (h *MemoryHistory) Entries() ([]string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out, h.index
}

// Events implements History.
func (h *MemoryHistory) Events() <-chan Event {
	return h.events
}
