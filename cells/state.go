package cells

import (
	"sort"
	"sync"
	"time"
)

// LayoutState is the latest known state of one tracked layout: its
// rectangles, the boundaries computed for them, and the fingerprint the
// computation was memoized under.
type LayoutState struct {
	Name        string    `json:"name"`
	Rects       []Rect    `json:"rects"`
	Lines       []Line    `json:"lines"`
	Fingerprint string    `json:"fingerprint"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LayoutTracker tracks named layouts and their computed boundaries for the
// HTTP and MQTT surfaces. Updates are memoized on the layout fingerprint so
// a stream of identical rectangle sets (an interactive editor publishing on
// every drag-move) recomputes only when the geometry actually changes.
type LayoutTracker struct {
	mu      sync.RWMutex
	layouts map[string]*LayoutState
	opts    Options
}

// NewLayoutTracker creates an empty tracker using default pipeline options.
func NewLayoutTracker() *LayoutTracker {
	return NewLayoutTrackerWithOptions(Options{})
}

// NewLayoutTrackerWithOptions creates a tracker whose computations use the
// given pipeline options.
func NewLayoutTrackerWithOptions(opts Options) *LayoutTracker {
	return &LayoutTracker{
		layouts: make(map[string]*LayoutState),
		opts:    opts,
	}
}

// Update stores new rectangles for a layout and returns the boundary lines.
// When the fingerprint matches the stored state the cached lines are returned
// and recomputed reports false. Validation errors leave the stored state
// untouched.
func (t *LayoutTracker) Update(name string, rects []Rect) (lines []Line, recomputed bool, err error) {
	fp := Fingerprint(rects)

	t.mu.RLock()
	if st, ok := t.layouts[name]; ok && st.Fingerprint == fp {
		lines = st.Lines
		t.mu.RUnlock()
		return lines, false, nil
	}
	t.mu.RUnlock()

	lines, err = CalculateBoundariesWithOptions(rects, t.opts)
	if err != nil {
		return nil, false, err
	}

	stored := make([]Rect, len(rects))
	copy(stored, rects)

	t.mu.Lock()
	t.layouts[name] = &LayoutState{
		Name:        name,
		Rects:       stored,
		Lines:       lines,
		Fingerprint: fp,
		UpdatedAt:   time.Now(),
	}
	t.mu.Unlock()

	return lines, true, nil
}

// Get returns a copy of the named layout's state.
func (t *LayoutTracker) Get(name string) (*LayoutState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.layouts[name]
	if !ok {
		return nil, false
	}
	cp := *st
	return &cp, true
}

// Names returns the tracked layout names, sorted.
func (t *LayoutTracker) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.layouts))
	for name := range t.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasLayouts reports whether at least one layout is tracked.
func (t *LayoutTracker) HasLayouts() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.layouts) > 0
}
