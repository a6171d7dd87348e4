package catalog

// VisitedSet is the run-scoped registry of category keys already dispatched
// to a crawl step. It is created once by the orchestrator, handed by
// reference to every descendant step, and destroyed exactly once on any
// termination path. Membership is monotonic: keys are only ever added.
//
// No locking: the crawl is strictly sequential, so at most one step touches
// the set at a time. A parallel crawl would have to add real mutual
// exclusion here first.
type VisitedSet struct {
	keys      map[string]struct{}
	destroyed bool
}

// NewVisitedSet returns an empty registry.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{keys: make(map[string]struct{})}
}

// Contains reports whether key was already dispatched this run.
func (v *VisitedSet) Contains(key string) bool {
	_, ok := v.keys[key]
	return ok
}

// Add records key as dispatched. Adding an existing key is a no-op.
func (v *VisitedSet) Add(key string) {
	v.keys[key] = struct{}{}
}

// Len returns the number of dispatched keys.
func (v *VisitedSet) Len() int {
	return len(v.keys)
}

// Destroy releases the registry. Only the step that owns the run may call
// it; repeated calls are no-ops so the owner's deferred cleanup and its
// signal path cannot double-release.
func (v *VisitedSet) Destroy() {
	if v.destroyed {
		return
	}
	v.destroyed = true
	v.keys = nil
}

// Destroyed reports whether Destroy has run.
func (v *VisitedSet) Destroyed() bool {
	return v.destroyed
}
