package fetch

// Governor tracks the set of non-terminal request ids and enforces the
// in-flight cap. Reserving a slot and allocating the request id happen in
// the same step, so two submissions can never both observe the same free
// slot.
//
// Like the rest of the subsystem, the Governor has exactly one mutator
// thread and carries no lock.
type Governor struct {
	max    int
	active map[uint64]struct{}
	nextID uint64
}

// NewGovernor creates a Governor with the given concurrency cap.
func NewGovernor(max int) *Governor {
	if max <= 0 {
		max = MaxConcurrent
	}
	return &Governor{
		max:    max,
		active: make(map[uint64]struct{}, max),
	}
}

// TryReserve reserves one concurrency slot and allocates the request id for
// it. Ids increase monotonically for the process lifetime and are never
// reused, even after release.
func (g *Governor) TryReserve() (uint64, bool) {
	if len(g.active) >= g.max {
		return 0, false
	}
	g.nextID++
	g.active[g.nextID] = struct{}{}
	return g.nextID, true
}

// Release frees the slot held by id. Called exactly once per request, when
// it reaches a terminal state. Releasing an unknown id is a no-op.
func (g *Governor) Release(id uint64) {
	delete(g.active, id)
}

// ReleaseAll frees every held slot. Used on shutdown.
func (g *Governor) ReleaseAll() {
	clear(g.active)
}

// ActiveCount returns the number of reserved slots.
func (g *Governor) ActiveCount() int { return len(g.active) }

// Active reports whether id currently holds a slot.
func (g *Governor) Active(id uint64) bool {
	_, ok := g.active[id]
	return ok
}
