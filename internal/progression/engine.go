package progression

// Engine tracks the current-item pointer of one round. Pure pointer and
// sequence logic, no I/O; the round state machine persists the index and
// rebuilds an Engine from it on every request.
type Engine struct {
	total   int
	current int
	// strict locks every item except the current one (coding rounds).
	// Non-strict allows reviewing already-answered items, but answering
	// out of order is still impossible: only Advance moves the pointer.
	strict bool
}

func New(total int, strict bool) *Engine {
	return &Engine{total: total, strict: strict}
}

// Resume rebuilds an engine at a persisted index. Indexes beyond the
// sequence are clamped to the exhausted position.
func Resume(total, current int, strict bool) *Engine {
	if current < 0 {
		current = 0
	}
	if current > total {
		current = total
	}
	return &Engine{total: total, current: current, strict: strict}
}

// Current returns the index of the only actionable item, or -1 when the
// sequence is exhausted.
func (e *Engine) Current() int {
	if e.Done() {
		return -1
	}
	return e.current
}

func (e *Engine) Done() bool {
	return e.current >= e.total
}

func (e *Engine) Total() int { return e.total }

func (e *Engine) Remaining() int {
	if e.Done() {
		return 0
	}
	return e.total - e.current
}

// Advance moves the pointer forward by exactly one and returns the new
// index, or -1 when the sequence is now exhausted. The pointer never moves
// backwards.
func (e *Engine) Advance() int {
	if e.Done() {
		return -1
	}
	e.current++
	if e.Done() {
		return -1
	}
	return e.current
}

// IsLocked reports whether the item at index is not actionable. Under the
// strict policy every index except the current one is locked; otherwise
// answered items (index < current) stay open for review.
func (e *Engine) IsLocked(index int) bool {
	if index < 0 || index >= e.total {
		return true
	}
	if e.strict {
		return index != e.current
	}
	return index > e.current
}
