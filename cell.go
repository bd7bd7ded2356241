package ripple

// Cell is a single mutable observable slot. Reading it from inside a
// derivation body registers the cell as a dependency of that derivation;
// writes are deduplicated under the cell's equality function before any
// propagation happens.
type Cell[T any] struct {
	eng    *Engine
	n      *node
	value  T
	equals func(a, b T) bool
}

// Observable creates a cell that deduplicates writes with ==.
func Observable[T comparable](e *Engine, initial T) *Cell[T] {
	return ObservableEq(e, initial, func(a, b T) bool { return a == b })
}

// ObservableEq creates a cell with a caller-supplied equality function.
func ObservableEq[T any](e *Engine, initial T, equals func(a, b T) bool) *Cell[T] {
	n := e.newNode(kindCell, "")
	n.version = 1
	return &Cell[T]{eng: e, n: n, value: initial, equals: equals}
}

// Named sets a diagnostic name and returns the cell.
func (c *Cell[T]) Named(name string) *Cell[T] {
	c.n.name = name
	return c
}

func (c *Cell[T]) Name() string {
	return c.n.label()
}

// Version is bumped on every write that actually changed the value.
func (c *Cell[T]) Version() uint64 {
	return c.n.version
}

// Value returns the current value. Never triggers recomputation of anything.
func (c *Cell[T]) Value() T {
	if c.n.disposed {
		panic(&DisposedError{Node: c.n.label(), Op: "read"})
	}
	c.eng.recordRead(c.n)
	return c.value
}

// SetValue stores v and propagates staleness to every observer, transitively.
// Outside a batch the recompute walk runs before SetValue returns; a write
// equal to the current value is a complete no-op.
func (c *Cell[T]) SetValue(v T) {
	e := c.eng
	e.checkAffinity()
	if c.n.disposed {
		panic(&DisposedError{Node: c.n.label(), Op: "write"})
	}
	if safeEquals(c.equals, c.value, v) {
		return
	}
	c.value = v
	c.n.version++
	e.markObservers(c.n, statusStale)
	if e.batchDepth == 0 {
		e.flush()
	}
}

// Dispose releases the cell's observer set; further reads and writes panic.
// Idempotent.
func (c *Cell[T]) Dispose() {
	c.eng.disposeNode(c.n)
}

// safeEquals runs a user-supplied equality function, treating a panic as
// "values differ" so a broken comparison can never mask a real update.
func safeEquals[T any](equals func(a, b T) bool, a, b T) (eq bool) {
	defer func() {
		if r := recover(); r != nil {
			eq = false
		}
	}()
	return equals(a, b)
}
