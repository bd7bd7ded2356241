package ripple

// Derived is a computed value: a pure function of observed state with a
// cached result. It stays lazy, re-evaluated like a getter on every read,
// until a reaction observes it directly or through other computeds; from then
// on the scheduler keeps the cache continuously fresh and reads are O(1).
type Derived[T any] struct {
	eng    *Engine
	n      *node
	value  T
	getter func() (T, error)
	equals func(a, b T) bool
}

// Computed creates a derived value whose change detection uses ==.
func Computed[T comparable](e *Engine, getter func() (T, error)) *Derived[T] {
	return ComputedEq(e, getter, func(a, b T) bool { return a == b })
}

// ComputedEq creates a derived value with a caller-supplied equality
// function. When a recompute produces an equal value, propagation stops here
// and downstream derivations are not rerun.
func ComputedEq[T any](e *Engine, getter func() (T, error), equals func(a, b T) bool) *Derived[T] {
	n := e.newNode(kindComputed, "")
	d := &Derived[T]{eng: e, n: n, getter: getter, equals: equals}
	n.run = d.recompute
	return d
}

// Named sets a diagnostic name and returns the derived value.
func (d *Derived[T]) Named(name string) *Derived[T] {
	d.n.name = name
	return d
}

func (d *Derived[T]) Name() string {
	return d.n.label()
}

// Version is bumped on every recompute that actually changed the value.
func (d *Derived[T]) Version() uint64 {
	return d.n.version
}

// recompute is the tagged-variant run body for computeds: evaluate the getter
// and report whether the cached value actually changed. The first successful
// run always counts as changed.
func (d *Derived[T]) recompute() (bool, error) {
	next, err := d.getter()
	if err != nil {
		return false, err
	}
	changed := d.n.version == 0 || !safeEquals(d.equals, d.value, next)
	d.value = next
	return changed, nil
}

// Value returns the current value, recomputing if needed. A lazy derived
// value is re-evaluated on every read; a reactive one is served from cache
// when clean and settled in dependency order otherwise (reads inside an open
// batch land on that path). An error returned by the getter is reported to
// every reader until a later recompute succeeds; the derivation stays stale
// in the meantime so each read retries.
func (d *Derived[T]) Value() (T, error) {
	n := d.n
	e := d.eng
	if n.disposed {
		panic(&DisposedError{Node: n.label(), Op: "read"})
	}
	if n.status == statusComputing {
		panic(e.cycleError(n))
	}
	if !n.reactive {
		e.runDerivation(n)
	} else if n.status != statusClean {
		e.settle(n)
	}
	e.recordRead(n)
	return d.value, n.lastErr
}

// Dispose removes the derivation from every observer set it belongs to.
// Idempotent; an in-flight run is never interrupted.
func (d *Derived[T]) Dispose() {
	d.eng.disposeNode(d.n)
}
