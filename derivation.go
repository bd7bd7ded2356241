package ripple

// runDerivation evaluates a derivation body under a fresh tracking frame and
// reconciles its subscriptions against the reads the body just made. On
// success the node lands clean; on error (or a panic escaping the body) it
// lands stale so the next read or flush retries. Reentrant evaluation of a
// node still marked computing is a dependency cycle and panics.
func (e *Engine) runDerivation(n *node) error {
	if n.status == statusComputing {
		panic(e.cycleError(n))
	}
	n.status = statusComputing
	e.beginTracking(n)
	done := false
	defer func() {
		if !done {
			e.endTracking()
			n.status = statusStale
			n.dirtied = false
		}
	}()
	changed, err := n.run()
	done = true
	f := e.endTracking()
	// a body that disposed its own node must not resubscribe
	if !n.disposed {
		e.reconcile(n, f)
	}
	if err != nil {
		n.status = statusStale
		n.dirtied = false
		n.lastErr = err
		return err
	}
	n.lastErr = nil
	if n.dirtied {
		// a dependency was written while the body ran; land stale so the
		// queued entry re-settles against the fresh value
		n.dirtied = false
		n.status = statusStale
	} else {
		n.status = statusClean
	}
	if changed {
		n.version++
		e.shallowMark(n)
	}
	return nil
}

// reconcile diffs a derivation's previous dependency list against the frame's
// ordered reads: stale edges are unsubscribed, new edges subscribed. Sources
// gaining a reactive observer are promoted; sources losing their last one are
// demoted back to lazy.
func (e *Engine) reconcile(n *node, f *frame) {
	for _, id := range n.deps {
		if f.seen.Contains(id) {
			continue
		}
		src := e.arena[id]
		src.observers.Remove(n.id)
		e.maybeDemote(src)
	}
	for _, id := range f.reads {
		if n.depSet.Contains(id) {
			continue
		}
		src := e.arena[id]
		src.observers.Add(n.id)
		if n.reactive {
			e.promote(src)
		}
	}
	n.deps = f.reads
	n.depSet = f.seen
}

// promote switches a lazy computed, and everything it depends on, into
// reactive mode: from now on the scheduler keeps its cache fresh.
func (e *Engine) promote(src *node) {
	if src.kind != kindComputed || src.reactive {
		return
	}
	src.reactive = true
	for _, id := range src.deps {
		e.promote(e.arena[id])
	}
}

// maybeDemote drops a computed back to lazy mode once no reactive observer
// remains, then re-examines its own sources the same way.
func (e *Engine) maybeDemote(src *node) {
	if src.kind != kindComputed || !src.reactive {
		return
	}
	held := false
	src.observers.Each(func(id nodeID) bool {
		o := e.arena[id]
		if !o.disposed && (o.kind == kindReaction || o.reactive) {
			held = true
			return true
		}
		return false
	})
	if held {
		return
	}
	src.reactive = false
	for _, id := range src.deps {
		e.maybeDemote(e.arena[id])
	}
}

// disposeNode detaches a node from the graph: it is removed from the observer
// set of every source it reads, its own observer set is cleared, and further
// reads or writes through its handle panic. Idempotent.
func (e *Engine) disposeNode(n *node) {
	e.checkAffinity()
	if n.disposed {
		return
	}
	n.disposed = true
	for _, id := range n.deps {
		src := e.arena[id]
		src.observers.Remove(n.id)
		e.maybeDemote(src)
	}
	n.deps = nil
	if n.depSet != nil {
		n.depSet.Clear()
	}
	n.observers.Clear()
	n.run = nil
}
