package ripple

// markObservers is the push half of propagation. The source's direct
// observers are raised to target (stale for a definite change); everything
// further downstream only learns a dependency might have changed and is
// marked possibly stale, to be resolved by the pull walk in settle. Reactions
// are queued for the next flush exactly once per batch.
//
// An observer that is already non-clean has usually broadcast to its own
// observers in an earlier pass, so recursion normally stops there. Two
// exceptions: a node whose last run errored stayed stale across the previous
// flush, so its subtree must be re-broadcast or downstream reactions would
// never be re-queued; a node marked while its body is running is flagged
// dirtied so the run lands stale instead of clean and the queued entry
// re-settles against the fresh write.
func (e *Engine) markObservers(src *node, target status) {
	src.observers.Each(func(id nodeID) bool {
		n := e.arena[id]
		if n.disposed {
			return false
		}
		wasClean := n.status == statusClean
		if n.status == statusComputing {
			n.dirtied = true
		} else if n.status < target {
			n.status = target
		}
		if n.kind == kindReaction {
			if !n.queued {
				n.queued = true
				e.pending = append(e.pending, n.id)
			}
		} else if wasClean || n.lastErr != nil {
			e.markObservers(n, statusPossiblyStale)
		}
		return false
	})
}

// shallowMark upgrades direct observers from possibly stale to stale after a
// recompute produced a genuinely different value. No recursion: deeper nodes
// are already at least possibly stale from the original mark pass.
func (e *Engine) shallowMark(src *node) {
	src.observers.Each(func(id nodeID) bool {
		n := e.arena[id]
		if !n.disposed && n.status == statusPossiblyStale {
			n.status = statusStale
		}
		return false
	})
}

// settle is the pull half: bring n up to date by first settling its reactive
// dependencies in recorded read order. A possibly-stale node whose
// dependencies all turn out unchanged is downgraded to clean without running
// its body; a stale one reruns.
func (e *Engine) settle(n *node) error {
	if n.disposed || n.status == statusClean {
		return nil
	}
	if n.status == statusComputing {
		panic(e.cycleError(n))
	}
	if n.status == statusPossiblyStale {
		for _, id := range n.deps {
			dep := e.arena[id]
			if dep.kind == kindCell || !dep.reactive {
				continue
			}
			if err := e.settle(dep); err != nil {
				n.status = statusStale
				break
			}
			if n.status == statusStale {
				break
			}
		}
		if n.status == statusPossiblyStale {
			n.status = statusClean
			return nil
		}
	}
	return e.runDerivation(n)
}

// maxReactionRuns bounds how often a single reaction may be rescheduled
// within one flush before the engine gives up on convergence.
const maxReactionRuns = 100

// flush drains the pending reaction queue. Reactions run in scheduling order;
// a reaction whose body writes observables extends the queue and the walk
// continues until it is empty. Each reaction's error is routed to the error
// callback in isolation, never aborting the rest of the queue.
func (e *Engine) flush() {
	if e.flushing {
		return
	}
	e.flushing = true
	defer func() { e.flushing = false }()

	var runs map[nodeID]int
	for len(e.pending) > 0 {
		id := e.pending[0]
		e.pending = e.pending[1:]
		n := e.arena[id]
		n.queued = false
		if n.disposed {
			continue
		}
		if runs == nil {
			runs = make(map[nodeID]int)
		}
		runs[id]++
		if runs[id] > maxReactionRuns {
			panic("ripple: " + n.label() + " keeps scheduling itself; reaction writes never converge")
		}
		if err := e.settle(n); err != nil && e.onError != nil {
			e.onError(&reactionRef{n: n}, err)
		}
	}
}
