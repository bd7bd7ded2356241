package ripple

// Autorun runs fn immediately under tracking and reruns it whenever one of
// the observables it read last time changes. Every computed it reads,
// directly or transitively, is promoted to reactive mode. The returned
// dispose function is idempotent; errors returned by fn go to the engine's
// error callback and never abort sibling reactions.
func Autorun(e *Engine, fn func() error) (dispose func()) {
	n := e.newNode(kindReaction, "")
	n.reactive = true
	n.run = func() (bool, error) {
		return false, fn()
	}
	e.runReaction(n)
	return func() { e.disposeNode(n) }
}

// Reaction splits a reaction into a tracked data function and an untracked
// effect. dataFn runs immediately to establish dependencies; effectFn fires
// on later runs whose data value differs from the previous one, so writes
// that leave the observed projection unchanged never reach the effect.
func Reaction[T comparable](e *Engine, dataFn func() (T, error), effectFn func(v T) error) (dispose func()) {
	n := e.newNode(kindReaction, "")
	n.reactive = true
	var (
		prev   T
		primed bool
	)
	n.run = func() (bool, error) {
		next, err := dataFn()
		if err != nil {
			return false, err
		}
		fire := primed && next != prev
		prev = next
		primed = true
		if !fire {
			return false, nil
		}
		e.PauseTracking()
		defer e.ResumeTracking()
		return true, effectFn(next)
	}
	e.runReaction(n)
	return func() { e.disposeNode(n) }
}

// runReaction performs a reaction's initial run, routing a body error to the
// engine's error callback the same way the flush walk does.
func (e *Engine) runReaction(n *node) {
	if err := e.runDerivation(n); err != nil && e.onError != nil {
		e.onError(&reactionRef{n: n}, err)
	}
}
