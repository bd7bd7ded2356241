package ripple

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// frame records the reads of one executing derivation. Frames form a strict
// LIFO stack on the engine so derivation bodies can nest, e.g. a computed
// evaluated from inside a reaction. A nil entry on the stack marks a paused
// tracking window.
type frame struct {
	sub   nodeID
	reads []nodeID
	seen  mapset.Set[nodeID]
}

func (e *Engine) beginTracking(d *node) {
	e.frames = append(e.frames, &frame{
		sub:  d.id,
		seen: mapset.NewThreadUnsafeSet[nodeID](),
	})
}

func (e *Engine) endTracking() *frame {
	last := len(e.frames) - 1
	f := e.frames[last]
	e.frames = e.frames[:last]
	return f
}

// recordRead registers src in the read set of the innermost executing
// derivation. Plain reads outside any derivation, and reads inside a paused
// window, are no-ops.
func (e *Engine) recordRead(src *node) {
	if len(e.frames) == 0 {
		return
	}
	f := e.frames[len(e.frames)-1]
	if f == nil || f.sub == src.id {
		return
	}
	if f.seen.Add(src.id) {
		f.reads = append(f.reads, src.id)
	}
}
