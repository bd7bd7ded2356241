package ripple

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/petermattis/goid"
)

// Observer identifies the derivation an error or diagnostic originated from.
type Observer interface {
	Name() string
}

// OnErrorFunc receives errors returned by reaction bodies. Errors from
// computed getters are not routed here; they surface to the reader instead.
type OnErrorFunc func(from Observer, err error)

// Engine owns one reactive dependency graph: the arena of cells and
// derivations, the tracking stack, and the batch state. All operations on an
// engine must happen on the goroutine that created it; the graph is mutated
// only inside runDerivation's reconcile step and the mark/flush boundaries,
// so strict serialization is what keeps propagation atomic.
type Engine struct {
	onError OnErrorFunc
	gid     int64

	arena  []*node
	frames []*frame

	batchDepth int
	pending    []nodeID
	flushing   bool
}

// NewEngine creates an engine bound to the calling goroutine. onError may be
// nil, in which case reaction errors are dropped.
func NewEngine(onError OnErrorFunc) *Engine {
	return &Engine{onError: onError, gid: goid.Get()}
}

func (e *Engine) checkAffinity() {
	if gid := goid.Get(); gid != e.gid {
		panic(fmt.Sprintf("ripple: engine owned by goroutine %d used from goroutine %d", e.gid, gid))
	}
}

func (e *Engine) newNode(kind nodeKind, name string) *node {
	e.checkAffinity()
	n := &node{
		id:        nodeID(len(e.arena)),
		name:      name,
		kind:      kind,
		observers: mapset.NewThreadUnsafeSet[nodeID](),
	}
	if kind != kindCell {
		n.status = statusStale
		n.depSet = mapset.NewThreadUnsafeSet[nodeID]()
	}
	e.arena = append(e.arena, n)
	return n
}

// StartBatch opens a transaction: writes keep marking the graph but the
// recompute walk is deferred until the outermost batch closes.
func (e *Engine) StartBatch() {
	e.checkAffinity()
	e.batchDepth++
}

// EndBatch closes one nesting level and, at depth zero, runs the single
// recompute walk over everything the batch marked.
func (e *Engine) EndBatch() {
	e.checkAffinity()
	e.batchDepth--
	if e.batchDepth == 0 {
		e.flush()
	}
}

// Batch runs fn inside a transaction. N writes inside one batch cause at most
// one recompute per affected reactive derivation.
func (e *Engine) Batch(fn func()) {
	e.StartBatch()
	defer e.EndBatch()
	fn()
}

// PauseTracking suspends dependency registration until the matching
// ResumeTracking, letting a derivation body read observables without
// subscribing to them.
func (e *Engine) PauseTracking() {
	e.frames = append(e.frames, nil)
}

func (e *Engine) ResumeTracking() {
	e.frames = e.frames[:len(e.frames)-1]
}

type reactionRef struct {
	n *node
}

func (r *reactionRef) Name() string {
	return r.n.label()
}
