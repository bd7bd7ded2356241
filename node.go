package ripple

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

type nodeID uint32

type nodeKind uint8

const (
	kindCell nodeKind = iota
	kindComputed
	kindReaction
)

func (k nodeKind) String() string {
	switch k {
	case kindCell:
		return "observable"
	case kindComputed:
		return "computed"
	case kindReaction:
		return "reaction"
	default:
		return "unknown"
	}
}

// status follows the stale/ready protocol. Ordering matters: marking only
// ever raises a node's status, settling brings it back to statusClean.
type status uint8

const (
	statusClean status = iota
	statusPossiblyStale
	statusStale
	statusComputing
)

// node is one slot in the engine's arena. Cells and derivations share the
// struct; a derivation additionally carries the run closure installed by its
// typed constructor, so one runDerivation drives both Computed and Reaction
// without virtual dispatch. Relations between nodes are held as id sets, never
// as pointers, which keeps ownership one-directional and makes disposal a
// matter of dropping edges.
type node struct {
	id       nodeID
	name     string
	kind     nodeKind
	status   status
	reactive bool
	queued   bool
	dirtied  bool
	disposed bool
	version  uint64

	// derivations whose last successful run read this node
	observers mapset.Set[nodeID]

	// dependency side, derivations only. deps preserves the first-read order
	// of the last run; depSet mirrors it for O(1) membership.
	deps   []nodeID
	depSet mapset.Set[nodeID]

	// run recomputes a derivation and reports whether its value actually
	// changed. nil for cells.
	run func() (changed bool, err error)

	lastErr error
}

func (n *node) label() string {
	if n.name != "" {
		return fmt.Sprintf("%s(%s#%d)", n.kind, n.name, n.id)
	}
	return fmt.Sprintf("%s#%d", n.kind, n.id)
}
