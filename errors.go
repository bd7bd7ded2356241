package ripple

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DisposedError is the panic value for any read or write through a disposed
// handle.
type DisposedError struct {
	Node string
	Op   string
}

func (e *DisposedError) Error() string {
	return fmt.Sprintf("ripple: %s of disposed %s", e.Op, e.Node)
}

// CycleError is the panic value raised when evaluation reenters a derivation
// that is still computing. Path lists the derivations on the cycle in
// evaluation order, closed with the reentered node; Fingerprint is a stable
// hash of the path for log dedup.
type CycleError struct {
	Path        []string
	Fingerprint uint64
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("ripple: dependency cycle %016x: %s", e.Fingerprint, strings.Join(e.Path, " -> "))
}

// cycleError reconstructs the cycle from the engine's tracking stack,
// starting at the frame that first entered n.
func (e *Engine) cycleError(n *node) *CycleError {
	var path []string
	for _, f := range e.frames {
		if f == nil {
			continue
		}
		if len(path) == 0 && f.sub != n.id {
			continue
		}
		path = append(path, e.arena[f.sub].label())
	}
	path = append(path, n.label())
	return &CycleError{
		Path:        path,
		Fingerprint: xxhash.Sum64String(strings.Join(path, " -> ")),
	}
}
