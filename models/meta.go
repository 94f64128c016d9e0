// Package models defines the unit of incremental computation: Meta, the
// bookkeeping record every node carries, and Node[T], the typed value
// wrapper a Client actually holds an Art[T] handle to.
package models

import (
	"sync/atomic"

	"github.com/loomrun/incremental/structures"
)

// nextSeqID is the process-unique id counter backing every Meta's
// identity.
var nextSeqID uint64

// NextSeqID allocates a fresh process-unique id.
func NextSeqID() uint64 {
	return atomic.AddUint64(&nextSeqID, 1)
}

// Meta is the bookkeeping record attached to every Node: its interval,
// its re-evaluation and unmemoization closures, its dependents, and the
// two re-entrancy flags that guard it during propagation.
type Meta struct {
	// SeqID is this Meta's process-unique identity, also the
	// deduplication key the priority Queue uses.
	SeqID uint64

	// Start and End bracket the interval of timestamps this node's own
	// execution occupies. Both are structures.Null for a constant cell;
	// End is structures.Null while a non-constant node is mid-evaluation.
	Start, End structures.Stamp

	// Evaluate re-computes this node's body, reports whether the result
	// changed from the previous value, and updates its owning Node's
	// value in place. It is nil until installation (two-phase
	// construction: allocate the node first, install the closures
	// second).
	Evaluate func() (changed bool, err error)

	// Unmemo removes this node from its owning memo Binding's node
	// list, on invalidation. Nil for nodes that were never memoized
	// (plain Thunks).
	Unmemo func()

	// Dependents is the weak set of Metas that read this node during
	// their last evaluation.
	Dependents *structures.WeakSet[Meta]

	// Enqueued is true while this Meta sits in the propagation queue,
	// preventing duplicate enqueueing.
	Enqueued bool

	// OnStack is true while this Meta is being (re-)evaluated,
	// preventing it from enqueueing itself as its own dependent.
	OnStack bool
}

// NewMeta allocates a fresh, not-yet-evaluating Meta. Evaluate and
// Unmemo are installed afterward by the caller (engines.MakeAndEvalNode,
// memo.doFreshBinding).
func NewMeta() *Meta {
	return &Meta{
		SeqID:      NextSeqID(),
		Dependents: structures.NewWeakSet[Meta](),
	}
}

// QueueStamp implements structures.Entry, so a *Meta can sit directly in
// a structures.Queue without structures importing this package.
func (m *Meta) QueueStamp() structures.Stamp {
	return m.Start
}

// QueueSeqID implements structures.Entry.
func (m *Meta) QueueSeqID() uint64 {
	return m.SeqID
}

// IsConstant reports whether m describes a constant cell: no interval
// at all.
func (m *Meta) IsConstant() bool {
	return m.Start.IsNull() && m.End.IsNull()
}

// IsCell reports whether m may legally be the target of Set: a
// constant, unintervaled node.
func (m *Meta) IsCell() bool {
	return m.IsConstant()
}
