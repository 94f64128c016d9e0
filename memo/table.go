// Package memo implements nominal and anonymous memoization: a Table
// per memoized function, keyed either by argument value (anonymous) or
// by a caller-supplied Name (nominal), with bindings held weakly and
// kept alive only by the nodes that reference them.
package memo

import (
	"hash/maphash"
	"weak"

	"github.com/loomrun/incremental/commons"
	"github.com/loomrun/incremental/models"
)

// nodeEntry pairs a memoized node with the mutable cell holding the
// argument it was last built from — mutable so a nominal rewrite can
// overwrite it in place without disturbing the node's identity.
type nodeEntry[A, T any] struct {
	argRef *A
	node   *models.Node[T]
}

// Binding is one Table entry: either an anonymous binding (keyed by its
// own arg) or a nominal one (keyed by a Name, arg free to change across
// calls), holding the (usually singleton, occasionally multiple)
// built nodes that share this key.
type Binding[A, T any] struct {
	isName bool
	arg    A
	name   commons.Name

	nodes []*nodeEntry[A, T]
}

// removeNode splices entry out of the binding's node list — this is
// what a node's Unmemo closure calls on invalidation.
func (b *Binding[A, T]) removeNode(target *nodeEntry[A, T]) {
	for i, e := range b.nodes {
		if e == target {
			b.nodes = append(b.nodes[:i], b.nodes[i+1:]...)
			return
		}
	}
}

// Table is one memoized function's binding store. Arg-keyed and
// Name-keyed bindings live in separate buckets since the two kinds of
// key never compare equal.
type Table[A, T any] struct {
	argData commons.Data[A]
	valData commons.Data[T]
	seed    uint64

	argBuckets  map[uint64][]weak.Pointer[Binding[A, T]]
	nameBuckets map[uint64][]weak.Pointer[Binding[A, T]]
}

// NewTable builds an empty Table with a fresh per-table random seed,
// derived from a parent seed drawn at random for this table and the
// memoized function's own tag, so that two tables do not hash
// identically even when they share a tag.
func NewTable[A, T any](argData commons.Data[A], valData commons.Data[T], tag string) *Table[A, T] {
	return &Table[A, T]{
		argData:     argData,
		valData:     valData,
		seed:        commons.SeedFor(maphash.String(maphash.MakeSeed(), tag), tag),
		argBuckets:  make(map[uint64][]weak.Pointer[Binding[A, T]]),
		nameBuckets: make(map[uint64][]weak.Pointer[Binding[A, T]]),
	}
}

// mergeArg looks up the Arg(arg) binding, installing a fresh one if
// absent, and returns the canonical binding either way.
func (tb *Table[A, T]) mergeArg(arg A) *Binding[A, T] {
	h := tb.argData.Hash(tb.seed, arg)
	bucket := tb.argBuckets[h]

	live := bucket[:0]
	var found *Binding[A, T]
	for _, ref := range bucket {
		b := ref.Value()
		if b == nil {
			continue
		}
		live = append(live, ref)
		if found == nil && !b.isName && tb.argData.Equal(b.arg, arg) {
			found = b
		}
	}

	if found != nil {
		tb.argBuckets[h] = live
		return found
	}

	fresh := &Binding[A, T]{arg: arg}
	live = append(live, weak.Make(fresh))
	tb.argBuckets[h] = live
	return fresh
}

// mergeName looks up the Name(name) binding, installing a fresh one if
// absent, and returns the canonical binding either way.
func (tb *Table[A, T]) mergeName(name commons.Name) *Binding[A, T] {
	h := name.Hash(tb.seed)
	bucket := tb.nameBuckets[h]

	live := bucket[:0]
	var found *Binding[A, T]
	for _, ref := range bucket {
		b := ref.Value()
		if b == nil {
			continue
		}
		live = append(live, ref)
		if found == nil && b.isName && b.name.Equal(name) {
			found = b
		}
	}

	if found != nil {
		tb.nameBuckets[h] = live
		return found
	}

	fresh := &Binding[A, T]{isName: true, name: name}
	live = append(live, weak.Make(fresh))
	tb.nameBuckets[h] = live
	return fresh
}
