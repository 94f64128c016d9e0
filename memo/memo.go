package memo

import (
	"github.com/loomrun/incremental/commons"
	"github.com/loomrun/incremental/engines"
	"github.com/loomrun/incremental/models"
	"github.com/loomrun/incremental/structures"
)

// isAvailable reports whether a previously built node may be adopted by
// the caller currently executing in e: its start timestamp must still
// be valid, must lie strictly ahead of the caller's cursor, and its end
// timestamp must lie strictly inside the caller's window (no window
// bound at all — a top-level call — always satisfies the last
// conjunct).
func isAvailable(e *engines.Engine, m *models.Meta) bool {
	if !m.Start.IsValid() {
		return false
	}
	now, finger, fingerSet := e.Cursor()
	if structures.Compare(m.Start, now) <= 0 {
		return false
	}
	if fingerSet && structures.Compare(m.End, finger) >= 0 {
		return false
	}
	return true
}

// adopt performs the shared "reuse an available node" tail common to
// both Memo and MemoName when the stored arg did not need rewriting:
// skip the intervening work, bring the adopted subgraph up to date
// within its own recorded interval, and advance the cursor past it.
func adopt[T any](e *engines.Engine, node *models.Node[T]) error {
	if err := e.Splice(e.Now(), node.Meta.Start); err != nil {
		return err
	}
	end := node.Meta.End
	if err := e.RefreshUntil(&end); err != nil {
		return err
	}
	e.SetCursor(node.Meta.End)
	e.RecordEdge(node.Meta)
	return nil
}

// Memo implements anonymous memoization: look up or install the
// Arg(arg) binding, reuse the first available node it holds, or build
// one fresh via compute.
func Memo[A, T any](e *engines.Engine, tb *Table[A, T], arg A, compute func(A) T) (*models.Node[T], error) {
	binding := tb.mergeArg(arg)

	for _, entry := range binding.nodes {
		if !isAvailable(e, entry.node.Meta) {
			continue
		}
		e.NoteHit()
		if err := adopt(e, entry.node); err != nil {
			return nil, err
		}
		return entry.node, nil
	}

	e.NoteMiss()
	return doFreshBinding(e, tb, binding, arg, compute), nil
}

// MemoName implements nominal memoization: look up or install the
// Name(name) binding. If an available node exists with an unchanged
// arg, reuse it as Memo does. If one exists but its stored arg
// differs, rewrite it in place and re-evaluate within its own interval
// rather than discarding it — this is what lets a recursive structure
// keep its node identity (and therefore its position in any still-valid
// dependents) across an argument change. Otherwise build fresh.
func MemoName[A, T any](e *engines.Engine, tb *Table[A, T], name commons.Name, arg A, compute func(A) T) (*models.Node[T], error) {
	binding := tb.mergeName(name)

	for _, entry := range binding.nodes {
		if !isAvailable(e, entry.node.Meta) {
			continue
		}

		if tb.argData.Equal(*entry.argRef, arg) {
			e.NoteHit()
			if err := adopt(e, entry.node); err != nil {
				return nil, err
			}
			return entry.node, nil
		}

		e.NoteHit()
		if err := rewriteInPlace(e, entry, arg); err != nil {
			return nil, err
		}
		return entry.node, nil
	}

	e.NoteMiss()
	return doFreshBinding(e, tb, binding, arg, compute), nil
}

// rewriteInPlace implements memo_name's "stored arg differs" case:
// splice away the stamps between the cursor and the node's start,
// move the cursor to that start, overwrite its arg_ref, re-run
// its Evaluate closure bounded by its own end timestamp (so any nested
// memo calls it makes cannot escape its window), then splice away
// whatever the new execution did not re-create.
func rewriteInPlace[A, T any](e *engines.Engine, entry *nodeEntry[A, T], arg A) error {
	meta := entry.node.Meta

	if err := e.Splice(e.Now(), meta.Start); err != nil {
		return err
	}
	e.SetCursor(meta.Start)

	*entry.argRef = arg

	var changed bool
	err := e.WithFinger(meta.End, func() error {
		var evalErr error
		changed, evalErr = e.RunOnStack(meta, meta.Evaluate)
		return evalErr
	})
	if err != nil {
		return err
	}
	if changed {
		e.EnqueueDependents(meta)
	}

	if err := e.Splice(e.Now(), meta.End); err != nil {
		return err
	}

	e.SetCursor(meta.End)
	e.RecordEdge(meta)
	return nil
}

// doFreshBinding implements do_fresh_binding: allocate a node closing
// over a mutable ref cell for its arg (so a later nominal rewrite can
// overwrite it in place), append it to the binding, install its unmemo
// hook, and record the caller's dependency edge.
func doFreshBinding[A, T any](e *engines.Engine, tb *Table[A, T], binding *Binding[A, T], arg A, compute func(A) T) *models.Node[T] {
	argRef := new(A)
	*argRef = arg

	entry := &nodeEntry[A, T]{argRef: argRef}

	node := engines.MakeAndEvalNode(e, tb.valData, func() T {
		return compute(*argRef)
	}, func() {
		binding.removeNode(entry)
	})

	entry.node = node
	binding.nodes = append(binding.nodes, entry)

	e.RecordEdge(node.Meta)
	return node
}
