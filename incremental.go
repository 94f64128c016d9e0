// Package incremental is the public surface of the runtime: opaque
// Art handles over mutable cells and memoized thunks, built on the
// commons/structures/models/engines/memo packages beneath it.
package incremental

import (
	"sync"

	"github.com/loomrun/incremental/commons"
	"github.com/loomrun/incremental/engines"
	"github.com/loomrun/incremental/models"
)

// Art is the opaque handle a caller holds to one computation: a
// constant, a mutable cell, a thunk, or a memoized function's result.
type Art[T any] = *models.Node[T]

// Const builds a constant node: no interval, never re-evaluated, never
// itself a target of propagation.
func Const[T any](value T) Art[T] {
	return models.NewConstant(value)
}

// Cell builds a mutable input: a constant node (same shape as Const)
// that Set is later allowed to mutate. name identifies the cell for a
// caller's own diagnostics; the runtime does not need it, since a
// cell's identity is its pointer, not a lookup key.
func Cell[T any](name commons.Name, value T) Art[T] {
	_ = name
	return models.NewConstant(value)
}

// Set mutates a cell in place. It is only legal on a node built by
// Const or Cell (one with no interval); calling it on a thunk or a
// memoized result returns commons.ErrNotACell. An update that leaves
// the value Equal to what it replaces enqueues no dependents.
func Set[T any](e *engines.Engine, art Art[T], data commons.Data[T], value T) error {
	return engines.UpdateCell(e, art, data, value)
}

// Thunk builds and immediately evaluates an ad-hoc computation: a
// non-memoized node whose compute closure re-runs in full on every
// re-evaluation.
func Thunk[T any](e *engines.Engine, data commons.Data[T], compute func() T) Art[T] {
	return engines.MakeAndEvalNode(e, data, compute, nil)
}

// Force reads art's current value, recording a dependency edge from
// whatever computation is currently executing in e (a no-op if none
// is).
func Force[T any](e *engines.Engine, art Art[T]) T {
	e.RecordEdge(art.Meta)
	return art.Value
}

// Flush is a deliberate no-op: propagation in this runtime is driven
// entirely by Refresh: there is no buffered write-queue to drain.
func Flush() {}

// Refresh drains e's entire propagation queue, bringing every stale
// node up to date.
func Refresh(e *engines.Engine) error {
	return e.Refresh()
}

var (
	defaultEngineOnce sync.Once
	defaultEngine     *engines.Engine
)

// DefaultEngine returns the process-wide Engine, built lazily on first
// use. Most callers never need more than one Engine; a caller that does
// (running two independent incremental graphs in one process, or
// isolating a test) can construct its own via engines.New and pass it
// explicitly to every function here instead.
func DefaultEngine() *engines.Engine {
	defaultEngineOnce.Do(func() {
		defaultEngine = engines.New()
	})
	return defaultEngine
}
