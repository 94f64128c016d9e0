// Package engines implements change propagation: the process-wide (or,
// for a Client that wants more than one, per-instance) context that
// drives the priority queue of stale nodes in timestamp order,
// re-evaluating each within its recorded interval.
package engines

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/loomrun/incremental/commons"
	"github.com/loomrun/incremental/models"
	"github.com/loomrun/incremental/structures"
)

// Engine bundles all propagation state into one context: the order-
// maintenance timeline, the cursor and finger, the stale-node queue, the
// LIFO of evaluations in progress, and the statistics counters.
type Engine struct {
	timeline *structures.Timeline

	eagerStart structures.Stamp
	now        structures.Stamp

	// finger is the upper bound for the current refresh scope.
	// fingerSet false means "no bound" (a top-level Refresh, or initial
	// graph construction outside any refresh).
	finger    structures.Stamp
	fingerSet bool

	queue *structures.Queue[*models.Meta]
	stack []*models.Meta

	stats commons.Stats
}

// New returns a fresh Engine, its timeline seeded with a single root
// stamp and its cursor idle at that root.
func New() *Engine {
	timeline, root := structures.NewTimeline()
	return &Engine{
		timeline:   timeline,
		eagerStart: root,
		now:        root,
		queue:      structures.NewQueue[*models.Meta](),
	}
}

// Stats returns a read-only snapshot of this engine's counters.
func (e *Engine) Stats() commons.Stats {
	return e.stats.Snapshot()
}

// Now returns the engine's current cursor timestamp.
func (e *Engine) Now() structures.Stamp {
	return e.now
}

// onTop reports the Meta currently being evaluated, if any — the eval
// stack being non-empty is what makes RecordEdge meaningful.
func (e *Engine) onTop() (*models.Meta, bool) {
	if len(e.stack) == 0 {
		return nil, false
	}
	return e.stack[len(e.stack)-1], true
}

// RecordEdge records a dependency edge: on every force of m, if an
// evaluation is in progress, the currently evaluating Meta is recorded
// as a weak dependent of m. A force made outside any evaluation (the
// eval stack empty) creates no edge: the caller must invoke Refresh
// explicitly to see propagation.
func (e *Engine) RecordEdge(m *models.Meta) {
	top, ok := e.onTop()
	if !ok || top == m {
		return
	}
	m.Dependents.Add(top)
}

// EnqueueDependents marks every weak dependent of m whose start
// timestamp is still valid and that is neither already enqueued nor
// mid-evaluation as stale, adding it to the priority queue.
func (e *Engine) EnqueueDependents(m *models.Meta) {
	m.Dependents.Fold(func(d *models.Meta) {
		if !d.Start.IsValid() || d.Enqueued || d.OnStack {
			return
		}
		d.Enqueued = true
		e.stats.Dirty++
		e.queue.Add(d)
	})
}

// UpdateCell updates a constant cell's value. Every call counts in the
// Update statistic. If the new value is Equal to the old one, the
// stored value is kept and no dependents are enqueued; only a genuine
// change triggers propagation.
func UpdateCell[T any](e *Engine, node *models.Node[T], data commons.Data[T], value T) error {
	if !node.Meta.IsCell() {
		return commons.ErrNotACell
	}

	e.stats.Update++
	if data.Equal(node.Value, value) {
		return nil
	}

	node.Value = data.Sanitize(value)
	e.EnqueueDependents(node.Meta)
	return nil
}

// MakeAndEvalNode allocates a start timestamp at the current cursor,
// pushes the node's Meta onto the eval stack, runs compute, records the
// result, allocates the end timestamp, installs the invalidator and
// Evaluate closures, and pops the stack — even if compute panics, since
// the stack cleanup runs via defer and a panic is left to propagate
// unchanged.
//
// unmemo, if non-nil, is installed as the node's Unmemo hook (the memo
// table's removal-from-binding closure); plain Thunks pass nil.
func MakeAndEvalNode[T any](e *Engine, data commons.Data[T], compute func() T, unmemo func()) *models.Node[T] {
	node := &models.Node[T]{Meta: models.NewMeta()}
	node.Meta.Unmemo = unmemo

	node.Meta.Start = e.timeline.InsertAfter(e.now)
	e.now = node.Meta.Start

	e.stack = append(e.stack, node.Meta)
	node.Meta.OnStack = true
	defer func() {
		e.stack = e.stack[:len(e.stack)-1]
		node.Meta.OnStack = false
	}()

	node.Value = data.Sanitize(compute())

	node.Meta.End = e.timeline.InsertAfter(e.now)
	e.now = node.Meta.End
	if e.fingerSet && structures.Compare(node.Meta.End, e.finger) >= 0 {
		panic(fmt.Errorf("%w: nested node end timestamp escaped the enclosing finger", commons.ErrBrokenInvariant))
	}

	e.stats.Create++

	node.Meta.Evaluate = func() (bool, error) {
		newValue := data.Sanitize(compute())
		changed := !data.Equal(node.Value, newValue)
		if changed {
			node.Value = newValue
		}
		return changed, nil
	}

	structures.SetInvalidator(node.Meta.Start, func() error {
		if node.Meta.Unmemo != nil {
			node.Meta.Unmemo()
		}
		node.Meta.Evaluate = func() (bool, error) { return false, nil }
		node.Meta.Dependents.Clear()
		return nil
	})

	return node
}

// EvaluateMeta pushes m on the stack with OnStack true, calls its
// Evaluate closure, pops with OnStack false even on panic, then
// enqueues dependents if the value changed.
func (e *Engine) EvaluateMeta(m *models.Meta) error {
	e.stack = append(e.stack, m)
	m.OnStack = true
	defer func() {
		e.stack = e.stack[:len(e.stack)-1]
		m.OnStack = false
	}()

	e.stats.Evaluate++
	changed, err := m.Evaluate()
	if err != nil {
		return err
	}

	if changed {
		e.EnqueueDependents(m)
	} else {
		e.stats.Clean++
	}
	return nil
}

// RefreshUntil drains the queue in timestamp order, re-evaluating each
// node within its recorded interval, until the queue empties or (when
// end is non-nil) the next node's end timestamp exceeds end. It
// restores the caller's finger before returning.
func (e *Engine) RefreshUntil(end *structures.Stamp) error {
	savedFinger, savedFingerSet := e.finger, e.fingerSet
	defer func() {
		e.finger, e.fingerSet = savedFinger, savedFingerSet
	}()

	var aggregated error
	for {
		top, ok := e.queue.Top()
		if !ok {
			break
		}

		if !top.Start.IsValid() {
			e.queue.Pop()
			continue
		}

		if end != nil && structures.Compare(top.End, *end) > 0 {
			break
		}

		m, _ := e.queue.Pop()
		m.Enqueued = false

		e.now = m.Start
		e.finger, e.fingerSet = m.End, true

		if err := e.EvaluateMeta(m); err != nil {
			aggregated = multierr.Append(aggregated, err)
		}

		if spliceErr := e.timeline.Splice(e.now, m.End); spliceErr != nil {
			aggregated = multierr.Append(aggregated, spliceErr)
		}
	}

	return aggregated
}

// Refresh drains the whole queue unbounded, then resets the cursor and
// finger to idle.
func (e *Engine) Refresh() error {
	err := e.RefreshUntil(nil)
	e.now = e.eagerStart
	e.fingerSet = false
	return err
}

// Cursor exposes the current cursor and finger, for the memo package's
// availability check, without engines needing to depend on memo.
func (e *Engine) Cursor() (now structures.Stamp, finger structures.Stamp, fingerSet bool) {
	return e.now, e.finger, e.fingerSet
}

// SetCursor lets the memo package advance the cursor to a reused
// node's end timestamp, skipping over its already-built subgraph.
func (e *Engine) SetCursor(now structures.Stamp) {
	e.now = now
}

// WithFinger runs f with the engine's finger temporarily set to until,
// restoring the previous finger afterward — the nested-scope pattern a
// nominal overwrite-and-reevaluate needs to bound its own rebuild to
// the node's own interval.
func (e *Engine) WithFinger(until structures.Stamp, f func() error) error {
	savedFinger, savedFingerSet := e.finger, e.fingerSet
	e.finger, e.fingerSet = until, true
	defer func() {
		e.finger, e.fingerSet = savedFinger, savedFingerSet
	}()
	return f()
}

// Splice exposes the timeline's splice operation to memo (for the
// reuse and nominal-overwrite paths), aggregating errors the same way
// RefreshUntil does.
func (e *Engine) Splice(lo, hi structures.Stamp) error {
	return e.timeline.Splice(lo, hi)
}

// InsertAfter exposes fresh stamp allocation to memo's doFreshBinding path
// (which allocates through MakeAndEvalNode, not directly — this is kept
// for completeness and for tests exercising the timeline in isolation).
func (e *Engine) InsertAfter(after structures.Stamp) structures.Stamp {
	return e.timeline.InsertAfter(after)
}

// NoteHit records a successful memo reuse.
func (e *Engine) NoteHit() {
	e.stats.Hit++
}

// NoteMiss records a memo lookup that had to build a fresh node.
func (e *Engine) NoteMiss() {
	e.stats.Miss++
}

// RunOnStack pushes m onto the eval stack (without touching the
// propagation queue), runs f, and pops even on panic. The memo
// package's nominal overwrite-and-reevaluate path needs this to re-run
// a node's Evaluate closure directly, outside RefreshUntil's own
// queue-draining loop, while still attributing any nested force calls
// to m.
func (e *Engine) RunOnStack(m *models.Meta, f func() (bool, error)) (bool, error) {
	e.stack = append(e.stack, m)
	m.OnStack = true
	defer func() {
		e.stack = e.stack[:len(e.stack)-1]
		m.OnStack = false
	}()
	return f()
}

// Top returns the queue's current minimum entry, for tests.
func (e *Engine) Top() (*models.Meta, bool) {
	return e.queue.Top()
}

// QueueLen reports the number of stale nodes currently queued.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}
