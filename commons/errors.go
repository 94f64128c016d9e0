package commons

import "errors"

// ErrNominalUnsupported is returned by a memoized-function constructor that
// was deliberately built without a nominal (named) binding table when a
// caller reaches for its nominal variant anyway.
var ErrNominalUnsupported = errors.New("incremental: backend has no nominal memoization")

// ErrNotACell is returned by Set when the target node is not a constant
// cell. Only constant cells may be mutated; everything else is derived.
var ErrNotACell = errors.New("incremental: set is only legal on a constant cell")

// ErrBrokenInvariant marks an assertion failure in the propagation engine
// (a bug in the runtime itself, never a user-facing condition). It is
// always wrapped into a panic message, never returned as a plain error.
var ErrBrokenInvariant = errors.New("incremental: broken invariant")

// ErrQueueEmpty names the empty-priority-set condition. Nothing in this
// module returns it: Queue.Pop and Queue.Top report an empty queue with
// a false second result, which RefreshUntil treats as "nothing left to
// do".
var ErrQueueEmpty = errors.New("incremental: queue is empty")
