package incremental

import (
	"fmt"

	"github.com/loomrun/incremental/commons"
	"github.com/loomrun/incremental/engines"
	"github.com/loomrun/incremental/memo"
)

// Mfn is a memoized function, returned by MkMfn: the same user logic
// exposed three ways — plain (no memoization at all, for a caller that
// just wants the value), anonymous (memoized by argument), and nominal
// (memoized by a caller-supplied Name, argument free to change across
// calls without losing the node's identity).
type Mfn[A, T any] struct {
	// Data runs the function directly, with no memoization.
	Data func(arg A) T
	// Art looks up or builds the anonymous (Arg-keyed) memo entry for
	// arg, returning its node.
	Art func(e *engines.Engine, arg A) (Art[T], error)
	// Nart looks up or builds the nominal (Name-keyed) memo entry for
	// name, rewriting it in place if a node already exists under name
	// with a different arg.
	Nart func(e *engines.Engine, name commons.Name, arg A) (Art[T], error)
}

// MkMfn builds a memoized function over a Table private to this call.
// f receives its own Mfn handle as self, so a recursive definition can
// call self.Art/self.Nart on its own sub-problems without any
// forward-declaration trick: self is filled in before f is ever
// invoked, since f only runs later, from inside Art or Nart.
func MkMfn[A, T any](tag string, argData commons.Data[A], valData commons.Data[T], f func(self Mfn[A, T], arg A) T) Mfn[A, T] {
	table := memo.NewTable[A, T](argData, valData, tag)

	var self Mfn[A, T]
	compute := func(arg A) T { return f(self, arg) }

	self = Mfn[A, T]{
		Data: compute,
		Art: func(e *engines.Engine, arg A) (Art[T], error) {
			return memo.Memo(e, table, arg, compute)
		},
		Nart: func(e *engines.Engine, name commons.Name, arg A) (Art[T], error) {
			return memo.MemoName(e, table, name, arg, compute)
		},
	}
	return self
}

// MkMfnDataOnly builds a memoized function whose backend has no nominal
// support: Data and Art behave exactly as MkMfn's, but Nart always
// returns commons.ErrNominalUnsupported rather than silently degrading
// to anonymous memoization. f receives this data-only handle as self,
// so its own recursive Nart calls fail the same way.
func MkMfnDataOnly[A, T any](tag string, argData commons.Data[A], valData commons.Data[T], f func(self Mfn[A, T], arg A) T) Mfn[A, T] {
	var mfn Mfn[A, T]
	mfn = MkMfn(tag, argData, valData, func(_ Mfn[A, T], arg A) T { return f(mfn, arg) })
	mfn.Nart = func(e *engines.Engine, name commons.Name, arg A) (Art[T], error) {
		return nil, fmt.Errorf("mfn %q: %w", tag, commons.ErrNominalUnsupported)
	}
	return mfn
}
