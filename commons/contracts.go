// Package commons holds the capability contracts a Client Program supplies
// to the incremental runtime (Data and Name), their ready-made
// implementations, the statistics counters, and the error sentinels the
// rest of the module returns or panics with. It is the leaf package every
// other package in this module depends on.
package commons

// Data is the capability a Client supplies for any value type T that may
// flow through a cell, a thunk, or a memoized function's result or
// argument.
type Data[T any] interface {
	// Equal reports whether a and b should be considered the same value
	// for change-propagation purposes: if Equal(old, new) a cell update
	// or a node re-evaluation does not enqueue dependents.
	Equal(a, b T) bool
	// Hash produces a hash of a, seeded so that hash-flooding one memo
	// table cannot be used to predict collisions in another.
	Hash(seed uint64, a T) uint64
	// Show renders a for diagnostics.
	Show(a T) string
	// Sanitize normalizes a value before it is stored (for instance,
	// stripping a value of a pointer identity the engine must not hold
	// onto). The default contracts below return the value unchanged.
	Sanitize(a T) T
}

// Name is the capability a Client supplies to identify nodes nominally
// (via a memoized function's nart), plus the Data-shaped equal/hash
// every key needs to live in a memo table.
type Name interface {
	// Equal reports whether two names denote the same binding key.
	Equal(other Name) bool
	// Hash hashes the name, seeded like Data.Hash.
	Hash(seed uint64) uint64
	// Show renders the name for diagnostics.
	Show() string
	// Fork splits a name deterministically into two distinct,
	// reproducible children — the standard way a recursive nominal
	// computation derives fresh, stable names for its two halves.
	Fork() (Name, Name)
	// Pair deterministically combines this name with another into one.
	Pair(other Name) Name
}
