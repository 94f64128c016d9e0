package commons

import (
	"hash/maphash"

	"github.com/google/uuid"
)

// UUIDName is a ready-made Name built on github.com/google/uuid. Gensym is
// deterministic (same string always yields the same name, via a
// version-5 UUID derived from a fixed namespace), Nondet is a fresh
// version-4 UUID each call, and Fork/Pair derive children deterministically
// from the parent's own bytes so that repeated runs over the same graph
// produce the same names.
type UUIDName struct {
	id uuid.UUID
}

// gensymNamespace is the fixed namespace Gensym's version-5 derivation
// uses, so two processes calling Gensym("same-string") agree.
var gensymNamespace = uuid.MustParse("c9f6c1d2-7f8e-4c2e-9c2b-8a6a6a1f9a10")

// forkNamespaceLeft / forkNamespaceRight distinguish the two children a
// Fork call produces from the same parent bytes.
var forkNamespaceLeft = uuid.MustParse("1b9b1a2a-1111-4a2a-8a2a-0000000000a0")
var forkNamespaceRight = uuid.MustParse("1b9b1a2a-2222-4a2a-8a2a-0000000000b0")

// nameHashSeed is fixed once per process so that Hash is a pure function
// of (seed, id): a maphash.Seed drawn fresh on every call would hash the
// same name differently each time, and a memo table's bucket lookup
// would never find what it just inserted.
var nameHashSeed = maphash.MakeSeed()

// Gensym builds a deterministic UUIDName from a string tag.
func Gensym(tag string) UUIDName {
	return UUIDName{id: uuid.NewSHA1(gensymNamespace, []byte(tag))}
}

// Nondet builds a fresh, non-reproducible UUIDName.
func Nondet() UUIDName {
	return UUIDName{id: uuid.New()}
}

// Equal implements Name.
func (n UUIDName) Equal(other Name) bool {
	o, ok := other.(UUIDName)
	return ok && n.id == o.id
}

// Hash implements Name, folding the caller's per-table seed into the
// UUID's own bytes.
func (n UUIDName) Hash(seed uint64) uint64 {
	var h maphash.Hash
	h.SetSeed(nameHashSeed)
	var seedBytes [8]byte
	for i := range seedBytes {
		seedBytes[i] = byte(seed >> (8 * i))
	}
	h.Write(seedBytes[:])
	raw := n.id
	h.Write(raw[:])
	return h.Sum64()
}

// Show implements Name.
func (n UUIDName) Show() string {
	return n.id.String()
}

// Fork implements Name: derive two deterministic, distinct children from
// this name's own bytes.
func (n UUIDName) Fork() (Name, Name) {
	left := UUIDName{id: uuid.NewSHA1(forkNamespaceLeft, n.id[:])}
	right := UUIDName{id: uuid.NewSHA1(forkNamespaceRight, n.id[:])}
	return left, right
}

// Pair implements Name: deterministically combine this name with another.
func (n UUIDName) Pair(other Name) Name {
	o, ok := other.(UUIDName)
	if !ok {
		return Gensym(n.Show() + "|" + other.Show())
	}
	combined := append(append([]byte{}, n.id[:]...), o.id[:]...)
	return UUIDName{id: uuid.NewSHA1(gensymNamespace, combined)}
}
