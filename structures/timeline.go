// Package structures holds the foundational data structures the
// propagation engine is built on: an order-maintenance timeline of
// timestamps, a priority set ordered by those timestamps, and a weak
// dependent set. None of these know about computations or memoization —
// that is models, engines and memo's job.
package structures

import "go.uber.org/multierr"

// tagWindow is the tag spacing the Timeline leaves after a stamp
// appended at the tail, and between neighbours after a relabel. Each
// InsertAfter takes the midpoint of the gap after its predecessor, so
// about log2(tagWindow) = 16 consecutive insertions after the same
// stamp exhaust that gap and trigger a relabel. The spacing is fixed;
// it never grows.
const tagWindow = 1 << 16

// stamp is the linked-list node backing a Stamp handle.
type stamp struct {
	tag   int64
	valid bool
	prev  *stamp
	next  *stamp
	// invalidator runs exactly once, when this stamp is spliced out.
	invalidator func() error
}

// Stamp is an opaque handle into a Timeline. Two Stamps are comparable
// only if they came from the same Timeline.
type Stamp struct {
	s *stamp
}

// Null is the sentinel Stamp: it compares before everything, is never
// valid, and marks a constant cell's start/end (a constant has no
// interval at all).
var Null = Stamp{}

// IsNull reports whether t is the sentinel.
func (t Stamp) IsNull() bool {
	return t.s == nil
}

// IsValid reports whether t has not been spliced out of its Timeline.
// The sentinel Null is never valid.
func (t Stamp) IsValid() bool {
	return t.s != nil && t.s.valid
}

// Timeline is a tag-based order-maintenance list: a doubly linked list
// of tagged stamps supporting constant-time comparison and insertion
// between any two adjacent stamps. An insertion is O(1) while the tag
// gap after its predecessor lasts; when the gap is exhausted it
// relabels every later stamp (see relabelAfter), so insertion is not
// amortized constant time.
type Timeline struct {
	head *stamp
	tail *stamp
}

// NewTimeline returns a Timeline seeded with a single root stamp, so
// callers always have a Stamp to InsertAfter from.
func NewTimeline() (*Timeline, Stamp) {
	root := &stamp{tag: 0, valid: true}
	root.prev, root.next = nil, nil
	t := &Timeline{head: root, tail: root}
	return t, Stamp{s: root}
}

// InsertAfter allocates a new Stamp immediately after t and returns it.
// It panics (a broken-invariant condition, not a user error) if t does
// not belong to this Timeline or has been invalidated.
func (tl *Timeline) InsertAfter(t Stamp) Stamp {
	if t.s == nil || !t.s.valid {
		panic("structures: InsertAfter on an invalid or null stamp")
	}

	prev := t.s
	next := prev.next

	var gap int64
	if next == nil {
		gap = tagWindow
	} else {
		gap = next.tag - prev.tag
	}

	if gap <= 1 {
		tl.relabelAfter(prev)
		next = prev.next
		if next == nil {
			gap = tagWindow
		} else {
			gap = next.tag - prev.tag
		}
	}

	fresh := &stamp{
		tag:   prev.tag + gap/2,
		valid: true,
		prev:  prev,
		next:  next,
	}
	prev.next = fresh
	if next != nil {
		next.prev = fresh
	} else {
		tl.tail = fresh
	}

	return Stamp{s: fresh}
}

// relabelAfter widens the tag space starting at prev by walking forward
// to the end of the list and reassigning tags with tagWindow spacing.
// It relabels the whole remainder rather than a bounded local window:
// simple and collision-free, but each relabel costs O(n) in the number
// of later stamps, and repeated insertion after one stamp triggers a
// relabel about every 16 insertions, so there is no amortized O(1)
// bound per insertion.
func (tl *Timeline) relabelAfter(prev *stamp) {
	tag := prev.tag
	cursor := prev
	for cursor != nil {
		cursor.tag = tag
		tag += tagWindow
		cursor = cursor.next
	}
}

// Compare returns -1, 0 or 1 according to a's position relative to b in
// this timeline. The sentinel Null compares before every valid stamp.
func Compare(a, b Stamp) int {
	switch {
	case a.s == nil && b.s == nil:
		return 0
	case a.s == nil:
		return -1
	case b.s == nil:
		return 1
	case a.s.tag < b.s.tag:
		return -1
	case a.s.tag > b.s.tag:
		return 1
	default:
		return 0
	}
}

// SetInvalidator installs fn to run exactly once, when t is spliced out
// of its timeline. Installing a new invalidator replaces any previous
// one.
func SetInvalidator(t Stamp, fn func() error) {
	if t.s != nil {
		t.s.invalidator = fn
	}
}

// Splice removes every stamp strictly between lo and hi (exclusive on
// both ends), marking each invalid and firing its invalidator. Errors
// from invalidators are aggregated with multierr rather than stopping
// the splice partway: a partially-spliced range would leave some
// invalidated stamps still linked into the list.
func (tl *Timeline) Splice(lo, hi Stamp) error {
	if lo.s == nil || hi.s == nil {
		return nil
	}

	var errs error
	cursor := lo.s.next
	for cursor != nil && cursor != hi.s {
		doomed := cursor
		cursor = cursor.next

		doomed.valid = false
		if doomed.invalidator != nil {
			if err := doomed.invalidator(); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}

	lo.s.next = hi.s
	if hi.s != nil {
		hi.s.prev = lo.s
	} else {
		tl.tail = lo.s
	}

	return errs
}

// Iter walks the timeline starting at start (inclusive), calling f for
// each live stamp in ascending order until f returns false or the
// timeline ends.
func (tl *Timeline) Iter(start Stamp, f func(Stamp) bool) {
	cursor := start.s
	if cursor == nil {
		cursor = tl.head
	}
	for cursor != nil {
		if !f(Stamp{s: cursor}) {
			return
		}
		cursor = cursor.next
	}
}
