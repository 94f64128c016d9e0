package structures_test

import (
	"testing"

	"github.com/loomrun/incremental/structures"
)

// fakeEntry is a minimal structures.Entry for testing the Queue in
// isolation from models.Meta.
type fakeEntry struct {
	stamp structures.Stamp
	id    uint64
}

func (f fakeEntry) QueueStamp() structures.Stamp { return f.stamp }
func (f fakeEntry) QueueSeqID() uint64           { return f.id }

func TestQueuePopsInStampOrder(t *testing.T) {
	tl, root := structures.NewTimeline()
	s1 := tl.InsertAfter(root)
	s2 := tl.InsertAfter(s1)
	s3 := tl.InsertAfter(s2)

	q := structures.NewQueue[fakeEntry]()
	q.Add(fakeEntry{stamp: s3, id: 3})
	q.Add(fakeEntry{stamp: s1, id: 1})
	q.Add(fakeEntry{stamp: s2, id: 2})

	first, ok := q.Pop()
	if !ok || first.id != 1 {
		t.Log("expected id 1 first")
		t.Fail()
	}

	second, ok := q.Pop()
	if !ok || second.id != 2 {
		t.Log("expected id 2 second")
		t.Fail()
	}

	third, ok := q.Pop()
	if !ok || third.id != 3 {
		t.Log("expected id 3 third")
		t.Fail()
	}

	if _, ok := q.Pop(); ok {
		t.Log("queue should be empty now")
		t.Fail()
	}
}

func TestQueueAddIsDedupedByIdentity(t *testing.T) {
	tl, root := structures.NewTimeline()
	s1 := tl.InsertAfter(root)

	q := structures.NewQueue[fakeEntry]()
	if !q.Add(fakeEntry{stamp: s1, id: 1}) {
		t.Log("first add should report newly inserted")
		t.Fail()
	}
	if q.Add(fakeEntry{stamp: s1, id: 1}) {
		t.Log("duplicate add should be a no-op")
		t.Fail()
	}
	if q.Len() != 1 {
		t.Log("queue should contain exactly one entry")
		t.Fail()
	}
}

func TestQueueRemove(t *testing.T) {
	tl, root := structures.NewTimeline()
	s1 := tl.InsertAfter(root)
	s2 := tl.InsertAfter(s1)

	q := structures.NewQueue[fakeEntry]()
	q.Add(fakeEntry{stamp: s1, id: 1})
	q.Add(fakeEntry{stamp: s2, id: 2})

	if !q.Remove(fakeEntry{stamp: s1, id: 1}) {
		t.Log("expected removal to report found")
		t.Fail()
	}

	top, ok := q.Top()
	if !ok || top.id != 2 {
		t.Log("remaining top should be id 2")
		t.Fail()
	}
}

func TestQueueTopDoesNotRemove(t *testing.T) {
	tl, root := structures.NewTimeline()
	s1 := tl.InsertAfter(root)

	q := structures.NewQueue[fakeEntry]()
	q.Add(fakeEntry{stamp: s1, id: 1})

	if _, ok := q.Top(); !ok {
		t.Log("expected top to find an entry")
		t.Fail()
	}
	if q.Len() != 1 {
		t.Log("top should not remove the entry")
		t.Fail()
	}
}

func TestQueuePopEmpty(t *testing.T) {
	q := structures.NewQueue[fakeEntry]()
	if _, ok := q.Pop(); ok {
		t.Log("pop on an empty queue should report not-ok, not panic")
		t.Fail()
	}
}
