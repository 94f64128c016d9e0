package structures_test

import (
	"errors"
	"testing"

	"github.com/loomrun/incremental/structures"
)

func TestInsertAfterOrdersBetween(t *testing.T) {
	tl, root := structures.NewTimeline()
	a := tl.InsertAfter(root)
	b := tl.InsertAfter(a)

	if structures.Compare(root, a) >= 0 {
		t.Log("root should compare before a")
		t.Fail()
	} else if structures.Compare(a, b) >= 0 {
		t.Log("a should compare before b")
		t.Fail()
	} else if structures.Compare(root, b) >= 0 {
		t.Log("root should compare before b")
		t.Fail()
	}
}

func TestInsertBetweenTwoExisting(t *testing.T) {
	tl, root := structures.NewTimeline()
	far := tl.InsertAfter(root)
	middle := tl.InsertAfter(root)

	if structures.Compare(root, middle) >= 0 {
		t.Log("root should precede middle")
		t.Fail()
	} else if structures.Compare(middle, far) >= 0 {
		t.Log("middle should precede far since it was inserted between root and far")
		t.Fail()
	}
}

func TestManyInsertionsStayOrdered(t *testing.T) {
	tl, root := structures.NewTimeline()
	cursor := root
	var stamps []structures.Stamp
	for i := 0; i < 5000; i++ {
		cursor = tl.InsertAfter(cursor)
		stamps = append(stamps, cursor)
	}

	for i := 1; i < len(stamps); i++ {
		if structures.Compare(stamps[i-1], stamps[i]) >= 0 {
			t.Logf("stamp %d did not compare before stamp %d", i-1, i)
			t.Fail()
		}
	}
}

func TestNullSentinelComparesFirst(t *testing.T) {
	tl, root := structures.NewTimeline()
	a := tl.InsertAfter(root)

	if structures.Compare(structures.Null, a) >= 0 {
		t.Log("Null should compare before any valid stamp")
		t.Fail()
	} else if structures.Null.IsValid() {
		t.Log("Null should never be valid")
		t.Fail()
	}
}

func TestSpliceInvalidatesRangeAndFires(t *testing.T) {
	tl, root := structures.NewTimeline()
	lo := tl.InsertAfter(root)
	doomed := tl.InsertAfter(lo)
	hi := tl.InsertAfter(doomed)

	fired := false
	structures.SetInvalidator(doomed, func() error {
		fired = true
		return nil
	})

	if err := tl.Splice(lo, hi); err != nil {
		t.Log("unexpected splice error:", err)
		t.Fail()
	}

	if doomed.IsValid() {
		t.Log("doomed stamp should be invalid after splice")
		t.Fail()
	} else if !fired {
		t.Log("invalidator should have fired exactly once")
		t.Fail()
	}
}

func TestSpliceLeavesBoundsValid(t *testing.T) {
	tl, root := structures.NewTimeline()
	lo := tl.InsertAfter(root)
	doomed := tl.InsertAfter(lo)
	hi := tl.InsertAfter(doomed)

	if err := tl.Splice(lo, hi); err != nil {
		t.Log("unexpected splice error:", err)
		t.Fail()
	}

	if !lo.IsValid() || !hi.IsValid() {
		t.Log("splice bounds themselves should remain valid")
		t.Fail()
	}
}

func TestSpliceAggregatesInvalidatorErrors(t *testing.T) {
	tl, root := structures.NewTimeline()
	lo := tl.InsertAfter(root)
	first := tl.InsertAfter(lo)
	second := tl.InsertAfter(first)
	hi := tl.InsertAfter(second)

	boom := errors.New("boom")
	bang := errors.New("bang")
	structures.SetInvalidator(first, func() error { return boom })
	structures.SetInvalidator(second, func() error { return bang })

	err := tl.Splice(lo, hi)
	if err == nil {
		t.Log("expected an aggregated error")
		t.Fail()
	}
}
