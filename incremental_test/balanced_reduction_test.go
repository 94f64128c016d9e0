package incremental_test

import (
	"fmt"
	"testing"

	"github.com/loomrun/incremental"
	"github.com/loomrun/incremental/commons"
	"github.com/loomrun/incremental/engines"
	"github.com/loomrun/incremental/memo"
)

// TestBalancedReductionRecomputesLogarithmically sums 10,000 leaves
// through a balanced binary reduction built with nominal memoization,
// each subrange's name deterministically forked from its parent's. A
// single leaf mutation should only dirty the O(log N) nodes on that
// leaf's path to the root, not the whole tree.
func TestBalancedReductionRecomputesLogarithmically(t *testing.T) {
	e := engines.New()
	data := commons.NewComparableData[int]()
	boundsData := commons.NewComparableData[[2]int]()

	const n = 10000
	leaves := make([]incremental.Art[int], n)
	for i := range leaves {
		leaves[i] = incremental.Cell(commons.Gensym(fmt.Sprintf("leaf-%d", i)), 1)
	}

	tb := memo.NewTable[[2]int, int](boundsData, data, "sum-range")

	evalCount := 0
	var sumRange func(name commons.Name, bounds [2]int) (incremental.Art[int], error)
	sumRange = func(name commons.Name, bounds [2]int) (incremental.Art[int], error) {
		return memo.MemoName(e, tb, name, bounds, func(b [2]int) int {
			evalCount++
			lo, hi := b[0], b[1]
			if hi-lo == 1 {
				return incremental.Force(e, leaves[lo])
			}
			mid := (lo + hi) / 2
			leftName, rightName := name.Fork()
			left, err := sumRange(leftName, [2]int{lo, mid})
			if err != nil {
				t.Fatal(err)
			}
			right, err := sumRange(rightName, [2]int{mid, hi})
			if err != nil {
				t.Fatal(err)
			}
			return incremental.Force(e, left) + incremental.Force(e, right)
		})
	}

	root := commons.Gensym("sum-root")
	total, err := sumRange(root, [2]int{0, n})
	if err != nil {
		t.Fatal(err)
	}
	if total.Value != n {
		t.Log("unexpected initial total, got", total.Value)
		t.Fail()
	}

	evalsAfterBuild := evalCount

	if err := incremental.Set(e, leaves[n/2], data, 2); err != nil {
		t.Log("set should not error")
		t.Fail()
	}
	if err := e.Refresh(); err != nil {
		t.Log("refresh should not error")
		t.Fail()
	}

	if total.Value != n+1 {
		t.Log("total should reflect the single leaf's new value, got", total.Value)
		t.Fail()
	}

	evalsAfterMutation := evalCount - evalsAfterBuild
	const logBound = 50
	if evalsAfterMutation > logBound {
		t.Log("expected O(log N) re-evaluations after a single leaf mutation, got", evalsAfterMutation)
		t.Fail()
	}
}
