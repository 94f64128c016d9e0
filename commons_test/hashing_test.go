package commons_test

import (
	"testing"

	"github.com/loomrun/incremental/commons"
)

func TestComparableDataEqual(t *testing.T) {
	data := commons.NewComparableData[int]()
	if !data.Equal(3, 3) {
		t.Log("expected 3 == 3")
		t.Fail()
	} else if data.Equal(3, 4) {
		t.Log("expected 3 != 4")
		t.Fail()
	}
}

func TestComparableDataHashStable(t *testing.T) {
	data := commons.NewComparableData[string]()
	first := data.Hash(7, "hello")
	second := data.Hash(7, "hello")
	if first != second {
		t.Log("hash should be stable for the same instance and seed")
		t.Fail()
	}
}

func TestComparableDataHashSeedSensitive(t *testing.T) {
	data := commons.NewComparableData[string]()
	a := data.Hash(1, "same")
	b := data.Hash(2, "same")
	if a == b {
		t.Log("different seeds should very likely produce different hashes")
		t.Fail()
	}
}

func TestComparableDataShowSanitize(t *testing.T) {
	data := commons.NewComparableData[int]()
	if data.Show(42) != "42" {
		t.Log("unexpected Show output")
		t.Fail()
	} else if data.Sanitize(42) != 42 {
		t.Log("Sanitize should be identity for comparable types")
		t.Fail()
	}
}
