package train

import (
	"math/rand"
	"testing"
)

func altLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = "no"
		} else {
			out[i] = "yes"
		}
	}
	return out
}

func TestSplit_SameSeedSamePartition(t *testing.T) {
	labels := altLabels(20)
	tr1, ev1, err := Split(labels, 0.25, true, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	tr2, ev2, err := Split(labels, 0.25, true, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(tr1) != len(tr2) || len(ev1) != len(ev2) {
		t.Fatalf("partition sizes differ: %d/%d vs %d/%d", len(tr1), len(ev1), len(tr2), len(ev2))
	}
	for i := range tr1 {
		if tr1[i] != tr2[i] {
			t.Fatalf("train partition differs at %d: %d vs %d", i, tr1[i], tr2[i])
		}
	}
	for i := range ev1 {
		if ev1[i] != ev2[i] {
			t.Fatalf("eval partition differs at %d: %d vs %d", i, ev1[i], ev2[i])
		}
	}
}

func TestSplit_StratifiedKeepsClassBalance(t *testing.T) {
	labels := altLabels(16) // 8 of each class
	_, eval, err := Split(labels, 0.25, true, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(eval) != 4 {
		t.Fatalf("want 4 eval rows, got %d", len(eval))
	}
	counts := map[string]int{}
	for _, i := range eval {
		counts[labels[i]]++
	}
	if counts["yes"] != 2 || counts["no"] != 2 {
		t.Fatalf("want 2 eval rows per class, got %v", counts)
	}
}

func TestSplit_PartitionsAreDisjointAndComplete(t *testing.T) {
	labels := altLabels(11)
	train, eval, err := Split(labels, 0.3, false, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	seen := map[int]int{}
	for _, i := range train {
		seen[i]++
	}
	for _, i := range eval {
		seen[i]++
	}
	if len(seen) != 11 {
		t.Fatalf("want all 11 rows assigned, got %d", len(seen))
	}
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("row %d assigned %d times", i, c)
		}
	}
}

func TestSplit_SingleMemberClassFails(t *testing.T) {
	labels := []string{"no", "no", "no", "yes"}
	_, _, err := Split(labels, 0.25, true, rand.New(rand.NewSource(1)))
	if err == nil {
		t.Fatal("expected error for a one-row class under stratification")
	}
}

func TestSplit_RejectsDegenerateRatio(t *testing.T) {
	if _, _, err := Split(altLabels(10), 1.0, false, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected error for ratio 1.0")
	}
}
