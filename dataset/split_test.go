package dataset

import (
	"fmt"
	"testing"
)

func TestAssignSplitDeterministic(t *testing.T) {
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("record-%d", i)
		first, err := AssignSplit(id, 0.3)
		if err != nil {
			t.Fatalf("assign: %v", err)
		}
		second, err := AssignSplit(id, 0.3)
		if err != nil {
			t.Fatalf("assign: %v", err)
		}
		if first != second {
			t.Fatalf("split for %q not deterministic: %s vs %s", id, first, second)
		}
	}
}

func TestAssignSplitFraction(t *testing.T) {
	const n = 5000
	validation := 0
	for i := 0; i < n; i++ {
		split, err := AssignSplit(fmt.Sprintf("uniprot-%d", i), 0.2)
		if err != nil {
			t.Fatal(err)
		}
		if split == SplitValidation {
			validation++
		}
	}
	ratio := float64(validation) / n
	if ratio < 0.15 || ratio > 0.25 {
		t.Fatalf("validation ratio %v far from requested 0.2", ratio)
	}
}

func TestAssignSplitZeroFraction(t *testing.T) {
	split, err := AssignSplit("any", 0)
	if err != nil {
		t.Fatal(err)
	}
	if split != SplitTrain {
		t.Fatalf("expected train, got %s", split)
	}
}

func TestAssignSplitInvalidFraction(t *testing.T) {
	for _, fraction := range []float64{-0.1, 1, 1.5} {
		if _, err := AssignSplit("x", fraction); err == nil {
			t.Fatalf("expected error for fraction %v", fraction)
		}
	}
}
