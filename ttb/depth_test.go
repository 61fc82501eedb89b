package ttb

import (
	"testing"
)

//balancedTreeParameters builds a full binary tree with h internal levels; every
//leaf carries the same single value.
func balancedTreeParameters(h int) TreeParameters {
	var tp TreeParameters
	var build func(level int) int
	build = func(level int) int {
		id := len(tp.Lefts)
		tp.Lefts = append(tp.Lefts, -1)
		tp.Rights = append(tp.Rights, -1)
		tp.Features = append(tp.Features, 0)
		tp.Thresholds = append(tp.Thresholds, 0.5)
		tp.Values = append(tp.Values, []float64{1})
		if level < h {
			tp.Lefts[id] = build(level + 1)
			tp.Rights[id] = build(level + 1)
		}
		return id
	}
	build(0)
	return tp
}

func TestDepthOfBalancedTree(t *testing.T) {
	for h := 1; h <= 6; h++ {
		nt, err := NormalizeTree(balancedTreeParameters(h))
		if err != nil {
			t.Fatal(err)
		}
		if nt.NumNodes() != (1<<(h+1))-1 {
			t.Fatalf("height %d: got %d nodes, want %d", h, nt.NumNodes(), (1<<(h+1))-1)
		}
		depth, err := nt.Depth()
		if err != nil {
			t.Fatal(err)
		}
		if depth != h {
			t.Errorf("height %d: got depth %d", h, depth)
		}
	}
}

func TestDepthOfCorrectedSingleLeaf(t *testing.T) {
	nt, err := NormalizeTree(singleLeafTreeParameters([]float64{3}))
	if err != nil {
		t.Fatal(err)
	}
	depth, err := nt.Depth()
	if err != nil {
		t.Fatal(err)
	}
	if depth != 1 {
		t.Errorf("got depth %d, want 1", depth)
	}
}

func TestFindMaxDepthAcrossEnsemble(t *testing.T) {
	var trees []*NormalizedTree
	for _, h := range []int{1, 4, 2} {
		nt, err := NormalizeTree(balancedTreeParameters(h))
		if err != nil {
			t.Fatal(err)
		}
		trees = append(trees, nt)
	}
	maxDepth, err := FindMaxDepth(trees)
	if err != nil {
		t.Fatal(err)
	}
	if maxDepth != 4 {
		t.Errorf("got max depth %d, want 4", maxDepth)
	}
}

func TestDepthDetectsCycle(t *testing.T) {
	//Hand-built broken arena: two internal nodes referencing each other.
	nt := &NormalizedTree{
		Lefts:      []int{1, 0},
		Rights:     []int{1, 0},
		Features:   []int{0, 0},
		Thresholds: []float64{0, 0},
		Values:     [][]float64{{0}, {0}},
	}
	if _, err := nt.Depth(); err == nil {
		t.Fatal("expected an invariant violation for cyclic child references")
	}
}
