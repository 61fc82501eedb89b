package ttb

import (
	"github.com/pkg/errors"
)

//noChild marks an absent child reference in raw tree arrays. It never survives
//normalization: leaves come out with self-referencing child ids.
const noChild = -1

//TreeParameters holds one tree's raw attribute arrays as produced by a training
//library. All five arrays are indexed by the same per-tree node id. Lefts and
//Rights contain -1 at leaves; Features and Thresholds are meaningless at leaves;
//Values are meaningless at internal nodes.
type TreeParameters struct {
	Lefts      []int       `json:"lefts"`
	Rights     []int       `json:"rights"`
	Features   []int       `json:"features"`
	Thresholds []float64   `json:"thresholds"`
	Values     [][]float64 `json:"values"`
}

//NumNodes returns the number of nodes in the raw tree.
func (tp TreeParameters) NumNodes() int {
	return len(tp.Lefts)
}

//validate rejects trees whose attribute arrays disagree on length.
func (tp TreeParameters) validate() error {
	n := len(tp.Lefts)
	if len(tp.Rights) != n || len(tp.Features) != n || len(tp.Thresholds) != n || len(tp.Values) != n {
		return errors.Errorf(
			"malformed tree arrays: lefts %d, rights %d, features %d, thresholds %d, values %d",
			len(tp.Lefts), len(tp.Rights), len(tp.Features), len(tp.Thresholds), len(tp.Values))
	}
	if n == 0 {
		return errors.New("malformed tree arrays: empty tree")
	}
	return nil
}

//NormalizedTree is an arena of tree nodes indexed by node id. Former "no child"
//slots are rewritten so that every leaf's Lefts and Rights reference the leaf's
//own id, and leaf Features carry -1. The arena is built fresh from copies of the
//raw arrays and is never mutated afterwards; depth analysis and the strategy
//compilers all read the same instance.
type NormalizedTree struct {
	Lefts      []int
	Rights     []int
	Features   []int
	Thresholds []float64
	Values     [][]float64
}

//NumNodes returns the number of nodes in the arena.
func (nt *NormalizedTree) NumNodes() int {
	return len(nt.Lefts)
}

//IsLeaf reports whether the node with the given id is a leaf, i.e. both of its
//child references point back at itself.
func (nt *NormalizedTree) IsLeaf(id int) bool {
	return nt.Lefts[id] == id && nt.Rights[id] == id
}

//NumClasses returns the width of the leaf value vectors, zero if the tree
//somehow contains no leaf.
func (nt *NormalizedTree) NumClasses() int {
	for id := range nt.Lefts {
		if nt.IsLeaf(id) {
			return len(nt.Values[id])
		}
	}
	return 0
}

//ensureSplittable replaces a degenerate tree whose root is a leaf with an
//equivalent 3-node tree: an internal node splitting on feature 0 at threshold 0
//whose two leaves both carry the root's leaf value. Any input routes to the
//same value, so the constant output is preserved while both compilation
//strategies get the split they require. Trailing nodes unreachable from a leaf
//root contribute nothing to the tree's output and are dropped with it.
func ensureSplittable(tp TreeParameters) TreeParameters {
	if tp.Lefts[0] != noChild || tp.Rights[0] != noChild {
		return tp
	}
	leafValue := tp.Values[0]
	return TreeParameters{
		Lefts:      []int{1, noChild, noChild},
		Rights:     []int{2, noChild, noChild},
		Features:   []int{0, 0, 0},
		Thresholds: []float64{0, 0, 0},
		Values:     [][]float64{make([]float64, len(leafValue)), leafValue, leafValue},
	}
}

//NormalizeTree converts one tree's raw parallel arrays into a NormalizedTree.
//The caller's arrays are never touched: the correction for single-leaf trees and
//the sentinel rewrite both happen on copies.
func NormalizeTree(tp TreeParameters) (*NormalizedTree, error) {
	if err := tp.validate(); err != nil {
		return nil, err
	}
	tp = ensureSplittable(tp)

	n := tp.NumNodes()
	nt := &NormalizedTree{
		Lefts:      make([]int, n),
		Rights:     make([]int, n),
		Features:   make([]int, n),
		Thresholds: make([]float64, n),
		Values:     make([][]float64, n),
	}
	copy(nt.Lefts, tp.Lefts)
	copy(nt.Rights, tp.Rights)
	copy(nt.Features, tp.Features)
	copy(nt.Thresholds, tp.Thresholds)
	copy(nt.Values, tp.Values)

	for id := 0; id < n; id++ {
		left, right := nt.Lefts[id], nt.Rights[id]
		if left < noChild || left >= n {
			return nil, errors.Errorf("node %d: left child %d out of range [0, %d)", id, left, n)
		}
		if right < noChild || right >= n {
			return nil, errors.Errorf("node %d: right child %d out of range [0, %d)", id, right, n)
		}
		if (left == noChild) != (right == noChild) {
			return nil, errors.Errorf("node %d: exactly one child present, tree is not binary-or-leaf", id)
		}
		if left == noChild {
			nt.Lefts[id] = id
			nt.Rights[id] = id
			nt.Features[id] = noChild
			if len(nt.Values[id]) == 0 {
				return nil, errors.Errorf("node %d: leaf carries no value vector", id)
			}
		}
	}
	return nt, nil
}

//leafDistribution returns the value vector a leaf contributes to the compiled
//tensors. Multi-class vectors are normalized to a probability distribution; an
//all-zero vector falls back to the uniform distribution rather than dividing by
//zero. Single-value leaves (regression) pass through unnormalized.
func leafDistribution(value []float64) []float64 {
	if len(value) <= 1 {
		out := make([]float64, len(value))
		copy(out, value)
		return out
	}
	sum := 0.0
	for _, v := range value {
		sum += v
	}
	out := make([]float64, len(value))
	if sum == 0 {
		for i := range out {
			out[i] = 1.0 / float64(len(out))
		}
		return out
	}
	for i, v := range value {
		out[i] = v / sum
	}
	return out
}
