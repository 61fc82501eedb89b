package ttb

import (
	"github.com/pkg/errors"
)

//nodeDepth descends from the given node and returns the maximum depth below it.
//A leaf contributes current+1. A node with exactly one real child should not
//exist under the binary-or-leaf invariant but is handled by descending into the
//real child only. The recursion is bounded by the node count: exceeding it means
//the child references form a cycle, which is an invariant violation.
func (nt *NormalizedTree) nodeDepth(id, current int) (int, error) {
	if current >= nt.NumNodes() {
		return 0, errors.Errorf("node %d: child references form a cycle", id)
	}
	leftSelf := nt.Lefts[id] == id
	rightSelf := nt.Rights[id] == id
	switch {
	case leftSelf && rightSelf:
		return current + 1, nil
	case rightSelf:
		return nt.nodeDepth(nt.Lefts[id], current+1)
	case leftSelf:
		return nt.nodeDepth(nt.Rights[id], current+1)
	default:
		leftDepth, err := nt.nodeDepth(nt.Lefts[id], current+1)
		if err != nil {
			return 0, err
		}
		rightDepth, err := nt.nodeDepth(nt.Rights[id], current+1)
		if err != nil {
			return 0, err
		}
		if leftDepth > rightDepth {
			return leftDepth, nil
		}
		return rightDepth, nil
	}
}

//Depth returns the maximum root-to-leaf depth of the tree. The root contributes
//no depth on its own: a tree whose root is an internal node with two leaf
//children has depth 1.
func (nt *NormalizedTree) Depth() (int, error) {
	return nt.nodeDepth(0, -1)
}

//FindMaxDepth returns the maximum depth across an ensemble of normalized trees,
//floored at 1 so that ensembles of degeneracy-corrected single-leaf trees still
//report a usable depth.
func FindMaxDepth(trees []*NormalizedTree) (int, error) {
	maxDepth := 1
	for treeIndex, tree := range trees {
		depth, err := tree.Depth()
		if err != nil {
			return 0, errors.Wrapf(err, "tree %d", treeIndex)
		}
		if depth > maxDepth {
			maxDepth = depth
		}
	}
	return maxDepth, nil
}
