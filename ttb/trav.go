package ttb

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

//TravTree is one tree compiled for the tree_trav strategy: flattened per-node
//arrays indexed by node id, ready for index-based traversal. Leaves keep the
//self-referencing child convention and a -1 feature, which the evaluator
//branches on to detect arrival.
type TravTree struct {
	Lefts      []int
	Rights     []int
	Features   []int
	Thresholds []float64
	Values     [][]float64
}

//CompileTravTree builds the traversal arrays for one normalized tree. The only
//transformation beyond carrying the arena through is the leaf value
//normalization shared with the gemm class layer.
func CompileTravTree(nt *NormalizedTree) *TravTree {
	n := nt.NumNodes()
	tt := &TravTree{
		Lefts:      make([]int, n),
		Rights:     make([]int, n),
		Features:   make([]int, n),
		Thresholds: make([]float64, n),
		Values:     make([][]float64, n),
	}
	copy(tt.Lefts, nt.Lefts)
	copy(tt.Rights, nt.Rights)
	copy(tt.Features, nt.Features)
	copy(tt.Thresholds, nt.Thresholds)
	for id := 0; id < n; id++ {
		if nt.IsLeaf(id) {
			tt.Values[id] = leafDistribution(nt.Values[id])
		} else {
			tt.Values[id] = make([]float64, len(nt.Values[id]))
			copy(tt.Values[id], nt.Values[id])
		}
	}
	return tt
}

//NumClasses returns the width of the leaf value vectors.
func (tt *TravTree) NumClasses() int {
	for id := range tt.Lefts {
		if tt.Features[id] == noChild {
			return len(tt.Values[id])
		}
	}
	return 0
}

//Predict walks the flattened arrays for every feature row and returns the
//reached leaf's value vector per row.
func (tt *TravTree) Predict(features *mat.Dense) *mat.Dense {
	h := Height(features)
	out := mat.NewDense(h, tt.NumClasses(), nil)
	for p := 0; p < h; p++ {
		id := 0
		for tt.Features[id] != noChild {
			if features.At(p, tt.Features[id]) <= tt.Thresholds[id] {
				id = tt.Lefts[id]
			} else {
				id = tt.Rights[id]
			}
		}
		out.SetRow(p, tt.Values[id])
	}
	return out
}

//PerfTravEnsemble is a whole ensemble compiled for the perf_tree_trav strategy:
//per-tree arrays padded to the widest tree and stacked into [numTrees, maxNodes]
//tensors ([numTrees, maxNodes, numClasses] for the values). Leaf features are
//clamped to 0 here so a traversal step is a plain index computation with no leaf
//branch: stepping a leaf re-selects the leaf itself, which makes a fixed
//MaxDepth iterations sufficient and surplus iterations harmless.
type PerfTravEnsemble struct {
	NumTrees   int
	MaxNodes   int
	MaxDepth   int
	NumClasses int
	Lefts      *tensor.Dense
	Rights     *tensor.Dense
	Features   *tensor.Dense
	Thresholds *tensor.Dense
	Values     *tensor.Dense
}

//CompilePerfTravEnsemble stacks per-tree traversal arrays into the padded
//batched form. maxDepth bounds the number of traversal steps the evaluator
//performs and must be the ensemble's maximum depth or more.
func CompilePerfTravEnsemble(trees []*TravTree, maxDepth int) (*PerfTravEnsemble, error) {
	if len(trees) == 0 {
		return nil, errors.New("cannot batch an empty ensemble")
	}
	maxNodes := 0
	numClasses := trees[0].NumClasses()
	for treeIndex, tree := range trees {
		if len(tree.Lefts) > maxNodes {
			maxNodes = len(tree.Lefts)
		}
		if tree.NumClasses() != numClasses {
			return nil, errors.Errorf("tree %d: %d classes, ensemble has %d", treeIndex, tree.NumClasses(), numClasses)
		}
	}

	numTrees := len(trees)
	lefts := make([]int, numTrees*maxNodes)
	rights := make([]int, numTrees*maxNodes)
	featureIds := make([]int, numTrees*maxNodes)
	thresholds := make([]float64, numTrees*maxNodes)
	values := make([]float64, numTrees*maxNodes*numClasses)

	for t, tree := range trees {
		for id := 0; id < maxNodes; id++ {
			flat := t*maxNodes + id
			if id >= len(tree.Lefts) {
				//Padding slots are unreachable self-referencing leaves.
				lefts[flat] = id
				rights[flat] = id
				continue
			}
			lefts[flat] = tree.Lefts[id]
			rights[flat] = tree.Rights[id]
			if tree.Features[id] != noChild {
				featureIds[flat] = tree.Features[id]
			}
			thresholds[flat] = tree.Thresholds[id]
			copy(values[flat*numClasses:(flat+1)*numClasses], tree.Values[id])
		}
	}

	return &PerfTravEnsemble{
		NumTrees:   numTrees,
		MaxNodes:   maxNodes,
		MaxDepth:   maxDepth,
		NumClasses: numClasses,
		Lefts:      tensor.New(tensor.WithShape(numTrees, maxNodes), tensor.WithBacking(lefts)),
		Rights:     tensor.New(tensor.WithShape(numTrees, maxNodes), tensor.WithBacking(rights)),
		Features:   tensor.New(tensor.WithShape(numTrees, maxNodes), tensor.WithBacking(featureIds)),
		Thresholds: tensor.New(tensor.WithShape(numTrees, maxNodes), tensor.WithBacking(thresholds)),
		Values:     tensor.New(tensor.WithShape(numTrees, maxNodes, numClasses), tensor.WithBacking(values)),
	}, nil
}

//Predict steps every feature row through every tree for exactly MaxDepth
//iterations and returns the summed leaf value vectors per row.
func (pe *PerfTravEnsemble) Predict(features *mat.Dense) *mat.Dense {
	lefts := pe.Lefts.Data().([]int)
	rights := pe.Rights.Data().([]int)
	featureIds := pe.Features.Data().([]int)
	thresholds := pe.Thresholds.Data().([]float64)
	values := pe.Values.Data().([]float64)

	h := Height(features)
	out := mat.NewDense(h, pe.NumClasses, nil)
	for p := 0; p < h; p++ {
		for t := 0; t < pe.NumTrees; t++ {
			base := t * pe.MaxNodes
			id := 0
			for step := 0; step < pe.MaxDepth; step++ {
				flat := base + id
				if features.At(p, featureIds[flat]) <= thresholds[flat] {
					id = lefts[flat]
				} else {
					id = rights[flat]
				}
			}
			flat := base + id
			for class := 0; class < pe.NumClasses; class++ {
				out.Set(p, class, out.At(p, class)+values[flat*pe.NumClasses+class])
			}
		}
	}
	return out
}
