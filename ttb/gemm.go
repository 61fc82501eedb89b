package ttb

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

//GemmTree is one tree compiled for the gemm strategy: three layers of weights
//and biases emulating the tree as a matrix-multiplication network.
//
//SplitWeight has one one-hot row per internal node; evaluated against an input
//row, output j minus SplitBias[j] is non-positive exactly when the input takes
//the left branch at split j. PathWeight has one row per leaf with +1 at every
//ancestor split where the leaf's path goes left, -1 where it goes right; the row
//applied to the 0/1 split outcomes equals PathBias (the count of left decisions
//on the path) exactly when the input reaches that leaf. ClassWeight's columns
//are the leaf value vectors, so multiplying the leaf indicator by it selects the
//reached leaf's value without branching.
type GemmTree struct {
	SplitWeight *mat.Dense // numSplits x numFeatures
	SplitBias   []float64  // numSplits
	PathWeight  *mat.Dense // numLeaves x numSplits
	PathBias    []float64  // numLeaves
	ClassWeight *mat.Dense // numClasses x numLeaves
}

//NumLeaves returns the number of leaves the tree was compiled with.
func (gt *GemmTree) NumLeaves() int {
	rows, _ := gt.PathWeight.Dims()
	return rows
}

//CompileGemmTree builds the three-layer gemm encoding of one normalized tree.
//numFeatures is the ensemble-wide feature count and fixes the split layer's
//column count.
func CompileGemmTree(nt *NormalizedTree, numFeatures int) (*GemmTree, error) {
	if numFeatures < 1 {
		return nil, errors.Errorf("ensemble feature count %d must be positive", numFeatures)
	}
	n := nt.NumNodes()

	//Internal nodes get consecutive split indices in node-id order.
	splitIndex := make([]int, n)
	numSplits := 0
	for id := 0; id < n; id++ {
		if nt.IsLeaf(id) {
			splitIndex[id] = -1
			continue
		}
		splitIndex[id] = numSplits
		numSplits++
	}

	splitWeight := mat.NewDense(numSplits, numFeatures, nil)
	splitBias := make([]float64, 0, numSplits)
	for id := 0; id < n; id++ {
		if nt.IsLeaf(id) {
			continue
		}
		feature := nt.Features[id]
		if feature < 0 || feature >= numFeatures {
			return nil, errors.Errorf("node %d: split feature %d out of range [0, %d)", id, feature, numFeatures)
		}
		splitWeight.Set(splitIndex[id], feature, 1)
		splitBias = append(splitBias, nt.Thresholds[id])
	}

	//Depth-first enumeration of root-to-leaf paths with an explicit stack.
	//Recursion would hit stack limits on pathologically deep trees.
	var pathRows [][]float64
	var pathBias []float64
	var classColumns [][]float64

	path := []int{0}
	visited := make([]bool, n)

	for len(path) > 0 {
		id := path[len(path)-1]
		visited[id] = true
		switch {
		case nt.IsLeaf(id):
			row := make([]float64, numSplits)
			numPositive := 0
			for j := 0; j < len(path)-1; j++ {
				parent, child := path[j], path[j+1]
				switch child {
				case nt.Lefts[parent]:
					row[splitIndex[parent]] = 1
					numPositive++
				case nt.Rights[parent]:
					row[splitIndex[parent]] = -1
				default:
					return nil, errors.Errorf(
						"inconsistent state: node %d is neither left nor right child of node %d", child, parent)
				}
			}
			pathRows = append(pathRows, row)
			pathBias = append(pathBias, float64(numPositive))
			classColumns = append(classColumns, leafDistribution(nt.Values[id]))
			path = path[:len(path)-1]
		case !visited[nt.Lefts[id]]:
			path = append(path, nt.Lefts[id])
		case !visited[nt.Rights[id]]:
			path = append(path, nt.Rights[id])
		default:
			path = path[:len(path)-1]
		}
	}

	numLeaves := len(pathRows)
	numClasses := len(classColumns[0])

	pathWeight := mat.NewDense(numLeaves, numSplits, nil)
	for leaf, row := range pathRows {
		pathWeight.SetRow(leaf, row)
	}

	classWeight := mat.NewDense(numClasses, numLeaves, nil)
	for leaf, column := range classColumns {
		if len(column) != numClasses {
			return nil, errors.Errorf("leaf value width %d differs from %d", len(column), numClasses)
		}
		for class := 0; class < numClasses; class++ {
			classWeight.Set(class, leaf, column[class])
		}
	}

	return &GemmTree{
		SplitWeight: splitWeight,
		SplitBias:   splitBias,
		PathWeight:  pathWeight,
		PathBias:    pathBias,
		ClassWeight: classWeight,
	}, nil
}

//pathIndicator evaluates the first two layers for a batch of inputs and returns
//the per-leaf 0/1 indicator matrix (one row per input, one column per leaf).
func (gt *GemmTree) pathIndicator(features *mat.Dense) *mat.Dense {
	var splitOut mat.Dense
	splitOut.Mul(features, gt.SplitWeight.T())

	h, numSplits := splitOut.Dims()
	decisions := mat.NewDense(h, numSplits, nil)
	for p := 0; p < h; p++ {
		for q := 0; q < numSplits; q++ {
			//Non-positive split output means the input goes left.
			if splitOut.At(p, q)-gt.SplitBias[q] <= 0 {
				decisions.Set(p, q, 1)
			}
		}
	}

	var pathOut mat.Dense
	pathOut.Mul(decisions, gt.PathWeight.T())

	numLeaves := gt.NumLeaves()
	indicator := mat.NewDense(h, numLeaves, nil)
	for p := 0; p < h; p++ {
		for leaf := 0; leaf < numLeaves; leaf++ {
			//Both sides are small integer counts, so exact comparison is safe.
			if pathOut.At(p, leaf) == gt.PathBias[leaf] {
				indicator.Set(p, leaf, 1)
			}
		}
	}
	return indicator
}

//Predict evaluates the compiled tree on a batch of feature rows and returns one
//value vector per row.
func (gt *GemmTree) Predict(features *mat.Dense) *mat.Dense {
	indicator := gt.pathIndicator(features)
	var out mat.Dense
	out.Mul(indicator, gt.ClassWeight.T())
	return &out
}
