package ttb

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

//TreeEnsemble is the raw compilation input: one TreeParameters per tree plus
//the ensemble-wide feature count.
type TreeEnsemble struct {
	Trees       []TreeParameters `json:"trees"`
	NumFeatures int              `json:"num_features"`
}

//TreeExtractor maps a source tree-model object onto TreeParameters. Each source
//model family (sklearn-style arrays, xgboost dumps, ...) plugs in its own.
type TreeExtractor func(treeInfo interface{}) (TreeParameters, error)

//CollectTreeParameters applies an extractor to every raw tree object of a
//source model.
func CollectTreeParameters(treeInfos []interface{}, extract TreeExtractor) ([]TreeParameters, error) {
	trees := make([]TreeParameters, 0, len(treeInfos))
	for treeIndex, treeInfo := range treeInfos {
		tp, err := extract(treeInfo)
		if err != nil {
			return nil, errors.Wrapf(err, "tree %d", treeIndex)
		}
		trees = append(trees, tp)
	}
	return trees, nil
}

//AnalyzeEnsemble normalizes every tree, measures the ensemble's maximum depth
//and selects the evaluation strategy, all in one pass so depth analysis and the
//compilers see the same normalized data.
func AnalyzeEnsemble(trees []TreeParameters, cfg CompileConfig) ([]*NormalizedTree, int, TreeStrategy, error) {
	normalized := make([]*NormalizedTree, 0, len(trees))
	for treeIndex, tp := range trees {
		nt, err := NormalizeTree(tp)
		if err != nil {
			return nil, 0, 0, errors.Wrapf(err, "tree %d", treeIndex)
		}
		normalized = append(normalized, nt)
	}
	maxDepth, err := FindMaxDepth(normalized)
	if err != nil {
		return nil, 0, 0, err
	}
	strategy, err := SelectStrategy(cfg, maxDepth)
	if err != nil {
		return nil, 0, 0, err
	}
	return normalized, maxDepth, strategy, nil
}

//CompiledEnsemble is the compilation result: a tagged strategy plus the tensor
//bundle belonging to it. Exactly one of the payload fields is populated,
//matching Strategy.
type CompiledEnsemble struct {
	Strategy    TreeStrategy
	MaxDepth    int
	NumFeatures int
	GemmTrees   []*GemmTree
	TravTrees   []*TravTree
	PerfTrav    *PerfTravEnsemble
}

//CompileEnsemble normalizes, analyzes and compiles a whole ensemble under the
//given configuration. Trees compile independently, so cfg.ThreadsNum > 1 fans
//the per-tree work out over a task pool.
func CompileEnsemble(ensemble TreeEnsemble, cfg CompileConfig) (*CompiledEnsemble, error) {
	if len(ensemble.Trees) == 0 {
		return nil, errors.New("ensemble contains no trees")
	}
	if ensemble.NumFeatures < 1 {
		return nil, errors.Errorf("ensemble feature count %d must be positive", ensemble.NumFeatures)
	}
	normalized, maxDepth, strategy, err := AnalyzeEnsemble(ensemble.Trees, cfg)
	if err != nil {
		return nil, err
	}
	for treeIndex, nt := range normalized {
		for id, feature := range nt.Features {
			if feature != noChild && (feature < 0 || feature >= ensemble.NumFeatures) {
				return nil, errors.Errorf("tree %d: node %d: split feature %d out of range [0, %d)",
					treeIndex, id, feature, ensemble.NumFeatures)
			}
		}
	}

	compiled := &CompiledEnsemble{
		Strategy:    strategy,
		MaxDepth:    maxDepth,
		NumFeatures: ensemble.NumFeatures,
	}

	switch strategy {
	case StrategyGemm:
		compiled.GemmTrees = make([]*GemmTree, len(normalized))
		err = forEachTree(len(normalized), cfg.ThreadsNum, func(treeIndex int) error {
			gt, compileErr := CompileGemmTree(normalized[treeIndex], ensemble.NumFeatures)
			if compileErr != nil {
				return compileErr
			}
			compiled.GemmTrees[treeIndex] = gt
			return nil
		})
	case StrategyTreeTrav:
		compiled.TravTrees = make([]*TravTree, len(normalized))
		err = forEachTree(len(normalized), cfg.ThreadsNum, func(treeIndex int) error {
			compiled.TravTrees[treeIndex] = CompileTravTree(normalized[treeIndex])
			return nil
		})
	case StrategyPerfTreeTrav:
		travTrees := make([]*TravTree, len(normalized))
		err = forEachTree(len(normalized), cfg.ThreadsNum, func(treeIndex int) error {
			travTrees[treeIndex] = CompileTravTree(normalized[treeIndex])
			return nil
		})
		if err == nil {
			compiled.PerfTrav, err = CompilePerfTravEnsemble(travTrees, maxDepth)
		}
	}
	if err != nil {
		return nil, err
	}
	return compiled, nil
}

//Predict evaluates the compiled ensemble on a batch of feature rows, summing
//the per-tree value vectors the way boosted models accumulate their stages.
func (ce *CompiledEnsemble) Predict(features *mat.Dense) (*mat.Dense, error) {
	_, w := features.Dims()
	if w != ce.NumFeatures {
		return nil, errors.Errorf("feature matrix has %d columns, model expects %d", w, ce.NumFeatures)
	}
	switch ce.Strategy {
	case StrategyGemm:
		var sum *mat.Dense
		for _, gt := range ce.GemmTrees {
			prediction := gt.Predict(features)
			if sum == nil {
				sum = prediction
			} else {
				sum.Add(sum, prediction)
			}
		}
		return sum, nil
	case StrategyTreeTrav:
		var sum *mat.Dense
		for _, tt := range ce.TravTrees {
			prediction := tt.Predict(features)
			if sum == nil {
				sum = prediction
			} else {
				sum.Add(sum, prediction)
			}
		}
		return sum, nil
	case StrategyPerfTreeTrav:
		return ce.PerfTrav.Predict(features), nil
	}
	return nil, errors.Errorf("tree implementation %q not found", ce.Strategy)
}

//PredictClass evaluates the ensemble and returns the argmax class per row.
func (ce *CompiledEnsemble) PredictClass(features *mat.Dense) ([]int, error) {
	prediction, err := ce.Predict(features)
	if err != nil {
		return nil, err
	}
	h, w := prediction.Dims()
	classes := make([]int, h)
	for p := 0; p < h; p++ {
		best := 0
		for q := 1; q < w; q++ {
			if prediction.At(p, q) > prediction.At(p, best) {
				best = q
			}
		}
		classes[p] = best
	}
	return classes, nil
}
