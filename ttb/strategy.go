package ttb

import (
	"github.com/pkg/errors"
)

//TreeStrategy identifies one of the three numeric evaluation strategies a tree
//ensemble can be compiled into.
type TreeStrategy int

const (
	//StrategyGemm encodes each tree as a 3-layer matrix-multiplication network.
	StrategyGemm TreeStrategy = iota
	//StrategyTreeTrav evaluates flattened per-tree arrays by index walking.
	StrategyTreeTrav
	//StrategyPerfTreeTrav evaluates batched padded arrays with branch-free
	//stepping, trading memory for less branching on deep trees.
	StrategyPerfTreeTrav
)

//String returns the configuration name of the strategy.
func (s TreeStrategy) String() string {
	switch s {
	case StrategyGemm:
		return "gemm"
	case StrategyTreeTrav:
		return "tree_trav"
	case StrategyPerfTreeTrav:
		return "perf_tree_trav"
	}
	return "unknown"
}

//ParseTreeStrategy maps a configuration string onto a TreeStrategy. An
//unrecognized name is a configuration error carrying the offending value.
func ParseTreeStrategy(name string) (TreeStrategy, error) {
	switch name {
	case "gemm":
		return StrategyGemm, nil
	case "tree_trav":
		return StrategyTreeTrav, nil
	case "perf_tree_trav":
		return StrategyPerfTreeTrav, nil
	}
	return 0, errors.Errorf("tree implementation %q not found", name)
}

//Default depth thresholds for the strategy heuristic. GEMM matrix sizes grow
//combinatorially with depth, so it only pays off for shallow ensembles; the
//traversal strategies degrade more gracefully.
const (
	DefaultGemmMaxDepth     = 3
	DefaultTreeTravMaxDepth = 10
)

//CompileConfig collects the options steering ensemble compilation.
type CompileConfig struct {
	//TreeImplementation forces a strategy by name; empty selects by depth.
	TreeImplementation string `json:"tree_implementation,omitempty"`
	//GemmMaxDepth and TreeTravMaxDepth override the heuristic thresholds;
	//zero means the default. Ensemble depth is never below 1, so a negative
	//threshold sits under every depth and disables that strategy's band.
	GemmMaxDepth     int `json:"gemm_max_depth,omitempty"`
	TreeTravMaxDepth int `json:"tree_trav_max_depth,omitempty"`
	//ThreadsNum sets how many trees compile concurrently; values below 2
	//keep compilation sequential.
	ThreadsNum int `json:"threads_num,omitempty"`
}

func (cfg CompileConfig) thresholds() (low, high int) {
	low, high = cfg.GemmMaxDepth, cfg.TreeTravMaxDepth
	if low == 0 {
		low = DefaultGemmMaxDepth
	}
	if high == 0 {
		high = DefaultTreeTravMaxDepth
	}
	return low, high
}

//SelectStrategy picks the evaluation strategy from an explicit configuration
//override or, absent one, from the ensemble's maximum depth.
func SelectStrategy(cfg CompileConfig, maxDepth int) (TreeStrategy, error) {
	if cfg.TreeImplementation != "" {
		return ParseTreeStrategy(cfg.TreeImplementation)
	}
	low, high := cfg.thresholds()
	switch {
	case maxDepth <= low:
		return StrategyGemm, nil
	case maxDepth <= high:
		return StrategyTreeTrav, nil
	}
	return StrategyPerfTreeTrav, nil
}
