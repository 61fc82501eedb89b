package ttb

import (
	"strings"
	"testing"
)

func TestSelectStrategyByDepth(t *testing.T) {
	cases := []struct {
		depth int
		want  TreeStrategy
	}{
		{1, StrategyGemm},
		{3, StrategyGemm},
		{4, StrategyTreeTrav},
		{7, StrategyTreeTrav},
		{10, StrategyTreeTrav},
		{11, StrategyPerfTreeTrav},
		{40, StrategyPerfTreeTrav},
	}
	for _, c := range cases {
		got, err := SelectStrategy(CompileConfig{}, c.depth)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("depth %d: got %s, want %s", c.depth, got, c.want)
		}
	}
}

func TestSelectStrategyOverride(t *testing.T) {
	for _, depth := range []int{1, 7, 40} {
		got, err := SelectStrategy(CompileConfig{TreeImplementation: "tree_trav"}, depth)
		if err != nil {
			t.Fatal(err)
		}
		if got != StrategyTreeTrav {
			t.Errorf("depth %d with override: got %s, want tree_trav", depth, got)
		}
	}
}

func TestSelectStrategyUnknownName(t *testing.T) {
	_, err := SelectStrategy(CompileConfig{TreeImplementation: "bogus"}, 5)
	if err == nil {
		t.Fatal("expected a configuration error for an unknown strategy name")
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Errorf("error %q should name the offending value", err)
	}
}

func TestSelectStrategyCustomThresholds(t *testing.T) {
	cfg := CompileConfig{GemmMaxDepth: 5, TreeTravMaxDepth: 6}
	got, err := SelectStrategy(cfg, 5)
	if err != nil {
		t.Fatal(err)
	}
	if got != StrategyGemm {
		t.Errorf("depth 5 with low=5: got %s, want gemm", got)
	}
	got, err = SelectStrategy(cfg, 7)
	if err != nil {
		t.Fatal(err)
	}
	if got != StrategyPerfTreeTrav {
		t.Errorf("depth 7 with high=6: got %s, want perf_tree_trav", got)
	}
}

func TestSelectStrategyNegativeThresholdDisablesBand(t *testing.T) {
	//Depth is floored at 1, so a negative low threshold keeps even the
	//shallowest ensemble out of the gemm band.
	got, err := SelectStrategy(CompileConfig{GemmMaxDepth: -1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != StrategyTreeTrav {
		t.Errorf("depth 1 with low=-1: got %s, want tree_trav", got)
	}
	got, err = SelectStrategy(CompileConfig{GemmMaxDepth: -1, TreeTravMaxDepth: -1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != StrategyPerfTreeTrav {
		t.Errorf("depth 1 with both bands disabled: got %s, want perf_tree_trav", got)
	}
}

func TestStrategyRoundTrip(t *testing.T) {
	for _, s := range []TreeStrategy{StrategyGemm, StrategyTreeTrav, StrategyPerfTreeTrav} {
		parsed, err := ParseTreeStrategy(s.String())
		if err != nil {
			t.Fatal(err)
		}
		if parsed != s {
			t.Errorf("round trip of %s gave %s", s, parsed)
		}
	}
}
