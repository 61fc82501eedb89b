package ttb

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

//scaleOperator multiplies its single input elementwise, standing in for any
//non-tree operator in a wired graph.
type scaleOperator struct {
	name   string
	input  string
	output string
	factor float64
}

func (op *scaleOperator) Name() string         { return op.name }
func (op *scaleOperator) InputNames() []string { return []string{op.input} }
func (op *scaleOperator) OutputNames() []string {
	return []string{op.output}
}

func (op *scaleOperator) Run(inputs []*mat.Dense) ([]*mat.Dense, error) {
	var out mat.Dense
	out.Scale(op.factor, inputs[0])
	return []*mat.Dense{&out}, nil
}

func TestCompiledModelOrdersOperators(t *testing.T) {
	compiled, err := CompileEnsemble(TreeEnsemble{
		Trees:       []TreeParameters{depthTwoTreeParameters()},
		NumFeatures: 2,
	}, CompileConfig{})
	if err != nil {
		t.Fatal(err)
	}

	//Operators are handed over out of evaluation order on purpose.
	model, err := NewCompiledModel(
		[]string{"features"},
		[]string{"scores"},
		[]Operator{
			&scaleOperator{name: "halve", input: "raw_scores", output: "scores", factor: 0.5},
			&EnsembleOperator{OperatorName: "forest", Input: "features", Output: "raw_scores", Ensemble: compiled},
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	outputs, err := model.Evaluate(mat.NewDense(1, 2, []float64{0.2, 0}))
	if err != nil {
		t.Fatal(err)
	}
	if len(outputs) != 1 {
		t.Fatalf("got %d outputs, want 1", len(outputs))
	}
	if got := outputs[0].At(0, 0); got != 0.5 {
		t.Errorf("got %v, want the tree score halved to 0.5", got)
	}
}

func TestCompiledModelRejectsMissingProducer(t *testing.T) {
	_, err := NewCompiledModel(
		[]string{"features"},
		[]string{"scores"},
		[]Operator{
			&scaleOperator{name: "halve", input: "nowhere", output: "scores", factor: 0.5},
		},
	)
	if err == nil {
		t.Fatal("expected an error for an input with no producer")
	}
}

func TestCompiledModelRejectsDuplicateOperatorNames(t *testing.T) {
	_, err := NewCompiledModel(
		[]string{"features"},
		[]string{"b"},
		[]Operator{
			&scaleOperator{name: "scale", input: "features", output: "a", factor: 2},
			&scaleOperator{name: "scale", input: "a", output: "b", factor: 3},
		},
	)
	if err == nil {
		t.Fatal("expected an error for two operators sharing a name")
	}
	if !strings.Contains(err.Error(), "scale") {
		t.Errorf("error %q should name the duplicated operator", err)
	}
}

func TestCompiledModelRejectsCycle(t *testing.T) {
	_, err := NewCompiledModel(
		[]string{"features"},
		[]string{"b"},
		[]Operator{
			&scaleOperator{name: "first", input: "b", output: "a", factor: 1},
			&scaleOperator{name: "second", input: "a", output: "b", factor: 1},
		},
	)
	if err == nil {
		t.Fatal("expected an error for a cyclic operator graph")
	}
}

func TestCompiledModelRejectsInputCountMismatch(t *testing.T) {
	model, err := NewCompiledModel([]string{"features"}, []string{"features"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := model.Evaluate(); err == nil {
		t.Fatal("expected an error for a missing input tensor")
	}
}
