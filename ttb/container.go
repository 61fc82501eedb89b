package ttb

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

//Operator is one node in a compiled operator graph. Operators consume and
//produce named tensors; the container wires them together by name.
type Operator interface {
	Name() string
	InputNames() []string
	OutputNames() []string
	Run(inputs []*mat.Dense) ([]*mat.Dense, error)
}

//EnsembleOperator exposes a compiled tree ensemble as a single operator.
type EnsembleOperator struct {
	OperatorName string
	Input        string
	Output       string
	Ensemble     *CompiledEnsemble
}

//Name implements Operator.
func (op *EnsembleOperator) Name() string { return op.OperatorName }

//InputNames implements Operator.
func (op *EnsembleOperator) InputNames() []string { return []string{op.Input} }

//OutputNames implements Operator.
func (op *EnsembleOperator) OutputNames() []string { return []string{op.Output} }

//Run implements Operator by evaluating the compiled ensemble.
func (op *EnsembleOperator) Run(inputs []*mat.Dense) ([]*mat.Dense, error) {
	prediction, err := op.Ensemble.Predict(inputs[0])
	if err != nil {
		return nil, err
	}
	return []*mat.Dense{prediction}, nil
}

//CompiledModel threads named tensors through a wired operator graph. Operators
//are sorted topologically at construction time, so Evaluate is a straight walk.
type CompiledModel struct {
	InputNames  []string
	OutputNames []string
	operators   []Operator
}

//NewCompiledModel validates and topologically orders the operator graph. Every
//operator input must be either a model input or some operator's output; a graph
//that cannot be ordered (a cycle, or a missing producer) is rejected.
func NewCompiledModel(inputNames, outputNames []string, operators []Operator) (*CompiledModel, error) {
	available := make(map[string]bool)
	for _, name := range inputNames {
		available[name] = true
	}

	//Scheduling tracks operators by name, so names must be unique.
	seen := make(map[string]bool)
	for _, op := range operators {
		if seen[op.Name()] {
			return nil, errors.Errorf("operator name %q used more than once", op.Name())
		}
		seen[op.Name()] = true
	}

	producers := make(map[string]Operator)
	for _, op := range operators {
		for _, name := range op.OutputNames() {
			if available[name] || producers[name] != nil {
				return nil, errors.Errorf("operator %s: output %q already produced", op.Name(), name)
			}
			producers[name] = op
		}
	}
	for _, op := range operators {
		for _, name := range op.InputNames() {
			if !available[name] && producers[name] == nil {
				return nil, errors.Errorf("operator %s: input %q has no producer", op.Name(), name)
			}
		}
	}

	//Kahn-style ordering: repeatedly schedule operators whose inputs are all
	//available.
	ordered := make([]Operator, 0, len(operators))
	scheduled := make(map[string]bool)
	for len(ordered) < len(operators) {
		progress := false
		for _, op := range operators {
			if scheduled[op.Name()] {
				continue
			}
			ready := true
			for _, name := range op.InputNames() {
				if !available[name] {
					ready = false
					break
				}
			}
			if !ready {
				continue
			}
			ordered = append(ordered, op)
			scheduled[op.Name()] = true
			for _, name := range op.OutputNames() {
				available[name] = true
			}
			progress = true
		}
		if !progress {
			return nil, errors.New("operator graph contains a cycle")
		}
	}

	for _, name := range outputNames {
		if !available[name] {
			return nil, errors.Errorf("model output %q has no producer", name)
		}
	}

	return &CompiledModel{InputNames: inputNames, OutputNames: outputNames, operators: ordered}, nil
}

//Evaluate maps the given tensors onto the model's input names, runs every
//operator in topological order and collects the model's named outputs.
func (model *CompiledModel) Evaluate(inputs ...*mat.Dense) ([]*mat.Dense, error) {
	if len(inputs) != len(model.InputNames) {
		return nil, errors.Errorf("got %d inputs, model expects %d", len(inputs), len(model.InputNames))
	}
	variables := make(map[string]*mat.Dense)
	for i, name := range model.InputNames {
		variables[name] = inputs[i]
	}

	for _, op := range model.operators {
		opInputs := make([]*mat.Dense, len(op.InputNames()))
		for i, name := range op.InputNames() {
			opInputs[i] = variables[name]
		}
		opOutputs, err := op.Run(opInputs)
		if err != nil {
			return nil, errors.Wrapf(err, "operator %s", op.Name())
		}
		if len(opOutputs) != len(op.OutputNames()) {
			return nil, errors.Errorf("operator %s produced %d outputs, declared %d",
				op.Name(), len(opOutputs), len(op.OutputNames()))
		}
		for i, name := range op.OutputNames() {
			variables[name] = opOutputs[i]
		}
	}

	outputs := make([]*mat.Dense, len(model.OutputNames))
	for i, name := range model.OutputNames {
		outputs[i] = variables[name]
	}
	return outputs, nil
}
