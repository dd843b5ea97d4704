package importer

import (
	"fmt"

	"github.com/zerfoo/zerfoo/compute"
	"github.com/zerfoo/zerfoo/graph"
	"github.com/zerfoo/zerfoo/layers/activations"
	"github.com/zerfoo/zerfoo/layers/core"
	"github.com/zerfoo/zerfoo/layers/normalization"
	"github.com/zerfoo/zerfoo/numeric"
	"github.com/zerfoo/zerfoo/tensor"
	"github.com/zerfoo/zmf"
)

func init() {
	Register[float32]("Dense", newDense)
	Register[float32]("Gemm", newDense)
	Register[float32]("ReLU", newReLU)
	Register[float32]("Relu", newReLU)
	Register[float32]("Sigmoid", newSigmoid)
	Register[float32]("Tanh", newTanh)
	Register[float32]("RMSNorm", newRMSNorm)
}

// newDense builds a linear-plus-bias layer. The first two inputs name the
// weight and bias parameters.
func newDense[T tensor.Numeric](
	engine compute.Engine[T],
	ops numeric.Arithmetic[T],
	node *zmf.Node,
	params map[string]*graph.Parameter[T],
) (graph.Node[T], error) {
	if len(node.Inputs) < 2 {
		return nil, fmt.Errorf("dense node %q needs weight and bias inputs", node.Name)
	}
	weights, ok := params[node.Inputs[0]]
	if !ok {
		return nil, fmt.Errorf("weights parameter %q not found for %q", node.Inputs[0], node.Name)
	}
	bias, ok := params[node.Inputs[1]]
	if !ok {
		return nil, fmt.Errorf("bias parameter %q not found for %q", node.Inputs[1], node.Name)
	}

	layer := core.NewDenseFromParams[T](
		core.NewLinearFromParam[T](engine, weights),
		core.NewBiasFromParam[T](engine, ops, bias),
	)
	layer.SetName(node.Name)
	return layer, nil
}

func newReLU[T tensor.Numeric](
	engine compute.Engine[T],
	ops numeric.Arithmetic[T],
	_ *zmf.Node,
	_ map[string]*graph.Parameter[T],
) (graph.Node[T], error) {
	return activations.NewReLU(engine, ops), nil
}

func newSigmoid[T tensor.Numeric](
	engine compute.Engine[T],
	ops numeric.Arithmetic[T],
	_ *zmf.Node,
	_ map[string]*graph.Parameter[T],
) (graph.Node[T], error) {
	return activations.NewSigmoid(engine, ops), nil
}

func newTanh[T tensor.Numeric](
	engine compute.Engine[T],
	ops numeric.Arithmetic[T],
	_ *zmf.Node,
	_ map[string]*graph.Parameter[T],
) (graph.Node[T], error) {
	return activations.NewTanh(engine, ops), nil
}

func newRMSNorm[T tensor.Numeric](
	engine compute.Engine[T],
	ops numeric.Arithmetic[T],
	node *zmf.Node,
	params map[string]*graph.Parameter[T],
) (graph.Node[T], error) {
	epsilonAttr, ok := node.Attributes["epsilon"]
	if !ok {
		return nil, fmt.Errorf("missing attribute 'epsilon' for RMSNorm %q", node.Name)
	}
	epsilon := T(epsilonAttr.GetF())

	if len(node.Inputs) < 1 {
		return nil, fmt.Errorf("RMSNorm node %q needs a gain input", node.Name)
	}
	gain, ok := params[node.Inputs[0]]
	if !ok {
		return nil, fmt.Errorf("gain parameter %q not found for %q", node.Inputs[0], node.Name)
	}

	layer, err := normalization.NewRMSNormFromParam[T](engine, ops, epsilon, gain)
	if err != nil {
		return nil, err
	}
	layer.SetName(node.Name)
	return layer, nil
}
