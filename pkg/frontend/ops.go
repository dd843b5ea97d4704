package frontend

import (
	"fmt"

	"github.com/zerfoo/zfront/pkg/ir"
)

// builtinTranslators returns the op table installed by New. Translators
// here are deliberately thin: they produce IR structure and attributes;
// numerics belong to the downstream engine.
func builtinTranslators() translatorMap {
	m := translatorMap{
		"Input":    translateInput,
		"NoOp":     translateNoOp,
		"Constant": translateConstant,
		"Reshape":  translateReshape,
		"Concat":   translateConcat,
		"Gemm":     translateGemm,
		"If":       translateIf,
	}
	for _, op := range []string{"Identity", "Relu", "Sigmoid", "Tanh", "Softmax", "Transpose"} {
		m[op] = direct(1)
	}
	for _, op := range []string{"Add", "Sub", "Mul", "Div", "MatMul"} {
		m[op] = direct(2)
	}
	return m
}

// direct builds the common 1:1 translator: one IR node of the same op type,
// decoded attributes copied, with a fixed input arity.
func direct(arity int) CreatorFunction {
	return func(ctx *NodeContext) (ir.OutputVector, error) {
		if err := ctx.RequireInputs(arity); err != nil {
			return nil, err
		}
		return ctx.NewNode(ctx.OpType()).Outputs(), nil
	}
}

// translateInput registers a boundary Parameter for a graph input marker.
func translateInput(ctx *NodeContext) (ir.OutputVector, error) {
	p := ctx.Graph().AddParameter(ctx.Name())
	if shape := ctx.IntsAttr("shape"); shape != nil {
		p.SetAttr("shape", shape)
	}
	return p.Outputs(), nil
}

// translateNoOp drops control markers: no outputs, no IR node.
func translateNoOp(*NodeContext) (ir.OutputVector, error) {
	return nil, nil
}

func translateConstant(ctx *NodeContext) (ir.OutputVector, error) {
	if err := ctx.RequireInputs(0); err != nil {
		return nil, err
	}
	return ctx.NewNode("Constant").Outputs(), nil
}

// translateReshape requires the target shape as an attribute; the decoder
// promotes constant shape inputs to it beforehand.
func translateReshape(ctx *NodeContext) (ir.OutputVector, error) {
	if err := ctx.RequireInputs(1); err != nil {
		return nil, err
	}
	if ctx.IntsAttr("shape") == nil {
		return nil, fmt.Errorf("Reshape node %q has no shape attribute and no constant shape input", ctx.Name())
	}
	return ctx.NewNode("Reshape").Outputs(), nil
}

func translateConcat(ctx *NodeContext) (ir.OutputVector, error) {
	if ctx.InputCount() < 1 {
		return nil, fmt.Errorf("Concat node %q has no inputs", ctx.Name())
	}
	n := ctx.NewNode("Concat")
	if _, ok := n.Attr("axis"); !ok {
		n.SetAttr("axis", int64(0))
	}
	return n.Outputs(), nil
}

// translateGemm accepts the 2-input (no bias) and 3-input forms.
func translateGemm(ctx *NodeContext) (ir.OutputVector, error) {
	if c := ctx.InputCount(); c != 2 && c != 3 {
		return nil, fmt.Errorf("Gemm node %q expects 2 or 3 inputs, got %d", ctx.Name(), c)
	}
	return ctx.NewNode("Gemm").Outputs(), nil
}

// translateIf produces the control-flow node; the session translates and
// attaches its branch subgraphs afterwards.
func translateIf(ctx *NodeContext) (ir.OutputVector, error) {
	if ctx.InputCount() < 1 {
		return nil, fmt.Errorf("If node %q has no condition input", ctx.Name())
	}
	return ctx.NewNode("If").Outputs(), nil
}
