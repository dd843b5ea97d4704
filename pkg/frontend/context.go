package frontend

import (
	"fmt"

	"github.com/zerfoo/zfront/pkg/ir"
	"github.com/zerfoo/zfront/pkg/source"
)

// NodeContext is what a translator sees: the decoded node plus the IR
// output ports already produced for its inputs.
type NodeContext struct {
	decoder source.NodeDecoder
	inputs  ir.OutputVector
	graph   *ir.Graph
}

// NewNodeContext builds a context for dec with the given input bindings.
func NewNodeContext(dec source.NodeDecoder, inputs ir.OutputVector, g *ir.Graph) *NodeContext {
	return &NodeContext{decoder: dec, inputs: inputs, graph: g}
}

// Name returns the decoded node's name.
func (c *NodeContext) Name() string { return c.decoder.Name() }

// OpType returns the decoded node's op-type tag.
func (c *NodeContext) OpType() string { return c.decoder.OpType() }

// Decoder returns the underlying decoder.
func (c *NodeContext) Decoder() source.NodeDecoder { return c.decoder }

// Graph returns the IR graph under construction. Boundary translators use
// it to register Parameters.
func (c *NodeContext) Graph() *ir.Graph { return c.graph }

// InputCount returns the number of translated inputs.
func (c *NodeContext) InputCount() int { return len(c.inputs) }

// Input returns the IR output feeding input slot i.
func (c *NodeContext) Input(i int) *ir.Output { return c.inputs[i] }

// Inputs returns a copy of all input bindings.
func (c *NodeContext) Inputs() ir.OutputVector {
	return append(ir.OutputVector(nil), c.inputs...)
}

// Attr returns a raw decoded attribute.
func (c *NodeContext) Attr(name string) (any, bool) {
	return c.decoder.Attr(name)
}

// IntAttr returns an int64 attribute, or def when absent or mistyped.
func (c *NodeContext) IntAttr(name string, def int64) int64 {
	if v, ok := c.decoder.Attr(name); ok {
		if i, ok := v.(int64); ok {
			return i
		}
	}
	return def
}

// FloatAttr returns a float32 attribute, or def when absent or mistyped.
func (c *NodeContext) FloatAttr(name string, def float32) float32 {
	if v, ok := c.decoder.Attr(name); ok {
		if f, ok := v.(float32); ok {
			return f
		}
	}
	return def
}

// StringAttr returns a string attribute, or def when absent or mistyped.
func (c *NodeContext) StringAttr(name, def string) string {
	if v, ok := c.decoder.Attr(name); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// IntsAttr returns an []int64 attribute, or nil.
func (c *NodeContext) IntsAttr(name string) []int64 {
	if v, ok := c.decoder.Attr(name); ok {
		if ints, ok := v.([]int64); ok {
			return ints
		}
	}
	return nil
}

// NewNode builds an ordinary IR node named after the decoded node, wired to
// every context input, with the decoded output arity and all decoded
// attributes copied over. Most single-op translators are exactly this.
func (c *NodeContext) NewNode(opType string) *ir.Node {
	n := ir.NewNode(c.Name(), opType, c.Inputs(), c.decoder.OutputArity())
	for _, name := range c.decoder.AttrNames() {
		if v, ok := c.decoder.Attr(name); ok {
			n.SetAttr(name, v)
		}
	}
	return n
}

// RequireInputs errors unless the decoded node has exactly want inputs.
func (c *NodeContext) RequireInputs(want int) error {
	if len(c.inputs) != want {
		return fmt.Errorf("%s node %q expects %d inputs, got %d",
			c.OpType(), c.Name(), want, len(c.inputs))
	}
	return nil
}
