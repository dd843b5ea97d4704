// Package importer instantiates zerfoo runtime layers from a converted ZMF
// model, completing the hand-off from conversion to inference. Each op type
// maps to a layer constructor through a process-lifetime registry.
package importer

import (
	"fmt"

	"github.com/zerfoo/zerfoo/compute"
	"github.com/zerfoo/zerfoo/graph"
	"github.com/zerfoo/zerfoo/numeric"
	"github.com/zerfoo/zerfoo/tensor"
	"github.com/zerfoo/zmf"
)

// LayerConstructor builds one zerfoo graph node from a ZMF node and the
// model's named parameter tensors.
type LayerConstructor[T tensor.Numeric] func(
	engine compute.Engine[T],
	ops numeric.Arithmetic[T],
	node *zmf.Node,
	params map[string]*graph.Parameter[T],
) (graph.Node[T], error)

// registry maps op types to constructors. Constructors are generic over the
// numeric type, so entries are boxed and re-asserted on lookup.
var registry = make(map[string]any)

// Register adds a layer constructor for an op type, overriding any earlier
// registration.
func Register[T tensor.Numeric](opType string, constructor LayerConstructor[T]) {
	registry[opType] = constructor
}

// Get returns the boxed constructor for an op type.
func Get(opType string) (any, bool) {
	c, ok := registry[opType]
	return c, ok
}

// Construct builds the layer for node, resolving the constructor for its
// op type at the requested numeric type.
func Construct[T tensor.Numeric](
	engine compute.Engine[T],
	ops numeric.Arithmetic[T],
	node *zmf.Node,
	params map[string]*graph.Parameter[T],
) (graph.Node[T], error) {
	boxed, ok := registry[node.OpType]
	if !ok {
		return nil, fmt.Errorf("no layer constructor registered for op type %q", node.OpType)
	}
	constructor, ok := boxed.(LayerConstructor[T])
	if !ok {
		return nil, fmt.Errorf("layer constructor for %q is registered for a different numeric type", node.OpType)
	}
	return constructor(engine, ops, node, params)
}
