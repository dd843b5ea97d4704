// Package source defines the decoded-graph abstraction the conversion
// frontend consumes. A Graph exposes the nodes of one computation graph of a
// serialized model through NodeDecoder handles that hide the on-disk format.
package source

// OutputRef identifies one output port of a named node.
type OutputRef struct {
	Node string
	Port int
}

// Ref is a convenience constructor for OutputRef.
func Ref(node string, port int) OutputRef {
	return OutputRef{Node: node, Port: port}
}

// Graph is one decoded computation graph. Node order carries no contract;
// the translation session orders nodes by their declared dependencies.
type Graph interface {
	// Name returns the graph name, possibly empty.
	Name() string

	// Nodes returns decoders for every node of the graph, including
	// synthesized boundary nodes (graph inputs surface as "Input" ops).
	Nodes() []NodeDecoder

	// Outputs returns the ports that form the graph's boundary outputs,
	// in declaration order.
	Outputs() []OutputRef
}

// NodeDecoder exposes a single decoded node. Implementations are read-only
// and remain valid for the lifetime of the conversion that observed them;
// placeholder nodes retain their decoder for later re-translation.
type NodeDecoder interface {
	// Name returns the node's unique name within its graph.
	Name() string

	// OpType returns the operation type tag.
	OpType() string

	// Inputs returns the ports feeding this node, in input order.
	Inputs() []OutputRef

	// OutputArity returns the declared number of output ports.
	OutputArity() int

	// Attr returns a named attribute and whether it exists. Values are
	// int64, float32, string, []int64, []float32, []string, or an
	// opaque tensor handle owned by the concrete source.
	Attr(name string) (any, bool)

	// AttrNames returns the attribute names in a stable order.
	AttrNames() []string

	// Subgraphs returns the nested graphs owned by this node, if any.
	// Control-flow nodes own one graph per branch/body.
	Subgraphs() []Graph
}
