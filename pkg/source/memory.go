package source

import "sort"

// MemoryGraph is an in-memory Graph implementation. It backs the frontend's
// tests and gives extension authors a way to feed hand-built graphs through
// the conversion pipeline without a serialized model.
type MemoryGraph struct {
	name    string
	nodes   []*MemoryNode
	outputs []OutputRef
}

// NewMemoryGraph creates an empty in-memory graph.
func NewMemoryGraph(name string) *MemoryGraph {
	return &MemoryGraph{name: name}
}

// AddNode appends a node. Inputs refer to other nodes by name and port.
func (g *MemoryGraph) AddNode(name, opType string, inputs []OutputRef, arity int) *MemoryNode {
	n := &MemoryNode{
		name:   name,
		opType: opType,
		inputs: inputs,
		arity:  arity,
	}
	g.nodes = append(g.nodes, n)
	return n
}

// AddInput appends a boundary input node with a single output port.
func (g *MemoryGraph) AddInput(name string) *MemoryNode {
	return g.AddNode(name, "Input", nil, 1)
}

// MarkOutput declares one graph boundary output.
func (g *MemoryGraph) MarkOutput(ref OutputRef) *MemoryGraph {
	g.outputs = append(g.outputs, ref)
	return g
}

// Name implements Graph.
func (g *MemoryGraph) Name() string { return g.name }

// Nodes implements Graph.
func (g *MemoryGraph) Nodes() []NodeDecoder {
	out := make([]NodeDecoder, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n
	}
	return out
}

// Outputs implements Graph.
func (g *MemoryGraph) Outputs() []OutputRef {
	return append([]OutputRef(nil), g.outputs...)
}

// MemoryNode is the NodeDecoder of a MemoryGraph.
type MemoryNode struct {
	name      string
	opType    string
	inputs    []OutputRef
	arity     int
	attrs     map[string]any
	subgraphs []*MemoryGraph
}

// SetAttr sets a named attribute and returns the node for chaining.
func (n *MemoryNode) SetAttr(name string, value any) *MemoryNode {
	if n.attrs == nil {
		n.attrs = make(map[string]any)
	}
	n.attrs[name] = value
	return n
}

// AddSubgraph attaches a nested graph owned by this node.
func (n *MemoryNode) AddSubgraph(sg *MemoryGraph) *MemoryNode {
	n.subgraphs = append(n.subgraphs, sg)
	return n
}

// Name implements NodeDecoder.
func (n *MemoryNode) Name() string { return n.name }

// OpType implements NodeDecoder.
func (n *MemoryNode) OpType() string { return n.opType }

// Inputs implements NodeDecoder.
func (n *MemoryNode) Inputs() []OutputRef {
	return append([]OutputRef(nil), n.inputs...)
}

// OutputArity implements NodeDecoder.
func (n *MemoryNode) OutputArity() int { return n.arity }

// Attr implements NodeDecoder.
func (n *MemoryNode) Attr(name string) (any, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// AttrNames implements NodeDecoder.
func (n *MemoryNode) AttrNames() []string {
	names := make([]string, 0, len(n.attrs))
	for name := range n.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subgraphs implements NodeDecoder.
func (n *MemoryNode) Subgraphs() []Graph {
	out := make([]Graph, len(n.subgraphs))
	for i, sg := range n.subgraphs {
		out[i] = sg
	}
	return out
}
