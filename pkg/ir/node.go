package ir

import (
	"fmt"

	"github.com/zerfoo/zfront/pkg/source"
)

// Kind discriminates the closed set of node kinds the frontend produces.
type Kind int

const (
	// KindOrdinary is a translated operation node.
	KindOrdinary Kind = iota
	// KindParameter is a graph boundary input.
	KindParameter
	// KindResult is a graph boundary output.
	KindResult
	// KindPlaceholder stands in for a node that could not be translated.
	// It keeps the original decoder so the node can be re-translated once
	// a translator becomes available.
	KindPlaceholder
)

func (k Kind) String() string {
	switch k {
	case KindParameter:
		return "Parameter"
	case KindResult:
		return "Result"
	case KindPlaceholder:
		return "Placeholder"
	default:
		return "Ordinary"
	}
}

// Node is one operation in an IR graph. Wiring between nodes goes through
// Output ports: a node's inputs are the output ports of its producers.
type Node struct {
	name    string
	opType  string
	kind    Kind
	attrs   map[string]any
	failure string
	decoder source.NodeDecoder

	inputs    []*Output
	outputs   []*Output
	subgraphs []*Graph
}

// NewNode creates an ordinary node with the given input bindings and output
// arity. The node is not attached to any graph; see Graph.Adopt.
func NewNode(name, opType string, inputs OutputVector, arity int) *Node {
	n := &Node{name: name, opType: opType, kind: KindOrdinary}
	n.init(inputs, arity)
	return n
}

// NewPlaceholder creates a placeholder node for an untranslated decoded node.
// An empty failure message marks the unsupported sub-state (no translator
// existed); a non-empty one marks a failed translation.
func NewPlaceholder(dec source.NodeDecoder, inputs OutputVector, failure string) *Node {
	n := &Node{
		name:    dec.Name(),
		opType:  dec.OpType(),
		kind:    KindPlaceholder,
		failure: failure,
		decoder: dec,
	}
	n.init(inputs, dec.OutputArity())
	return n
}

func (n *Node) init(inputs OutputVector, arity int) {
	n.inputs = make([]*Output, len(inputs))
	for i, in := range inputs {
		n.inputs[i] = in
		if in != nil {
			in.addConsumer(n, i)
		}
	}
	n.outputs = make([]*Output, arity)
	for i := range n.outputs {
		n.outputs[i] = &Output{node: n, index: i}
	}
}

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// OpType returns the operation type tag. For placeholders this is the
// original decoded node's tag.
func (n *Node) OpType() string { return n.opType }

// Kind returns the node kind.
func (n *Node) Kind() Kind { return n.kind }

// FailureMessage returns the stored translation failure for a failed
// placeholder, or "" for any other node.
func (n *Node) FailureMessage() string { return n.failure }

// Decoder returns the retained decoder of a placeholder node, nil otherwise.
func (n *Node) Decoder() source.NodeDecoder { return n.decoder }

// Attr returns a node attribute.
func (n *Node) Attr(name string) (any, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// SetAttr sets a node attribute.
func (n *Node) SetAttr(name string, value any) {
	if n.attrs == nil {
		n.attrs = make(map[string]any)
	}
	n.attrs[name] = value
}

// AttrNames returns the attribute names in unspecified order.
func (n *Node) AttrNames() []string {
	names := make([]string, 0, len(n.attrs))
	for name := range n.attrs {
		names = append(names, name)
	}
	return names
}

// InputCount returns the number of input bindings.
func (n *Node) InputCount() int { return len(n.inputs) }

// Input returns the output port bound to input slot i, possibly nil for an
// unresolved slot on a placeholder.
func (n *Node) Input(i int) *Output { return n.inputs[i] }

// Inputs returns a copy of the input bindings.
func (n *Node) Inputs() OutputVector {
	return append(OutputVector(nil), n.inputs...)
}

// OutputCount returns the node's output arity.
func (n *Node) OutputCount() int { return len(n.outputs) }

// Output returns output port i.
func (n *Node) Output(i int) *Output { return n.outputs[i] }

// Outputs returns a copy of the node's output ports.
func (n *Node) Outputs() OutputVector {
	return append(OutputVector(nil), n.outputs...)
}

// Subgraphs returns the nested graphs owned by this node.
func (n *Node) Subgraphs() []*Graph {
	return append([]*Graph(nil), n.subgraphs...)
}

// AttachSubgraph transfers ownership of a nested graph to this node.
// Subgraphs never reference an ancestor graph, so ownership forms a forest.
func (n *Node) AttachSubgraph(g *Graph) {
	n.subgraphs = append(n.subgraphs, g)
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.opType, n.name)
}

// Output is one output port of a node. Port identity is stable: consumers
// hold the port itself, so rewiring a port moves every downstream reader.
type Output struct {
	node  *Node
	index int

	// Shape is the inferred tensor shape, nil when unknown. -1 marks a
	// dynamic dimension.
	Shape []int64

	consumers []Consumer
}

// Consumer is one (node, input-slot) reader of an output port.
type Consumer struct {
	Node *Node
	Slot int
}

// Node returns the producing node.
func (o *Output) Node() *Node { return o.node }

// Index returns the port index on the producing node.
func (o *Output) Index() int { return o.index }

// Consumers returns the current readers in wiring order.
func (o *Output) Consumers() []Consumer {
	return append([]Consumer(nil), o.consumers...)
}

func (o *Output) addConsumer(n *Node, slot int) {
	o.consumers = append(o.consumers, Consumer{Node: n, Slot: slot})
}

func (o *Output) removeConsumer(n *Node, slot int) {
	for i, c := range o.consumers {
		if c.Node == n && c.Slot == slot {
			o.consumers = append(o.consumers[:i], o.consumers[i+1:]...)
			return
		}
	}
}

// ReplaceWith rewires every consumer of o to read from repl instead,
// preserving consumer order. After the call o has no consumers.
func (o *Output) ReplaceWith(repl *Output) {
	if o == repl {
		return
	}
	moved := o.consumers
	o.consumers = nil
	for _, c := range moved {
		c.Node.inputs[c.Slot] = repl
		repl.consumers = append(repl.consumers, c)
	}
}

// OutputVector is an ordered list of output ports, the indexed result shape
// of a translator.
type OutputVector []*Output

// NamedOutput pairs an output port with the decoded output name it binds.
type NamedOutput struct {
	Name   string
	Output *Output
}

// NamedOutputVector is the named-and-indexed result shape of a translator.
// Flatten recovers the indexed view in declaration order.
type NamedOutputVector []NamedOutput

// Flatten returns the ports in order, dropping the names.
func (v NamedOutputVector) Flatten() OutputVector {
	out := make(OutputVector, len(v))
	for i, no := range v {
		out[i] = no.Output
	}
	return out
}
