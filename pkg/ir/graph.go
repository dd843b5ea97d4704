// Package ir holds the intermediate representation the frontend builds:
// an ordered, acyclic graph of operation nodes wired through output ports,
// with explicit Parameter/Result boundaries and owned nested subgraphs.
package ir

// Graph is one IR graph. Nodes are kept in insertion order; OrderedNodes
// recovers a dependency-consistent order after rewrites.
type Graph struct {
	name    string
	nodes   []*Node
	members map[*Node]struct{}
	params  []*Node
	results []*Node
}

// NewGraph creates an empty graph.
func NewGraph(name string) *Graph {
	return &Graph{name: name, members: make(map[*Node]struct{})}
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// Add registers a node with the graph. Adding a node twice is a no-op.
func (g *Graph) Add(n *Node) {
	if _, ok := g.members[n]; ok {
		return
	}
	g.members[n] = struct{}{}
	g.nodes = append(g.nodes, n)
}

// Contains reports whether n is registered with the graph.
func (g *Graph) Contains(n *Node) bool {
	_, ok := g.members[n]
	return ok
}

// AddParameter creates and registers a boundary input node with one output.
func (g *Graph) AddParameter(name string) *Node {
	p := &Node{name: name, opType: "Parameter", kind: KindParameter}
	p.init(nil, 1)
	g.Add(p)
	g.params = append(g.params, p)
	return p
}

// Parameters returns the boundary inputs in declaration order.
func (g *Graph) Parameters() []*Node {
	return append([]*Node(nil), g.params...)
}

// AddResult creates and registers a boundary output node reading src.
func (g *Graph) AddResult(name string, src *Output) *Node {
	r := &Node{name: name, opType: "Result", kind: KindResult}
	r.init(OutputVector{src}, 0)
	g.Add(r)
	g.results = append(g.results, r)
	return r
}

// Results returns the boundary outputs in declaration order.
func (g *Graph) Results() []*Node {
	return append([]*Node(nil), g.results...)
}

// Adopt registers the transitive producers of the given ports, producers
// before consumers. Translators build nodes detached from any graph; the
// session adopts whatever chain a translator returned, stopping at nodes
// that are already members.
func (g *Graph) Adopt(outs OutputVector) {
	for _, out := range outs {
		if out != nil {
			g.adoptNode(out.node)
		}
	}
}

func (g *Graph) adoptNode(n *Node) {
	if n == nil {
		return
	}
	if _, ok := g.members[n]; ok {
		return
	}
	// Pre-mark to tolerate diamond fan-in without revisiting.
	g.members[n] = struct{}{}
	for _, in := range n.inputs {
		if in != nil {
			g.adoptNode(in.node)
		}
	}
	g.nodes = append(g.nodes, n)
}

// RemoveNode detaches n from the graph: its input bindings release their
// consumer entries and the node leaves the node list. Output ports of n keep
// any consumers they still have; callers rewire them first (ReplaceWith).
func (g *Graph) RemoveNode(n *Node) {
	if _, ok := g.members[n]; !ok {
		return
	}
	delete(g.members, n)
	for slot, in := range n.inputs {
		if in != nil {
			in.removeConsumer(n, slot)
			n.inputs[slot] = nil
		}
	}
	g.nodes = removeNode(g.nodes, n)
	switch n.kind {
	case KindParameter:
		g.params = removeNode(g.params, n)
	case KindResult:
		g.results = removeNode(g.results, n)
	}
}

func removeNode(list []*Node, n *Node) []*Node {
	for i, e := range list {
		if e == n {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Nodes returns the registered nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	return append([]*Node(nil), g.nodes...)
}

// NodeCount returns the number of registered nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// OrderedNodes returns the nodes in a dependency-consistent order:
// every producer precedes its consumers. Insertion order breaks ties, so
// repeated calls on an unchanged graph return the same sequence.
func (g *Graph) OrderedNodes() []*Node {
	indegree := make(map[*Node]int, len(g.nodes))
	for _, n := range g.nodes {
		for _, in := range n.inputs {
			if in == nil {
				continue
			}
			if _, ok := g.members[in.node]; ok {
				indegree[n]++
			}
		}
	}

	ready := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	ordered := make([]*Node, 0, len(g.nodes))
	seen := make(map[*Node]struct{}, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		ordered = append(ordered, n)
		seen[n] = struct{}{}
		for _, out := range n.outputs {
			for _, c := range out.consumers {
				if _, ok := g.members[c.Node]; !ok {
					continue
				}
				indegree[c.Node]--
				if indegree[c.Node] == 0 {
					ready = append(ready, c.Node)
				}
			}
		}
	}

	// The graph is acyclic by construction; this keeps the walk total if a
	// caller wired something unexpected.
	if len(ordered) < len(g.nodes) {
		for _, n := range g.nodes {
			if _, ok := seen[n]; !ok {
				ordered = append(ordered, n)
			}
		}
	}
	return ordered
}
