package frontend

import (
	"fmt"

	"github.com/zerfoo/zfront/pkg/ir"
	"github.com/zerfoo/zfront/pkg/source"
)

// session walks one decoded graph and builds the IR graph for it, node by
// node. A session never fails as a whole: a node with no translator, a
// translator that errors, or a dangling input reference all become
// placeholder nodes, and construction continues.
type session struct {
	translators translatorMap
}

func newSession(translators translatorMap) *session {
	return &session{translators: translators}
}

// translate converts src and, recursively with the same translator
// snapshot, every nested subgraph owned by its nodes.
func (s *session) translate(src source.Graph) *ir.Graph {
	g := ir.NewGraph(src.Name())
	produced := make(map[string]ir.OutputVector)

	for _, dec := range orderNodes(src.Nodes()) {
		inputs, missing := resolveInputs(dec, produced)

		var rep *ir.Node
		var outs ir.OutputVector
		switch {
		case missing != "":
			rep = s.placeholder(g, dec, inputs,
				fmt.Sprintf("unresolved input reference %s", missing))
			outs = rep.Outputs()
		default:
			t, ok := s.translators[dec.OpType()]
			if !ok {
				rep = s.placeholder(g, dec, inputs, "")
				outs = rep.Outputs()
				break
			}
			v, err := t(NewNodeContext(dec, inputs, g))
			if err != nil {
				rep = s.placeholder(g, dec, inputs, err.Error())
				outs = rep.Outputs()
				break
			}
			g.Adopt(v)
			outs = v
			if len(v) > 0 && v[0] != nil {
				rep = v[0].Node()
			}
		}

		// Nested subgraphs belong to the produced node even when it is a
		// placeholder, so gap collection can see into them.
		if rep != nil {
			for _, sub := range dec.Subgraphs() {
				rep.AttachSubgraph(s.translate(sub))
			}
		}
		produced[dec.Name()] = outs
	}

	for _, ref := range src.Outputs() {
		outs, ok := produced[ref.Node]
		if !ok || ref.Port >= len(outs) || outs[ref.Port] == nil {
			continue
		}
		g.AddResult(resultName(ref), outs[ref.Port])
	}
	return g
}

// placeholder creates a placeholder node with the decoded node's output
// arity so downstream wiring stays well-typed. An empty failure message
// means unsupported; a non-empty one means the translation failed.
func (s *session) placeholder(g *ir.Graph, dec source.NodeDecoder, inputs ir.OutputVector, failure string) *ir.Node {
	n := ir.NewPlaceholder(dec, inputs, failure)
	g.Add(n)
	return n
}

// resolveInputs binds already-produced IR outputs to the decoded node's
// input references. The first unresolvable reference, if any, is returned
// as a description for the failure message.
func resolveInputs(dec source.NodeDecoder, produced map[string]ir.OutputVector) (ir.OutputVector, string) {
	refs := dec.Inputs()
	inputs := make(ir.OutputVector, 0, len(refs))
	missing := ""
	for _, ref := range refs {
		outs, ok := produced[ref.Node]
		if !ok || ref.Port >= len(outs) || outs[ref.Port] == nil {
			if missing == "" {
				missing = fmt.Sprintf("%s:%d", ref.Node, ref.Port)
			}
			continue
		}
		inputs = append(inputs, outs[ref.Port])
	}
	return inputs, missing
}

// orderNodes returns the decoders in a topological order over their declared
// input dependencies, keeping source order among independent nodes. The
// source format guarantees acyclicity; anything unexpected is appended in
// source order so the walk stays total.
func orderNodes(nodes []source.NodeDecoder) []source.NodeDecoder {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.Name()] = i
	}

	indegree := make([]int, len(nodes))
	consumers := make([][]int, len(nodes))
	for i, n := range nodes {
		for _, ref := range n.Inputs() {
			j, ok := index[ref.Node]
			if !ok || j == i {
				continue
			}
			indegree[i]++
			consumers[j] = append(consumers[j], i)
		}
	}

	ready := make([]int, 0, len(nodes))
	for i := range nodes {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	ordered := make([]source.NodeDecoder, 0, len(nodes))
	done := make([]bool, len(nodes))
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		ordered = append(ordered, nodes[i])
		done[i] = true
		for _, c := range consumers[i] {
			indegree[c]--
			if indegree[c] == 0 {
				ready = append(ready, c)
			}
		}
	}
	for i, n := range nodes {
		if !done[i] {
			ordered = append(ordered, n)
		}
	}
	return ordered
}

func resultName(ref source.OutputRef) string {
	if ref.Port == 0 {
		return ref.Node
	}
	return fmt.Sprintf("%s:%d", ref.Node, ref.Port)
}
