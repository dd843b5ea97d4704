package frontend

import "github.com/zerfoo/zfront/pkg/ir"

// Report classifies every placeholder node a graph contains. The two
// collections are disjoint by op type: a tag that ever produced a failure
// message is a failure (a translator demonstrably exists for it) and never
// appears in the unsupported list.
type Report struct {
	// Operations lists op types with no registered translator, deduplicated,
	// in first-seen order.
	Operations []string
	// FailedOps lists op types whose translator raised, in first-seen order.
	FailedOps []string
	// Failures maps each failed op type to its first recorded message.
	// The first failure is the most informative one for a developer; later
	// ones are usually repeats or cascades.
	Failures map[string]string
}

// Empty reports whether the graph had no coverage gaps.
func (r *Report) Empty() bool {
	return len(r.Operations) == 0 && len(r.Failures) == 0
}

// CollectUnsupported walks g and every nested subgraph of every node in it,
// to arbitrary depth, and classifies the placeholders it finds. The walk is
// depth-first pre-order: a node's subgraphs are visited immediately after
// the node itself, before its successors in the parent graph. The traversal
// is read-only; running it twice on the same graph yields identical reports.
func CollectUnsupported(g *ir.Graph) *Report {
	r := &Report{Failures: make(map[string]string)}
	r.walk(g)
	return r
}

func (r *Report) walk(g *ir.Graph) {
	for _, n := range g.OrderedNodes() {
		if n.Kind() == ir.KindPlaceholder {
			r.record(n)
		}
		for _, sub := range n.Subgraphs() {
			r.walk(sub)
		}
	}
}

func (r *Report) record(n *ir.Node) {
	tag := n.OpType()
	if msg := n.FailureMessage(); msg != "" {
		if _, seen := r.Failures[tag]; seen {
			return
		}
		r.Failures[tag] = msg
		r.FailedOps = append(r.FailedOps, tag)
		// Keep the collections disjoint if the tag surfaced earlier as
		// unsupported.
		for i, op := range r.Operations {
			if op == tag {
				r.Operations = append(r.Operations[:i], r.Operations[i+1:]...)
				break
			}
		}
		return
	}
	if _, failed := r.Failures[tag]; failed {
		return
	}
	for _, op := range r.Operations {
		if op == tag {
			return
		}
	}
	r.Operations = append(r.Operations, tag)
}
