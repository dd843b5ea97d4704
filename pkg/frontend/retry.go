package frontend

import (
	"fmt"

	"github.com/zerfoo/zfront/pkg/ir"
)

// retranslate resolves one placeholder node against the given translators.
// Absence of a translator is a hard error here: this path runs only after a
// decision that the node must now be resolvable (the full session already
// recorded it as a gap once).
//
// Each existing consumer of the placeholder's output ports is rewired to the
// corresponding new output, preserving port order. Ports beyond the shorter
// of the two arities are left as they are: translators may legally produce
// fewer or more outputs than the placeholder carried.
func retranslate(g *ir.Graph, node *ir.Node, translators translatorMap) error {
	t, ok := translators[node.OpType()]
	if !ok {
		return &RetryResolutionError{OpType: node.OpType(), Node: node.Name()}
	}

	ctx := NewNodeContext(node.Decoder(), node.Inputs(), g)
	outs, err := t(ctx)
	if err != nil {
		return fmt.Errorf("retranslating %s node %q: %w", node.OpType(), node.Name(), err)
	}
	g.Adopt(outs)

	old := node.Outputs()
	for i := 0; i < len(old) && i < len(outs); i++ {
		if outs[i] != nil {
			old[i].ReplaceWith(outs[i])
		}
	}

	// The placeholder may own partially translated subgraphs; they move to
	// the node that replaced it.
	if subs := node.Subgraphs(); len(subs) > 0 && len(outs) > 0 && outs[0] != nil {
		for _, sub := range subs {
			outs[0].Node().AttachSubgraph(sub)
		}
	}

	g.RemoveNode(node)
	return nil
}
