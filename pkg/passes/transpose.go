package passes

import "github.com/zerfoo/zfront/pkg/ir"

// TransposeFolder cancels pairs of Transpose nodes whose permutations
// compose to the identity, rewiring consumers to the original input.
// Only explicit perm attributes are folded.
type TransposeFolder struct{}

// Name implements Pass.
func (*TransposeFolder) Name() string { return "transpose-folder" }

// Run implements Pass.
func (*TransposeFolder) Run(g *ir.Graph) {
	for _, outer := range g.OrderedNodes() {
		if !g.Contains(outer) {
			continue
		}
		if !isTranspose(outer) || outer.Input(0) == nil {
			continue
		}
		inner := outer.Input(0).Node()
		if !isTranspose(inner) || inner.Input(0) == nil {
			continue
		}
		p1, ok1 := intsAttr(inner, "perm")
		p2, ok2 := intsAttr(outer, "perm")
		if !ok1 || !ok2 || !composesToIdentity(p1, p2) {
			continue
		}
		outer.Output(0).ReplaceWith(inner.Input(0))
		g.RemoveNode(outer)
		if len(inner.Output(0).Consumers()) == 0 {
			g.RemoveNode(inner)
		}
	}
}

func isTranspose(n *ir.Node) bool {
	return n.Kind() == ir.KindOrdinary && n.OpType() == "Transpose" &&
		n.InputCount() == 1 && n.OutputCount() == 1
}

func composesToIdentity(p1, p2 []int64) bool {
	if len(p1) != len(p2) {
		return false
	}
	for i, p := range p2 {
		if p < 0 || int(p) >= len(p1) {
			return false
		}
		if p1[p] != int64(i) {
			return false
		}
	}
	return true
}
