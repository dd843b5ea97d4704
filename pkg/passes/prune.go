package passes

import "github.com/zerfoo/zfront/pkg/ir"

// IdentityPruner removes Identity nodes, rewiring their consumers straight
// to the identity's input.
type IdentityPruner struct{}

// Name implements Pass.
func (*IdentityPruner) Name() string { return "identity-pruner" }

// Run implements Pass.
func (*IdentityPruner) Run(g *ir.Graph) {
	for _, n := range g.Nodes() {
		if n.Kind() != ir.KindOrdinary || n.OpType() != "Identity" {
			continue
		}
		if n.InputCount() != 1 || n.OutputCount() != 1 || n.Input(0) == nil {
			continue
		}
		n.Output(0).ReplaceWith(n.Input(0))
		g.RemoveNode(n)
	}
}

// ConstResultPruner drops boundary results that are fed directly by a
// constant, and the constant itself once nothing else reads it. Frozen
// models routinely expose training-time constants as outputs.
type ConstResultPruner struct{}

// Name implements Pass.
func (*ConstResultPruner) Name() string { return "const-result-pruner" }

// Run implements Pass.
func (*ConstResultPruner) Run(g *ir.Graph) {
	for _, r := range g.Results() {
		src := r.Input(0)
		if src == nil {
			continue
		}
		p := src.Node()
		if p.Kind() != ir.KindOrdinary || p.OpType() != "Constant" {
			continue
		}
		g.RemoveNode(r)
		if len(src.Consumers()) == 0 {
			g.RemoveNode(p)
		}
	}
}

// UnusedInputPruner removes boundary parameters none of whose outputs are
// consumed.
type UnusedInputPruner struct{}

// Name implements Pass.
func (*UnusedInputPruner) Name() string { return "unused-input-pruner" }

// Run implements Pass.
func (*UnusedInputPruner) Run(g *ir.Graph) {
	for _, p := range g.Parameters() {
		used := false
		for i := 0; i < p.OutputCount(); i++ {
			if len(p.Output(i).Consumers()) > 0 {
				used = true
				break
			}
		}
		if !used {
			g.RemoveNode(p)
		}
	}
}
