package passes

import "github.com/zerfoo/zfront/pkg/ir"

// GemmFuser collapses the MatMul-then-Add bias idiom into a single Gemm
// node. The MatMul must feed only the Add; shared products are left alone.
type GemmFuser struct{}

// Name implements Pass.
func (*GemmFuser) Name() string { return "gemm-fuser" }

// Run implements Pass.
func (*GemmFuser) Run(g *ir.Graph) {
	for _, add := range g.OrderedNodes() {
		if !g.Contains(add) {
			continue
		}
		if add.Kind() != ir.KindOrdinary || add.OpType() != "Add" || add.InputCount() != 2 {
			continue
		}
		matmul, bias := fuseCandidate(add)
		if matmul == nil {
			continue
		}
		gemm := ir.NewNode(add.Name(), "Gemm", ir.OutputVector{
			matmul.Input(0),
			matmul.Input(1),
			bias,
		}, 1)
		g.Adopt(gemm.Outputs())
		add.Output(0).ReplaceWith(gemm.Output(0))
		g.RemoveNode(add)
		g.RemoveNode(matmul)
	}
}

func fuseCandidate(add *ir.Node) (matmul *ir.Node, bias *ir.Output) {
	for i := 0; i < 2; i++ {
		in := add.Input(i)
		if in == nil {
			return nil, nil
		}
		p := in.Node()
		if p.Kind() != ir.KindOrdinary || p.OpType() != "MatMul" {
			continue
		}
		if p.InputCount() != 2 || p.OutputCount() != 1 {
			continue
		}
		if len(p.Output(0).Consumers()) != 1 {
			continue
		}
		return p, add.Input(1 - i)
	}
	return nil, nil
}
