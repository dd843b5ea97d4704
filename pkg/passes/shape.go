package passes

import "github.com/zerfoo/zfront/pkg/ir"

// elementwise ops propagate their first input's shape unchanged.
var elementwise = map[string]bool{
	"Add":     true,
	"Sub":     true,
	"Mul":     true,
	"Div":     true,
	"Relu":    true,
	"Sigmoid": true,
	"Tanh":    true,
	"Softmax": true,
}

// ShapeInference propagates tensor shapes forward through the graph.
// It assumes a fully-real graph: placeholder outputs have no shape source,
// so the frontend only schedules this pass when conversion left no gaps.
type ShapeInference struct{}

// Name implements Pass.
func (*ShapeInference) Name() string { return "shape-inference" }

// Run implements Pass.
func (*ShapeInference) Run(g *ir.Graph) {
	for _, n := range g.OrderedNodes() {
		switch {
		case n.Kind() == ir.KindParameter, n.OpType() == "Constant":
			if shape, ok := intsAttr(n, "shape"); ok {
				n.Output(0).Shape = shape
			}
		case n.Kind() != ir.KindOrdinary:
			// Results carry no outputs of their own.
		case elementwise[n.OpType()]:
			if s := inputShape(n, 0); s != nil {
				n.Output(0).Shape = append([]int64(nil), s...)
			}
		case n.OpType() == "MatMul" || n.OpType() == "Gemm":
			a, b := inputShape(n, 0), inputShape(n, 1)
			if len(a) >= 2 && len(b) >= 2 {
				shape := append([]int64(nil), a[:len(a)-1]...)
				n.Output(0).Shape = append(shape, b[len(b)-1])
			}
		case n.OpType() == "Transpose":
			s := inputShape(n, 0)
			if s == nil {
				break
			}
			perm, ok := intsAttr(n, "perm")
			if !ok {
				perm = reversePerm(len(s))
			}
			if len(perm) != len(s) {
				break
			}
			shape := make([]int64, len(s))
			for i, p := range perm {
				if p < 0 || int(p) >= len(s) {
					shape = nil
					break
				}
				shape[i] = s[p]
			}
			n.Output(0).Shape = shape
		case n.OpType() == "Reshape":
			if shape, ok := intsAttr(n, "shape"); ok {
				n.Output(0).Shape = append([]int64(nil), shape...)
			}
		}
	}
}

func inputShape(n *ir.Node, i int) []int64 {
	if i >= n.InputCount() || n.Input(i) == nil {
		return nil
	}
	return n.Input(i).Shape
}

func intsAttr(n *ir.Node, name string) ([]int64, bool) {
	v, ok := n.Attr(name)
	if !ok {
		return nil, false
	}
	ints, ok := v.([]int64)
	return ints, ok
}

func reversePerm(rank int) []int64 {
	perm := make([]int64, rank)
	for i := range perm {
		perm[i] = int64(rank - 1 - i)
	}
	return perm
}
