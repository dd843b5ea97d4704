package passes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerfoo/zfront/pkg/ir"
	"github.com/zerfoo/zfront/pkg/passes"
)

func findOp(g *ir.Graph, opType string) *ir.Node {
	for _, n := range g.Nodes() {
		if n.OpType() == opType {
			return n
		}
	}
	return nil
}

func TestIdentityPruner(t *testing.T) {
	g := ir.NewGraph("g")
	p := g.AddParameter("in")
	id := ir.NewNode("id", "Identity", ir.OutputVector{p.Output(0)}, 1)
	act := ir.NewNode("act", "Relu", ir.OutputVector{id.Output(0)}, 1)
	g.Adopt(act.Outputs())
	g.AddResult("out", act.Output(0))

	(&passes.IdentityPruner{}).Run(g)

	assert.Nil(t, findOp(g, "Identity"))
	assert.Same(t, p.Output(0), act.Input(0))
}

func TestGemmFuserFusesBiasIdiom(t *testing.T) {
	g := ir.NewGraph("g")
	x := g.AddParameter("x")
	w := g.AddParameter("w")
	b := g.AddParameter("b")
	matmul := ir.NewNode("matmul", "MatMul", ir.OutputVector{x.Output(0), w.Output(0)}, 1)
	add := ir.NewNode("add", "Add", ir.OutputVector{matmul.Output(0), b.Output(0)}, 1)
	g.Adopt(add.Outputs())
	g.AddResult("out", add.Output(0))

	(&passes.GemmFuser{}).Run(g)

	assert.Nil(t, findOp(g, "MatMul"))
	assert.Nil(t, findOp(g, "Add"))
	gemm := findOp(g, "Gemm")
	require.NotNil(t, gemm)
	assert.Equal(t, "add", gemm.Name())
	require.Equal(t, 3, gemm.InputCount())
	assert.Same(t, x.Output(0), gemm.Input(0))
	assert.Same(t, w.Output(0), gemm.Input(1))
	assert.Same(t, b.Output(0), gemm.Input(2))
	assert.Same(t, gemm.Output(0), g.Results()[0].Input(0))
}

func TestGemmFuserAcceptsBiasOnEitherSide(t *testing.T) {
	g := ir.NewGraph("g")
	x := g.AddParameter("x")
	w := g.AddParameter("w")
	b := g.AddParameter("b")
	matmul := ir.NewNode("matmul", "MatMul", ir.OutputVector{x.Output(0), w.Output(0)}, 1)
	add := ir.NewNode("add", "Add", ir.OutputVector{b.Output(0), matmul.Output(0)}, 1)
	g.Adopt(add.Outputs())

	(&passes.GemmFuser{}).Run(g)

	gemm := findOp(g, "Gemm")
	require.NotNil(t, gemm)
	assert.Same(t, b.Output(0), gemm.Input(2))
}

func TestGemmFuserSkipsSharedMatMul(t *testing.T) {
	g := ir.NewGraph("g")
	x := g.AddParameter("x")
	w := g.AddParameter("w")
	b := g.AddParameter("b")
	matmul := ir.NewNode("matmul", "MatMul", ir.OutputVector{x.Output(0), w.Output(0)}, 1)
	add := ir.NewNode("add", "Add", ir.OutputVector{matmul.Output(0), b.Output(0)}, 1)
	other := ir.NewNode("other", "Relu", ir.OutputVector{matmul.Output(0)}, 1)
	g.Adopt(ir.OutputVector{add.Output(0), other.Output(0)})

	(&passes.GemmFuser{}).Run(g)

	assert.Nil(t, findOp(g, "Gemm"))
	assert.NotNil(t, findOp(g, "MatMul"))
	assert.NotNil(t, findOp(g, "Add"))
}

func TestConstResultPruner(t *testing.T) {
	g := ir.NewGraph("g")
	c := ir.NewNode("c", "Constant", nil, 1)
	g.Add(c)
	g.AddResult("frozen", c.Output(0))

	p := g.AddParameter("in")
	g.AddResult("real", p.Output(0))

	(&passes.ConstResultPruner{}).Run(g)

	require.Len(t, g.Results(), 1)
	assert.Equal(t, "real", g.Results()[0].Name())
	assert.Nil(t, findOp(g, "Constant"))
}

func TestConstResultPrunerKeepsSharedConstant(t *testing.T) {
	g := ir.NewGraph("g")
	c := ir.NewNode("c", "Constant", nil, 1)
	g.Add(c)
	g.AddResult("frozen", c.Output(0))
	act := ir.NewNode("act", "Relu", ir.OutputVector{c.Output(0)}, 1)
	g.Adopt(act.Outputs())

	(&passes.ConstResultPruner{}).Run(g)

	assert.Empty(t, g.Results())
	assert.NotNil(t, findOp(g, "Constant"), "constant still feeds a live node")
}

func TestUnusedInputPruner(t *testing.T) {
	g := ir.NewGraph("g")
	used := g.AddParameter("used")
	g.AddParameter("dangling")
	act := ir.NewNode("act", "Relu", ir.OutputVector{used.Output(0)}, 1)
	g.Adopt(act.Outputs())

	(&passes.UnusedInputPruner{}).Run(g)

	require.Len(t, g.Parameters(), 1)
	assert.Equal(t, "used", g.Parameters()[0].Name())
}

func TestTransposeFolderCancelsInversePair(t *testing.T) {
	g := ir.NewGraph("g")
	p := g.AddParameter("in")
	t1 := ir.NewNode("t1", "Transpose", ir.OutputVector{p.Output(0)}, 1)
	t1.SetAttr("perm", []int64{1, 2, 0})
	t2 := ir.NewNode("t2", "Transpose", ir.OutputVector{t1.Output(0)}, 1)
	t2.SetAttr("perm", []int64{2, 0, 1})
	act := ir.NewNode("act", "Relu", ir.OutputVector{t2.Output(0)}, 1)
	g.Adopt(act.Outputs())

	(&passes.TransposeFolder{}).Run(g)

	assert.Nil(t, findOp(g, "Transpose"))
	assert.Same(t, p.Output(0), act.Input(0))
}

func TestTransposeFolderLeavesNonInversePair(t *testing.T) {
	g := ir.NewGraph("g")
	p := g.AddParameter("in")
	t1 := ir.NewNode("t1", "Transpose", ir.OutputVector{p.Output(0)}, 1)
	t1.SetAttr("perm", []int64{1, 2, 0})
	t2 := ir.NewNode("t2", "Transpose", ir.OutputVector{t1.Output(0)}, 1)
	t2.SetAttr("perm", []int64{1, 2, 0})
	g.Adopt(t2.Outputs())

	(&passes.TransposeFolder{}).Run(g)

	assert.NotNil(t, findOp(g, "Transpose"))
	assert.Equal(t, 3, g.NodeCount())
}

func TestTransposeFolderIgnoresImplicitPerm(t *testing.T) {
	g := ir.NewGraph("g")
	p := g.AddParameter("in")
	t1 := ir.NewNode("t1", "Transpose", ir.OutputVector{p.Output(0)}, 1)
	t2 := ir.NewNode("t2", "Transpose", ir.OutputVector{t1.Output(0)}, 1)
	g.Adopt(t2.Outputs())

	(&passes.TransposeFolder{}).Run(g)

	assert.Equal(t, 3, g.NodeCount())
}

func TestShapeInferencePropagation(t *testing.T) {
	g := ir.NewGraph("g")
	x := g.AddParameter("x")
	x.SetAttr("shape", []int64{4, 8})
	w := g.AddParameter("w")
	w.SetAttr("shape", []int64{8, 16})
	matmul := ir.NewNode("matmul", "MatMul", ir.OutputVector{x.Output(0), w.Output(0)}, 1)
	act := ir.NewNode("act", "Relu", ir.OutputVector{matmul.Output(0)}, 1)
	g.Adopt(act.Outputs())

	(&passes.ShapeInference{}).Run(g)

	assert.Equal(t, []int64{4, 8}, x.Output(0).Shape)
	assert.Equal(t, []int64{4, 16}, matmul.Output(0).Shape)
	assert.Equal(t, []int64{4, 16}, act.Output(0).Shape)
}

func TestShapeInferenceTranspose(t *testing.T) {
	g := ir.NewGraph("g")
	x := g.AddParameter("x")
	x.SetAttr("shape", []int64{2, 3, 4})

	explicit := ir.NewNode("explicit", "Transpose", ir.OutputVector{x.Output(0)}, 1)
	explicit.SetAttr("perm", []int64{0, 2, 1})
	implicit := ir.NewNode("implicit", "Transpose", ir.OutputVector{x.Output(0)}, 1)
	g.Adopt(ir.OutputVector{explicit.Output(0), implicit.Output(0)})

	(&passes.ShapeInference{}).Run(g)

	assert.Equal(t, []int64{2, 4, 3}, explicit.Output(0).Shape)
	assert.Equal(t, []int64{4, 3, 2}, implicit.Output(0).Shape, "missing perm reverses the axes")
}

func TestShapeInferenceReshape(t *testing.T) {
	g := ir.NewGraph("g")
	x := g.AddParameter("x")
	x.SetAttr("shape", []int64{2, 6})
	r := ir.NewNode("r", "Reshape", ir.OutputVector{x.Output(0)}, 1)
	r.SetAttr("shape", []int64{3, 4})
	g.Adopt(r.Outputs())

	(&passes.ShapeInference{}).Run(g)

	assert.Equal(t, []int64{3, 4}, r.Output(0).Shape)
}

func TestManagerRunsPassesInOrder(t *testing.T) {
	var order []string
	m := passes.NewManager(&probePass{name: "first", order: &order})
	m.Register(&probePass{name: "second", order: &order})

	m.Run(ir.NewGraph("g"))

	assert.Equal(t, []string{"first", "second"}, order)
}

type probePass struct {
	name  string
	order *[]string
}

func (p *probePass) Name() string { return p.name }

func (p *probePass) Run(*ir.Graph) {
	*p.order = append(*p.order, p.name)
}
