package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerfoo/zfront/pkg/source"
)

func TestMemoryGraphImplementsGraph(t *testing.T) {
	g := source.NewMemoryGraph("main")
	g.AddInput("a")
	g.AddNode("b", "Relu", []source.OutputRef{source.Ref("a", 0)}, 1)
	g.MarkOutput(source.Ref("b", 0))

	assert.Equal(t, "main", g.Name())

	nodes := g.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0].Name())
	assert.Equal(t, "Input", nodes[0].OpType())
	assert.Equal(t, "b", nodes[1].Name())
	require.Len(t, nodes[1].Inputs(), 1)
	assert.Equal(t, source.OutputRef{Node: "a", Port: 0}, nodes[1].Inputs()[0])

	assert.Equal(t, []source.OutputRef{{Node: "b", Port: 0}}, g.Outputs())
}

func TestMemoryNodeAttrs(t *testing.T) {
	n := source.NewMemoryGraph("g").AddNode("n", "Reshape", nil, 1)
	n.SetAttr("shape", []int64{2, 3}).SetAttr("allowzero", int64(0))

	v, ok := n.Attr("shape")
	require.True(t, ok)
	assert.Equal(t, []int64{2, 3}, v)

	_, ok = n.Attr("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"allowzero", "shape"}, n.AttrNames(), "names are sorted")
}

func TestMemoryNodeSubgraphs(t *testing.T) {
	branch := source.NewMemoryGraph("then")
	branch.AddInput("x")

	n := source.NewMemoryGraph("g").AddNode("cond", "If", nil, 1)
	n.AddSubgraph(branch)

	subs := n.Subgraphs()
	require.Len(t, subs, 1)
	assert.Equal(t, "then", subs[0].Name())
}
