package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerfoo/zerfoo/compute"
	"github.com/zerfoo/zerfoo/graph"
	"github.com/zerfoo/zerfoo/numeric"
	"github.com/zerfoo/zmf"
)

func TestBuiltinRegistrations(t *testing.T) {
	for _, op := range []string{"Dense", "Gemm", "ReLU", "Relu", "Sigmoid", "Tanh", "RMSNorm"} {
		c, ok := Get(op)
		assert.True(t, ok, "missing constructor for %s", op)
		_, isFloat32 := c.(LayerConstructor[float32])
		assert.True(t, isFloat32, "%s constructor registered at an unexpected type", op)
	}
}

func TestRegisterOverrides(t *testing.T) {
	called := false
	Register[float32]("TestOnlyOp", func(
		compute.Engine[float32],
		numeric.Arithmetic[float32],
		*zmf.Node,
		map[string]*graph.Parameter[float32],
	) (graph.Node[float32], error) {
		called = true
		return nil, nil
	})
	defer delete(registry, "TestOnlyOp")

	_, err := Construct[float32](nil, nil, &zmf.Node{OpType: "TestOnlyOp"}, nil)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestConstructUnknownOp(t *testing.T) {
	_, err := Construct[float32](nil, nil, &zmf.Node{OpType: "NoSuchOp"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no layer constructor registered")

	_, ok := Get("NoSuchOp")
	assert.False(t, ok)
}
