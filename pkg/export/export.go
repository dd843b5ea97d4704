// Package export serializes a fully converted IR graph to the ZMF model
// format consumed by the zerfoo runtime.
package export

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/zerfoo/zmf"

	"github.com/zerfoo/zfront/internal/onnx"
	"github.com/zerfoo/zfront/pkg/ir"
)

// ToZMF converts g to a ZMF model. The graph must be fully real: any
// placeholder node, at any nesting depth, aborts the export. opset records
// the source model's operator-set version in the metadata; pass 0 when
// unknown.
func ToZMF(g *ir.Graph, opset int64) (*zmf.Model, error) {
	if tag, ok := findPlaceholder(g); ok {
		return nil, fmt.Errorf("graph still contains an untranslated %s node; run a strict conversion first", tag)
	}

	model := &zmf.Model{
		Graph: &zmf.Graph{
			Parameters: make(map[string]*zmf.Tensor),
		},
		Metadata: &zmf.Metadata{
			ProducerName:    "zfront",
			ProducerVersion: "0.1.0",
			OpsetVersion:    opset,
		},
	}

	for _, n := range g.OrderedNodes() {
		switch n.Kind() {
		case ir.KindParameter, ir.KindResult:
			continue
		}
		if n.OpType() == "Constant" {
			if v, ok := n.Attr("value"); ok {
				if t, ok := v.(*onnx.TensorProto); ok {
					tensor, err := convertTensor(t)
					if err != nil {
						return nil, fmt.Errorf("failed to convert constant %q: %w", n.Name(), err)
					}
					model.Graph.Parameters[n.Name()] = tensor
					continue
				}
			}
		}
		model.Graph.Nodes = append(model.Graph.Nodes, convertNode(n))
	}

	for _, p := range g.Parameters() {
		model.Graph.Inputs = append(model.Graph.Inputs, &zmf.ValueInfo{
			Name:  p.Name(),
			Shape: portShape(p.Output(0), p),
		})
	}
	for _, r := range g.Results() {
		vi := &zmf.ValueInfo{Name: r.Name()}
		if src := r.Input(0); src != nil {
			vi.Shape = append([]int64(nil), src.Shape...)
		}
		model.Graph.Outputs = append(model.Graph.Outputs, vi)
	}
	return model, nil
}

func findPlaceholder(g *ir.Graph) (string, bool) {
	for _, n := range g.Nodes() {
		if n.Kind() == ir.KindPlaceholder {
			return n.OpType(), true
		}
		for _, sub := range n.Subgraphs() {
			if tag, ok := findPlaceholder(sub); ok {
				return tag, true
			}
		}
	}
	return "", false
}

func convertNode(n *ir.Node) *zmf.Node {
	zn := &zmf.Node{
		Name:       n.Name(),
		OpType:     n.OpType(),
		Attributes: make(map[string]*zmf.Attribute),
	}
	for i := 0; i < n.InputCount(); i++ {
		if in := n.Input(i); in != nil {
			zn.Inputs = append(zn.Inputs, portName(in))
		}
	}
	for i := 0; i < n.OutputCount(); i++ {
		zn.Outputs = append(zn.Outputs, portName(n.Output(i)))
	}

	names := n.AttrNames()
	sort.Strings(names)
	for _, name := range names {
		if name == "value" {
			continue
		}
		v, _ := n.Attr(name)
		if attr := convertAttribute(v); attr != nil {
			zn.Attributes[name] = attr
		}
	}
	return zn
}

// portName derives the tensor name carried by an output port: the producing
// node's name, suffixed with the port index past the first.
func portName(o *ir.Output) string {
	if o.Index() == 0 {
		return o.Node().Name()
	}
	return fmt.Sprintf("%s:%d", o.Node().Name(), o.Index())
}

func portShape(o *ir.Output, n *ir.Node) []int64 {
	if o.Shape != nil {
		return append([]int64(nil), o.Shape...)
	}
	if v, ok := n.Attr("shape"); ok {
		if shape, ok := v.([]int64); ok {
			return append([]int64(nil), shape...)
		}
	}
	return nil
}

func convertAttribute(v any) *zmf.Attribute {
	switch x := v.(type) {
	case int64:
		return &zmf.Attribute{Value: &zmf.Attribute_I{I: x}}
	case float32:
		return &zmf.Attribute{Value: &zmf.Attribute_F{F: x}}
	case string:
		return &zmf.Attribute{Value: &zmf.Attribute_S{S: x}}
	case []int64:
		return &zmf.Attribute{Value: &zmf.Attribute_Ints{Ints: &zmf.Ints{Val: x}}}
	case []float32:
		return &zmf.Attribute{Value: &zmf.Attribute_Floats{Floats: &zmf.Floats{Val: x}}}
	case []string:
		return &zmf.Attribute{Value: &zmf.Attribute_Strings{Strings: &zmf.Strings{Val: x}}}
	default:
		return nil
	}
}

func convertTensor(t *onnx.TensorProto) (*zmf.Tensor, error) {
	zt := &zmf.Tensor{
		Shape: t.Dims,
		Data:  t.RawData,
	}
	switch t.DataType {
	case onnx.TensorFloat:
		zt.Dtype = zmf.Tensor_FLOAT32
		if len(zt.Data) == 0 && len(t.FloatData) > 0 {
			zt.Data = floatBytes(t.FloatData)
		}
	case onnx.TensorFloat16:
		zt.Dtype = zmf.Tensor_FLOAT16
	case onnx.TensorBFloat16:
		zt.Dtype = zmf.Tensor_BFLOAT16
	case onnx.TensorInt32:
		zt.Dtype = zmf.Tensor_INT32
	case onnx.TensorInt64:
		zt.Dtype = zmf.Tensor_INT64
	case onnx.TensorDouble:
		zt.Dtype = zmf.Tensor_FLOAT64
	default:
		return nil, fmt.Errorf("unsupported tensor data type %d", t.DataType)
	}
	return zt, nil
}

func floatBytes(vals []float32) []byte {
	out := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
