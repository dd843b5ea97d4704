package onnx

import (
	"fmt"
	"strings"

	"github.com/zerfoo/zfront/pkg/source"
)

// Source adapts a parsed model to the frontend's source.Graph interface.
// Graph inputs surface as Input boundary nodes, initializers as Constant
// nodes, and graph-valued attributes as nested subgraphs. External-data
// initializers are resolved eagerly against the model path.
func Source(m *ModelProto, modelPath string) (source.Graph, error) {
	return newGraphSource(m.Graph, modelPath)
}

type graphSource struct {
	name    string
	nodes   []source.NodeDecoder
	outputs []source.OutputRef
}

func newGraphSource(g *GraphProto, modelPath string) (*graphSource, error) {
	gs := &graphSource{name: g.Name}

	inits := make(map[string]*TensorProto, len(g.Initializers))
	for _, t := range g.Initializers {
		if err := resolveExternalData(t, modelPath); err != nil {
			return nil, err
		}
		inits[t.Name] = t
	}

	// producers maps tensor names to the synthesized node ports that carry
	// them. Decoders resolve their inputs through it lazily, so forward
	// references inside a malformed graph degrade to placeholder nodes
	// instead of failing the load.
	producers := make(map[string]source.OutputRef)
	used := make(map[string]bool)

	for _, t := range g.Initializers {
		gs.nodes = append(gs.nodes, &constDecoder{tensor: t})
		producers[t.Name] = source.Ref(t.Name, 0)
		used[t.Name] = true
	}
	for _, vi := range g.Inputs {
		if _, ok := inits[vi.Name]; ok {
			// Initializers may be redundantly listed as graph inputs.
			continue
		}
		gs.nodes = append(gs.nodes, &inputDecoder{info: vi})
		producers[vi.Name] = source.Ref(vi.Name, 0)
		used[vi.Name] = true
	}

	for i, n := range g.Nodes {
		name := n.Name
		if name == "" {
			name = fmt.Sprintf("%s_%d", strings.ToLower(n.OpType), i)
		}
		for used[name] {
			name += "_"
		}
		used[name] = true

		dec, err := newNodeDecoder(n, name, producers, inits, modelPath)
		if err != nil {
			return nil, err
		}
		for pi, out := range n.Outputs {
			if out != "" {
				producers[out] = source.Ref(name, pi)
			}
		}
		gs.nodes = append(gs.nodes, dec)
	}

	for _, vi := range g.Outputs {
		if ref, ok := producers[vi.Name]; ok {
			gs.outputs = append(gs.outputs, ref)
		}
	}
	return gs, nil
}

func (g *graphSource) Name() string                { return g.name }
func (g *graphSource) Nodes() []source.NodeDecoder { return g.nodes }
func (g *graphSource) Outputs() []source.OutputRef {
	return append([]source.OutputRef(nil), g.outputs...)
}

// promotedAttrs lists operators whose trailing constant inputs become named
// attributes, matching what the downstream format expects.
var promotedAttrs = map[string]string{
	"Reshape":   "shape",
	"Transpose": "perm",
	"ReduceSum": "axes",
}

type nodeDecoder struct {
	name      string
	node      *NodeProto
	inputs    []string
	attrs     map[string]any
	attrNames []string
	subgraphs []*graphSource
	producers map[string]source.OutputRef
}

func newNodeDecoder(n *NodeProto, name string, producers map[string]source.OutputRef, inits map[string]*TensorProto, modelPath string) (*nodeDecoder, error) {
	d := &nodeDecoder{
		name:      name,
		node:      n,
		attrs:     make(map[string]any),
		producers: producers,
	}

	for _, a := range n.Attributes {
		switch a.Type {
		case AttrGraph:
			sub, err := newGraphSource(a.G, modelPath)
			if err != nil {
				return nil, err
			}
			d.subgraphs = append(d.subgraphs, sub)
		case AttrGraphs:
			for _, g := range a.Graphs {
				sub, err := newGraphSource(g, modelPath)
				if err != nil {
					return nil, err
				}
				d.subgraphs = append(d.subgraphs, sub)
			}
		default:
			d.setAttr(a.Name, attrValue(a))
		}
	}

	d.inputs = n.Inputs
	if attr, ok := promotedAttrs[n.OpType]; ok && len(n.Inputs) > 1 {
		if _, exists := d.attrs[attr]; !exists {
			if t, ok := inits[n.Inputs[1]]; ok {
				ints, err := Int64Values(t)
				if err == nil {
					d.setAttr(attr, ints)
					d.inputs = n.Inputs[:1]
				}
			}
		}
	}
	return d, nil
}

func (d *nodeDecoder) setAttr(name string, v any) {
	if v == nil {
		return
	}
	if _, ok := d.attrs[name]; !ok {
		d.attrNames = append(d.attrNames, name)
	}
	d.attrs[name] = v
}

func attrValue(a *AttributeProto) any {
	switch a.Type {
	case AttrFloat:
		return a.F
	case AttrInt:
		return a.I
	case AttrString:
		return string(a.S)
	case AttrFloats:
		return a.Floats
	case AttrInts:
		return a.Ints
	case AttrStrings:
		out := make([]string, len(a.Strings))
		for i, s := range a.Strings {
			out[i] = string(s)
		}
		return out
	case AttrTensor:
		return a.T
	default:
		return nil
	}
}

func (d *nodeDecoder) Name() string   { return d.name }
func (d *nodeDecoder) OpType() string { return d.node.OpType }

func (d *nodeDecoder) Inputs() []source.OutputRef {
	refs := make([]source.OutputRef, 0, len(d.inputs))
	for _, in := range d.inputs {
		if in == "" {
			// Optional input left unbound.
			continue
		}
		if ref, ok := d.producers[in]; ok {
			refs = append(refs, ref)
		} else {
			refs = append(refs, source.Ref(in, 0))
		}
	}
	return refs
}

func (d *nodeDecoder) OutputArity() int { return len(d.node.Outputs) }

func (d *nodeDecoder) Attr(name string) (any, bool) {
	v, ok := d.attrs[name]
	return v, ok
}

func (d *nodeDecoder) AttrNames() []string {
	return append([]string(nil), d.attrNames...)
}

func (d *nodeDecoder) Subgraphs() []source.Graph {
	out := make([]source.Graph, len(d.subgraphs))
	for i, sg := range d.subgraphs {
		out[i] = sg
	}
	return out
}

// constDecoder surfaces one initializer as a Constant node.
type constDecoder struct {
	tensor *TensorProto
}

func (d *constDecoder) Name() string                { return d.tensor.Name }
func (d *constDecoder) OpType() string              { return "Constant" }
func (d *constDecoder) Inputs() []source.OutputRef  { return nil }
func (d *constDecoder) OutputArity() int            { return 1 }
func (d *constDecoder) Subgraphs() []source.Graph   { return nil }
func (d *constDecoder) AttrNames() []string         { return []string{"shape", "value"} }
func (d *constDecoder) Attr(name string) (any, bool) {
	switch name {
	case "value":
		return d.tensor, true
	case "shape":
		return append([]int64(nil), d.tensor.Dims...), true
	}
	return nil, false
}

// inputDecoder surfaces one graph input as an Input boundary node.
type inputDecoder struct {
	info *ValueInfoProto
}

func (d *inputDecoder) Name() string               { return d.info.Name }
func (d *inputDecoder) OpType() string             { return "Input" }
func (d *inputDecoder) Inputs() []source.OutputRef { return nil }
func (d *inputDecoder) OutputArity() int           { return 1 }
func (d *inputDecoder) Subgraphs() []source.Graph  { return nil }
func (d *inputDecoder) AttrNames() []string        { return []string{"dtype", "shape"} }
func (d *inputDecoder) Attr(name string) (any, bool) {
	switch name {
	case "shape":
		return append([]int64(nil), d.info.Shape...), true
	case "dtype":
		return int64(d.info.ElemType), true
	}
	return nil, false
}
