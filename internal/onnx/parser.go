package onnx

import (
	"fmt"
	"math"
	"os"

	"google.golang.org/protobuf/encoding/protowire"
)

// Open reads and parses an ONNX model file.
func Open(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ONNX file: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a serialized ModelProto.
func Parse(data []byte) (*ModelProto, error) {
	m := &ModelProto{}
	err := eachField(data, func(num protowire.Number, typ protowire.Type, v value) error {
		switch num {
		case 1:
			m.IRVersion = v.int64()
		case 2:
			m.ProducerName = v.string()
		case 3:
			m.ProducerVersion = v.string()
		case 4:
			m.Domain = v.string()
		case 5:
			m.ModelVersion = v.int64()
		case 7:
			g, err := parseGraph(v.bytes)
			if err != nil {
				return err
			}
			m.Graph = g
		case 8:
			opset := OperatorSetID{}
			err := eachField(v.bytes, func(num protowire.Number, _ protowire.Type, v value) error {
				switch num {
				case 1:
					opset.Domain = v.string()
				case 2:
					opset.Version = v.int64()
				}
				return nil
			})
			if err != nil {
				return err
			}
			m.OpsetImport = append(m.OpsetImport, opset)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if m.Graph == nil {
		return nil, fmt.Errorf("model has no graph")
	}
	return m, nil
}

func parseGraph(data []byte) (*GraphProto, error) {
	g := &GraphProto{}
	err := eachField(data, func(num protowire.Number, _ protowire.Type, v value) error {
		switch num {
		case 1:
			n, err := parseNode(v.bytes)
			if err != nil {
				return err
			}
			g.Nodes = append(g.Nodes, n)
		case 2:
			g.Name = v.string()
		case 5:
			t, err := parseTensor(v.bytes)
			if err != nil {
				return err
			}
			g.Initializers = append(g.Initializers, t)
		case 11, 12, 13:
			vi, err := parseValueInfo(v.bytes)
			if err != nil {
				return err
			}
			switch num {
			case 11:
				g.Inputs = append(g.Inputs, vi)
			case 12:
				g.Outputs = append(g.Outputs, vi)
			default:
				g.ValueInfo = append(g.ValueInfo, vi)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func parseNode(data []byte) (*NodeProto, error) {
	n := &NodeProto{}
	err := eachField(data, func(num protowire.Number, _ protowire.Type, v value) error {
		switch num {
		case 1:
			n.Inputs = append(n.Inputs, v.string())
		case 2:
			n.Outputs = append(n.Outputs, v.string())
		case 3:
			n.Name = v.string()
		case 4:
			n.OpType = v.string()
		case 5:
			a, err := parseAttribute(v.bytes)
			if err != nil {
				return err
			}
			n.Attributes = append(n.Attributes, a)
		case 7:
			n.Domain = v.string()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func parseAttribute(data []byte) (*AttributeProto, error) {
	a := &AttributeProto{}
	err := eachField(data, func(num protowire.Number, typ protowire.Type, v value) error {
		switch num {
		case 1:
			a.Name = v.string()
		case 2:
			a.F = v.float32()
		case 3:
			a.I = v.int64()
		case 4:
			a.S = v.bytes
		case 5:
			t, err := parseTensor(v.bytes)
			if err != nil {
				return err
			}
			a.T = t
		case 6:
			g, err := parseGraph(v.bytes)
			if err != nil {
				return err
			}
			a.G = g
		case 7:
			a.Floats = appendFloats(a.Floats, typ, v)
		case 8:
			a.Ints = appendInts(a.Ints, typ, v)
		case 9:
			a.Strings = append(a.Strings, v.bytes)
		case 11:
			g, err := parseGraph(v.bytes)
			if err != nil {
				return err
			}
			a.Graphs = append(a.Graphs, g)
		case 20:
			a.Type = int32(v.int64())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func parseTensor(data []byte) (*TensorProto, error) {
	t := &TensorProto{}
	err := eachField(data, func(num protowire.Number, typ protowire.Type, v value) error {
		switch num {
		case 1:
			t.Dims = appendInts(t.Dims, typ, v)
		case 2:
			t.DataType = int32(v.int64())
		case 4:
			t.FloatData = appendFloats(t.FloatData, typ, v)
		case 5:
			t.Int32Data = appendInt32s(t.Int32Data, typ, v)
		case 7:
			t.Int64Data = appendInts(t.Int64Data, typ, v)
		case 8:
			t.Name = v.string()
		case 9:
			t.RawData = v.bytes
		case 13:
			entry := StringStringEntry{}
			err := eachField(v.bytes, func(num protowire.Number, _ protowire.Type, v value) error {
				switch num {
				case 1:
					entry.Key = v.string()
				case 2:
					entry.Value = v.string()
				}
				return nil
			})
			if err != nil {
				return err
			}
			t.ExternalData = append(t.ExternalData, entry)
		case 14:
			t.DataLocation = int32(v.int64())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func parseValueInfo(data []byte) (*ValueInfoProto, error) {
	vi := &ValueInfoProto{}
	err := eachField(data, func(num protowire.Number, _ protowire.Type, v value) error {
		switch num {
		case 1:
			vi.Name = v.string()
		case 2:
			return parseType(v.bytes, vi)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vi, nil
}

// parseType flattens TypeProto -> tensor_type -> {elem_type, shape}.
func parseType(data []byte, vi *ValueInfoProto) error {
	return eachField(data, func(num protowire.Number, _ protowire.Type, v value) error {
		if num != 1 { // tensor_type
			return nil
		}
		return eachField(v.bytes, func(num protowire.Number, _ protowire.Type, v value) error {
			switch num {
			case 1:
				vi.ElemType = int32(v.int64())
			case 2: // TensorShapeProto
				return eachField(v.bytes, func(num protowire.Number, _ protowire.Type, v value) error {
					if num != 1 { // dim
						return nil
					}
					dim := int64(-1)
					err := eachField(v.bytes, func(num protowire.Number, _ protowire.Type, v value) error {
						if num == 1 { // dim_value; dim_param stays -1
							dim = v.int64()
						}
						return nil
					})
					if err != nil {
						return err
					}
					vi.Shape = append(vi.Shape, dim)
					return nil
				})
			}
			return nil
		})
	})
}

// value is one decoded field payload. Scalar fields use num; length-
// delimited fields use bytes.
type value struct {
	num   uint64
	bytes []byte
}

func (v value) int64() int64     { return int64(v.num) }
func (v value) string() string   { return string(v.bytes) }
func (v value) float32() float32 { return math.Float32frombits(uint32(v.num)) }

// eachField walks every field of a message payload, skipping unknown
// wire types the callback has no case for.
func eachField(data []byte, fn func(num protowire.Number, typ protowire.Type, v value) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		var v value
		switch typ {
		case protowire.VarintType:
			x, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			v.num = x
			data = data[n:]
		case protowire.Fixed32Type:
			x, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			v.num = uint64(x)
			data = data[n:]
		case protowire.Fixed64Type:
			x, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			v.num = x
			data = data[n:]
		case protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			v.bytes = b
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			continue
		}

		if err := fn(num, typ, v); err != nil {
			return err
		}
	}
	return nil
}

// appendInts handles a repeated int64 field in both packed and unpacked
// encodings.
func appendInts(dst []int64, typ protowire.Type, v value) []int64 {
	if typ != protowire.BytesType {
		return append(dst, v.int64())
	}
	data := v.bytes
	for len(data) > 0 {
		x, n := protowire.ConsumeVarint(data)
		if n < 0 {
			break
		}
		dst = append(dst, int64(x))
		data = data[n:]
	}
	return dst
}

func appendInt32s(dst []int32, typ protowire.Type, v value) []int32 {
	if typ != protowire.BytesType {
		return append(dst, int32(v.num))
	}
	data := v.bytes
	for len(data) > 0 {
		x, n := protowire.ConsumeVarint(data)
		if n < 0 {
			break
		}
		dst = append(dst, int32(x))
		data = data[n:]
	}
	return dst
}

// appendFloats handles a repeated float field in both packed and unpacked
// encodings.
func appendFloats(dst []float32, typ protowire.Type, v value) []float32 {
	if typ != protowire.BytesType {
		return append(dst, v.float32())
	}
	data := v.bytes
	for len(data) >= 4 {
		x, n := protowire.ConsumeFixed32(data)
		if n < 0 {
			break
		}
		dst = append(dst, math.Float32frombits(x))
		data = data[n:]
	}
	return dst
}
