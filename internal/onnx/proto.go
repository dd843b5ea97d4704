// Package onnx decodes the subset of the ONNX protobuf format the frontend
// needs and adapts a decoded graph to the source.Graph interface. The proto
// model is hand-written; Parse walks the wire format directly so no
// generated bindings are required.
package onnx

// AttributeProto.AttributeType values.
const (
	AttrUndefined = 0
	AttrFloat     = 1
	AttrInt       = 2
	AttrString    = 3
	AttrTensor    = 4
	AttrGraph     = 5
	AttrFloats    = 6
	AttrInts      = 7
	AttrStrings   = 8
	AttrTensors   = 9
	AttrGraphs    = 10
)

// TensorProto.DataType values.
const (
	TensorUndefined = 0
	TensorFloat     = 1
	TensorUint8     = 2
	TensorInt8      = 3
	TensorUint16    = 4
	TensorInt16     = 5
	TensorInt32     = 6
	TensorInt64     = 7
	TensorString    = 8
	TensorBool      = 9
	TensorFloat16   = 10
	TensorDouble    = 11
	TensorUint32    = 12
	TensorUint64    = 13
	TensorBFloat16  = 16
)

// ModelProto is the top-level ONNX model.
type ModelProto struct {
	IRVersion       int64
	ProducerName    string
	ProducerVersion string
	Domain          string
	ModelVersion    int64
	OpsetImport     []OperatorSetID
	Graph           *GraphProto
}

// OperatorSetID names one opset the model relies on.
type OperatorSetID struct {
	Domain  string
	Version int64
}

// GraphProto is one computation graph.
type GraphProto struct {
	Name         string
	Nodes        []*NodeProto
	Initializers []*TensorProto
	Inputs       []*ValueInfoProto
	Outputs      []*ValueInfoProto
	ValueInfo    []*ValueInfoProto
}

// NodeProto is one operation node.
type NodeProto struct {
	Name       string
	OpType     string
	Domain     string
	Inputs     []string
	Outputs    []string
	Attributes []*AttributeProto
}

// AttributeProto is one node attribute. Graph-valued attributes carry the
// nested subgraphs of control-flow operators.
type AttributeProto struct {
	Name    string
	Type    int32
	F       float32
	I       int64
	S       []byte
	Floats  []float32
	Ints    []int64
	Strings [][]byte
	T       *TensorProto
	G       *GraphProto
	Graphs  []*GraphProto
}

// TensorProto is a dense tensor, usually an initializer.
type TensorProto struct {
	Name         string
	DataType     int32
	Dims         []int64
	RawData      []byte
	FloatData    []float32
	Int32Data    []int32
	Int64Data    []int64
	ExternalData []StringStringEntry
	DataLocation int32
}

// StringStringEntry is one key/value pair of external-data metadata.
type StringStringEntry struct {
	Key   string
	Value string
}

// ValueInfoProto describes one graph boundary tensor, with its type
// flattened to element type and shape. Symbolic dimensions become -1.
type ValueInfoProto struct {
	Name     string
	ElemType int32
	Shape    []int64
}
