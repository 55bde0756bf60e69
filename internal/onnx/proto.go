package onnx

// ONNX protobuf data structures (hand-written).

// TensorProtoFloat is the ONNX element type tag for float32.
const TensorProtoFloat int32 = 1

// ModelProto represents an ONNX model.
type ModelProto struct {
	IRVersion       int64           // IR version (e.g., 7, 8, 9)
	OpsetImport     []OperatorSetID // Opset version(s)
	ProducerName    string          // Producing tool name
	ProducerVersion string          // Producing tool version
	Domain          string          // Model domain
	ModelVersion    int64           // Model version number
	DocString       string          // Model description
	Graph           *GraphProto     // Computation graph
}

// OperatorSetID identifies an operator set by domain and version.
type OperatorSetID struct {
	Domain  string
	Version int64
}

// GraphProto represents the computation graph.
type GraphProto struct {
	Name         string           // Graph name
	Nodes        []NodeProto      // Operation nodes
	Inputs       []ValueInfoProto // Graph inputs
	Outputs      []ValueInfoProto // Graph outputs
	Initializers []TensorProto    // Constant tensors
	DocString    string           // Graph description
}

// NodeProto represents a single operation.
type NodeProto struct {
	Name    string   // Node name (optional)
	OpType  string   // Operation type (e.g., "MatMul", "Add", "Relu")
	Inputs  []string // Input tensor names
	Outputs []string // Output tensor names
}

// TensorProto represents a constant tensor (initializer).
type TensorProto struct {
	Name      string    // Tensor name
	DataType  int32     // Element data type
	Dims      []int64   // Tensor shape
	RawData   []byte    // Raw little-endian data (most common)
	FloatData []float32 // Float32 data (legacy)
}

// ValueInfoProto describes an input/output tensor specification.
type ValueInfoProto struct {
	Name string     // Tensor name
	Type *TypeProto // Tensor type information
}

// TypeProto describes tensor type.
type TypeProto struct {
	TensorType *TensorTypeProto
}

// TensorTypeProto describes tensor shape and element type.
type TensorTypeProto struct {
	ElemType int32
	Shape    *TensorShapeProto
}

// TensorShapeProto describes tensor dimensions.
type TensorShapeProto struct {
	Dims []DimensionProto
}

// DimensionProto describes a single dimension: either a static value
// or a named dynamic dimension (e.g., "batch_size").
type DimensionProto struct {
	DimValue int64
	DimParam string
}
