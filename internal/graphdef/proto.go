package graphdef

// TensorFlow GraphDef protobuf data structures (hand-written).

// DTFloat is the TensorFlow DataType enum value for float32.
const DTFloat int32 = 1

// GraphDef represents a TensorFlow computation graph.
type GraphDef struct {
	Nodes    []NodeDef   // Operation nodes
	Versions *VersionDef // Producer/consumer version bounds
}

// NodeDef represents a single operation. The node's name is also the
// name of its output tensor.
type NodeDef struct {
	Name   string                // Node (and output tensor) name
	Op     string                // Operation type (e.g., "MatMul", "Const")
	Inputs []string              // Input node names
	Device string                // Placement hint (unused here)
	Attrs  map[string]*AttrValue // Operation attributes
}

// AttrValue holds one attribute value; exactly one field is set.
type AttrValue struct {
	S      []byte            // "s": bytes
	I      int64             // "i": int
	F      float32           // "f": float
	B      bool              // "b": bool
	Type   int32             // "type": DataType enum
	Shape  *TensorShapeProto // "shape"
	Tensor *TensorProto      // "tensor"
}

// TensorProto represents a constant tensor value.
type TensorProto struct {
	DType         int32             // Element data type
	Shape         *TensorShapeProto // Tensor shape
	VersionNumber int32             // Format version
	TensorContent []byte            // Raw little-endian data
	FloatVal      []float32         // Float32 data (scalar/small tensors)
}

// TensorShapeProto describes tensor dimensions.
type TensorShapeProto struct {
	Dims        []TensorShapeDim
	UnknownRank bool
}

// TensorShapeDim is a single dimension; -1 means unknown (batch).
type TensorShapeDim struct {
	Size int64
	Name string
}

// VersionDef records the producer version of a graph.
type VersionDef struct {
	Producer    int32
	MinConsumer int32
}
