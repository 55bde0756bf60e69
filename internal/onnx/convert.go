package onnx

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/nnet-go/nnet/internal/graph"
)

const (
	irVersion    = 8
	opsetVersion = 13
	batchDim     = "batch_size"
)

// FromGraph maps a neutral graph to an ONNX ModelProto. Input and
// output are declared as [batch_size, n] float32 tensors and constants
// are stored as raw little-endian float32 data.
func FromGraph(g *graph.Graph, producerName string) *ModelProto {
	gp := &GraphProto{
		Name:    "feedforward",
		Inputs:  []ValueInfoProto{valueInfo(g.InputName, g.InputSize)},
		Outputs: []ValueInfoProto{valueInfo(g.OutputName, g.OutputSize)},
	}
	for _, t := range g.Initializers {
		dims := make([]int64, len(t.Dims))
		for i, d := range t.Dims {
			dims[i] = int64(d)
		}
		raw := make([]byte, 4*len(t.Data))
		for i, v := range t.Data {
			binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(float32(v)))
		}
		gp.Initializers = append(gp.Initializers, TensorProto{
			Name:     t.Name,
			DataType: TensorProtoFloat,
			Dims:     dims,
			RawData:  raw,
		})
	}
	for _, n := range g.Nodes {
		gp.Nodes = append(gp.Nodes, NodeProto{
			OpType:  n.Op.String(),
			Inputs:  append([]string(nil), n.Inputs...),
			Outputs: []string{n.Output},
		})
	}
	return &ModelProto{
		IRVersion:    irVersion,
		ProducerName: producerName,
		OpsetImport:  []OperatorSetID{{Version: opsetVersion}},
		Graph:        gp,
	}
}

// ToGraph maps a parsed ModelProto to the neutral graph. The declared
// input and output names are taken from the model; callers may still
// extract against different names. Fails on operations outside the
// feed-forward set and on non-float32 constants.
func ToGraph(m *ModelProto) (*graph.Graph, error) {
	if m.Graph == nil {
		return nil, fmt.Errorf("model has no graph: %w", graph.ErrMalformedGraph)
	}

	g := &graph.Graph{}
	for i := range m.Graph.Initializers {
		t, err := tensorData(&m.Graph.Initializers[i])
		if err != nil {
			return nil, err
		}
		g.Initializers = append(g.Initializers, *t)
	}

	for i := range m.Graph.Nodes {
		n := &m.Graph.Nodes[i]
		var op graph.OpKind
		switch n.OpType {
		case "MatMul":
			op = graph.OpMatMul
		case "Add":
			op = graph.OpAdd
		case "Relu":
			op = graph.OpRelu
		default:
			return nil, fmt.Errorf("node %q has operation %q: %w",
				n.Name, n.OpType, graph.ErrUnexpectedNodeKind)
		}
		if len(n.Outputs) != 1 {
			return nil, fmt.Errorf("node %q has %d outputs, expected 1: %w",
				n.Name, len(n.Outputs), graph.ErrArityMismatch)
		}
		g.Nodes = append(g.Nodes, graph.Node{
			Op:     op,
			Inputs: append([]string(nil), n.Inputs...),
			Output: n.Outputs[0],
		})
	}

	// The declared input is the first graph input that is not an
	// initializer (exporters may list constants as inputs too).
	for i := range m.Graph.Inputs {
		name := m.Graph.Inputs[i].Name
		if _, ok := g.Initializer(name); !ok {
			g.InputName = name
			g.InputSize = featureCount(&m.Graph.Inputs[i])
			break
		}
	}
	if len(m.Graph.Outputs) > 0 {
		g.OutputName = m.Graph.Outputs[0].Name
		g.OutputSize = featureCount(&m.Graph.Outputs[0])
	}
	return g, nil
}

// tensorData decodes an initializer's float32 payload.
func tensorData(t *TensorProto) (*graph.Tensor, error) {
	if t.DataType != TensorProtoFloat {
		return nil, fmt.Errorf("initializer %q has element type %d, only float32 is supported: %w",
			t.Name, t.DataType, graph.ErrUnsupportedFormat)
	}
	dims := make([]int, len(t.Dims))
	count := 1
	for i, d := range t.Dims {
		if d <= 0 {
			return nil, fmt.Errorf("initializer %q has dimension %d: %w",
				t.Name, d, graph.ErrUnsupportedFormat)
		}
		dims[i] = int(d)
		count *= dims[i]
	}

	data := make([]float64, 0, count)
	switch {
	case len(t.RawData) > 0:
		if len(t.RawData) != 4*count {
			return nil, fmt.Errorf("initializer %q has %d raw bytes for dims %v: %w",
				t.Name, len(t.RawData), t.Dims, graph.ErrUnsupportedFormat)
		}
		for i := 0; i+4 <= len(t.RawData); i += 4 {
			bits := binary.LittleEndian.Uint32(t.RawData[i:])
			data = append(data, float64(math.Float32frombits(bits)))
		}
	case len(t.FloatData) > 0:
		if len(t.FloatData) != count {
			return nil, fmt.Errorf("initializer %q has %d values for dims %v: %w",
				t.Name, len(t.FloatData), t.Dims, graph.ErrUnsupportedFormat)
		}
		for _, v := range t.FloatData {
			data = append(data, float64(v))
		}
	default:
		if count != 0 {
			return nil, fmt.Errorf("initializer %q has no data: %w", t.Name, graph.ErrUnsupportedFormat)
		}
	}
	return &graph.Tensor{Name: t.Name, Dims: dims, Data: data}, nil
}

// featureCount reads the trailing static dimension of a value info,
// or 0 when the shape is absent or dynamic.
func featureCount(vi *ValueInfoProto) int {
	if vi.Type == nil || vi.Type.TensorType == nil || vi.Type.TensorType.Shape == nil {
		return 0
	}
	dims := vi.Type.TensorType.Shape.Dims
	if len(dims) == 0 {
		return 0
	}
	return int(dims[len(dims)-1].DimValue)
}

// valueInfo builds a [batch_size, n] float32 tensor declaration.
func valueInfo(name string, size int) ValueInfoProto {
	return ValueInfoProto{
		Name: name,
		Type: &TypeProto{TensorType: &TensorTypeProto{
			ElemType: TensorProtoFloat,
			Shape: &TensorShapeProto{Dims: []DimensionProto{
				{DimParam: batchDim},
				{DimValue: int64(size)},
			}},
		}},
	}
}
