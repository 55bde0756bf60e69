package graphdef

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/nnet-go/nnet/internal/graph"
)

// graphDefProducer is the versions.producer recorded in exported
// graphs.
const graphDefProducer = 1286

// FromGraph maps a neutral graph to a frozen GraphDef. The declared
// input becomes a Placeholder with shape [-1, inputSize], constants
// become Const nodes, and node names double as output tensor names, so
// the last Add node carries the graph's output name.
func FromGraph(g *graph.Graph) *GraphDef {
	gd := &GraphDef{Versions: &VersionDef{Producer: graphDefProducer}}

	gd.Nodes = append(gd.Nodes, NodeDef{
		Name: g.InputName,
		Op:   "Placeholder",
		Attrs: map[string]*AttrValue{
			"dtype": {Type: DTFloat},
			"shape": {Shape: &TensorShapeProto{Dims: []TensorShapeDim{
				{Size: -1},
				{Size: int64(g.InputSize)},
			}}},
		},
	})

	for _, t := range g.Initializers {
		dims := make([]TensorShapeDim, len(t.Dims))
		for i, d := range t.Dims {
			dims[i] = TensorShapeDim{Size: int64(d)}
		}
		raw := make([]byte, 4*len(t.Data))
		for i, v := range t.Data {
			binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(float32(v)))
		}
		gd.Nodes = append(gd.Nodes, NodeDef{
			Name: t.Name,
			Op:   "Const",
			Attrs: map[string]*AttrValue{
				"dtype": {Type: DTFloat},
				"value": {Tensor: &TensorProto{
					DType:         DTFloat,
					Shape:         &TensorShapeProto{Dims: dims},
					TensorContent: raw,
				}},
			},
		})
	}

	for _, n := range g.Nodes {
		gd.Nodes = append(gd.Nodes, NodeDef{
			Name:   n.Output,
			Op:     n.Op.String(),
			Inputs: append([]string(nil), n.Inputs...),
			Attrs:  map[string]*AttrValue{"T": {Type: DTFloat}},
		})
	}
	return gd
}

// ToGraph maps a frozen GraphDef to the neutral graph. Identity and
// NoOp nodes are dropped, with consumers rewired past them; BiasAdd
// and AddV2 count as Add. Anything else outside the feed-forward set
// is rejected.
func ToGraph(gd *GraphDef) (*graph.Graph, error) {
	alias := make(map[string]string)
	for i := range gd.Nodes {
		n := &gd.Nodes[i]
		if n.Op == "Identity" && len(n.Inputs) > 0 {
			alias[n.Name] = stripPort(n.Inputs[0])
		}
	}
	resolve := func(name string) string {
		for range alias {
			next, ok := alias[name]
			if !ok {
				return name
			}
			name = next
		}
		return name
	}

	g := &graph.Graph{}
	for i := range gd.Nodes {
		n := &gd.Nodes[i]
		switch n.Op {
		case "Placeholder", "PlaceholderV2":
			g.InputName = n.Name
			if shape := n.Attrs["shape"]; shape != nil && shape.Shape != nil {
				dims := shape.Shape.Dims
				if len(dims) > 0 && dims[len(dims)-1].Size > 0 {
					g.InputSize = int(dims[len(dims)-1].Size)
				}
			}
		case "Const":
			t, err := constData(n)
			if err != nil {
				return nil, err
			}
			g.Initializers = append(g.Initializers, *t)
		case "MatMul":
			if attr := n.Attrs["transpose_a"]; attr != nil && attr.B {
				return nil, fmt.Errorf("node %q: transposed MatMul operands are not supported: %w",
					n.Name, graph.ErrUnsupportedFormat)
			}
			if attr := n.Attrs["transpose_b"]; attr != nil && attr.B {
				return nil, fmt.Errorf("node %q: transposed MatMul operands are not supported: %w",
					n.Name, graph.ErrUnsupportedFormat)
			}
			g.Nodes = append(g.Nodes, neutralNode(n, graph.OpMatMul, resolve))
		case "Add", "AddV2", "BiasAdd":
			g.Nodes = append(g.Nodes, neutralNode(n, graph.OpAdd, resolve))
		case "Relu":
			g.Nodes = append(g.Nodes, neutralNode(n, graph.OpRelu, resolve))
		case "Identity", "NoOp":
			// Dropped; consumers are rewired via resolve.
		default:
			return nil, fmt.Errorf("node %q has operation %q: %w",
				n.Name, n.Op, graph.ErrUnexpectedNodeKind)
		}
	}

	if len(g.Nodes) > 0 {
		g.OutputName = g.Nodes[len(g.Nodes)-1].Output
	}
	return g, nil
}

// neutralNode maps a NodeDef to a neutral node, dropping control
// inputs and resolving aliases.
func neutralNode(n *NodeDef, op graph.OpKind, resolve func(string) string) graph.Node {
	inputs := make([]string, 0, len(n.Inputs))
	for _, in := range n.Inputs {
		if strings.HasPrefix(in, "^") {
			continue
		}
		inputs = append(inputs, resolve(stripPort(in)))
	}
	return graph.Node{Op: op, Inputs: inputs, Output: n.Name}
}

// constData decodes a Const node's float32 tensor.
func constData(n *NodeDef) (*graph.Tensor, error) {
	value := n.Attrs["value"]
	if value == nil || value.Tensor == nil {
		return nil, fmt.Errorf("const %q has no value tensor: %w", n.Name, graph.ErrUnsupportedFormat)
	}
	t := value.Tensor
	if t.DType != DTFloat {
		return nil, fmt.Errorf("const %q has element type %d, only float32 is supported: %w",
			n.Name, t.DType, graph.ErrUnsupportedFormat)
	}

	var dims []int
	count := 1
	if t.Shape != nil {
		for _, d := range t.Shape.Dims {
			if d.Size <= 0 {
				return nil, fmt.Errorf("const %q has dimension %d: %w",
					n.Name, d.Size, graph.ErrUnsupportedFormat)
			}
			dims = append(dims, int(d.Size))
			count *= int(d.Size)
		}
	}

	data := make([]float64, 0, count)
	switch {
	case len(t.TensorContent) > 0:
		if len(t.TensorContent) != 4*count {
			return nil, fmt.Errorf("const %q has %d raw bytes for dims %v: %w",
				n.Name, len(t.TensorContent), dims, graph.ErrUnsupportedFormat)
		}
		for i := 0; i+4 <= len(t.TensorContent); i += 4 {
			bits := binary.LittleEndian.Uint32(t.TensorContent[i:])
			data = append(data, float64(math.Float32frombits(bits)))
		}
	case len(t.FloatVal) == count:
		for _, v := range t.FloatVal {
			data = append(data, float64(v))
		}
	case len(t.FloatVal) == 1:
		// TensorFlow stores splat constants as a single float_val.
		for i := 0; i < count; i++ {
			data = append(data, float64(t.FloatVal[0]))
		}
	default:
		return nil, fmt.Errorf("const %q has %d values for dims %v: %w",
			n.Name, len(t.FloatVal), dims, graph.ErrUnsupportedFormat)
	}
	return &graph.Tensor{Name: n.Name, Dims: dims, Data: data}, nil
}

// stripPort removes a ":0"-style output port suffix from an input
// reference.
func stripPort(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return name
}
