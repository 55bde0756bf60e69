package graphdef

import (
	"bytes"
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/nnet-go/nnet/internal/graph"
	"github.com/nnet-go/nnet/internal/network"
)

func buildTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	net := &network.Network{
		Weights: []*mat.Dense{
			mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
			mat.NewDense(1, 2, []float64{2, 2}),
		},
		Biases: []*mat.VecDense{
			mat.NewVecDense(2, []float64{0, 0}),
			mat.NewVecDense(1, []float64{1}),
		},
	}
	g, err := graph.Build(net, "x", "y_out")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return g
}

// TestFromGraphStructure checks the node layout of an exported graph.
func TestFromGraphStructure(t *testing.T) {
	gd := FromGraph(buildTestGraph(t))

	// Placeholder + 4 Const + 5 arithmetic nodes.
	if len(gd.Nodes) != 10 {
		t.Fatalf("expected 10 nodes, got %d", len(gd.Nodes))
	}
	if gd.Nodes[0].Op != "Placeholder" || gd.Nodes[0].Name != "x" {
		t.Errorf("node 0 is %s %q, want Placeholder x", gd.Nodes[0].Op, gd.Nodes[0].Name)
	}
	shape := gd.Nodes[0].Attrs["shape"]
	if shape == nil || shape.Shape == nil || len(shape.Shape.Dims) != 2 {
		t.Fatal("placeholder shape attr missing")
	}
	if shape.Shape.Dims[0].Size != -1 || shape.Shape.Dims[1].Size != 2 {
		t.Errorf("placeholder shape %+v, want [-1 2]", shape.Shape.Dims)
	}

	last := gd.Nodes[len(gd.Nodes)-1]
	if last.Op != "Add" || last.Name != "y_out" {
		t.Errorf("last node is %s %q, want Add y_out", last.Op, last.Name)
	}
}

// TestMarshalParseRoundTrip encodes a graph and decodes it back.
func TestMarshalParseRoundTrip(t *testing.T) {
	gd := FromGraph(buildTestGraph(t))
	got, err := Parse(Marshal(gd))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(got.Nodes) != len(gd.Nodes) {
		t.Fatalf("expected %d nodes, got %d", len(gd.Nodes), len(got.Nodes))
	}
	for i := range gd.Nodes {
		if got.Nodes[i].Name != gd.Nodes[i].Name || got.Nodes[i].Op != gd.Nodes[i].Op {
			t.Errorf("node %d: %s %q, want %s %q", i,
				got.Nodes[i].Op, got.Nodes[i].Name, gd.Nodes[i].Op, gd.Nodes[i].Name)
		}
	}
	if got.Versions == nil || got.Versions.Producer != graphDefProducer {
		t.Errorf("versions %+v, want producer %d", got.Versions, graphDefProducer)
	}

	w0 := nodeByName(t, got, "W0")
	value := w0.Attrs["value"]
	if value == nil || value.Tensor == nil {
		t.Fatal("W0 value tensor missing")
	}
	if value.Tensor.DType != DTFloat {
		t.Errorf("W0 dtype %d, want float", value.Tensor.DType)
	}
	if len(value.Tensor.TensorContent) != 16 {
		t.Errorf("W0 content %d bytes, want 16", len(value.Tensor.TensorContent))
	}
}

// TestMarshalDeterministic encodes the same graph twice.
func TestMarshalDeterministic(t *testing.T) {
	g := buildTestGraph(t)
	a := Marshal(FromGraph(g))
	b := Marshal(FromGraph(g))
	if !bytes.Equal(a, b) {
		t.Error("two encodings of the same graph differ")
	}
}

// TestToGraphRecoversNetwork round-trips through the wire format and
// extracts the network back.
func TestToGraphRecoversNetwork(t *testing.T) {
	gd, err := Parse(Marshal(FromGraph(buildTestGraph(t))))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	g, err := ToGraph(gd)
	if err != nil {
		t.Fatalf("ToGraph failed: %v", err)
	}
	if g.InputName != "x" || g.OutputName != "y_out" {
		t.Fatalf("declared tensors %q/%q, want x/y_out", g.InputName, g.OutputName)
	}
	if g.InputSize != 2 {
		t.Fatalf("input size %d, want 2", g.InputSize)
	}

	net, err := graph.Extract(g, "x", "y_out")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	out, err := net.Evaluate([]float64{1, 2})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if out[0] < 7-1e-6 || out[0] > 7+1e-6 {
		t.Errorf("f([1,2]) = %v, want 7", out[0])
	}
}

// TestToGraphHandlesIdentityAndBiasAdd accepts the node spellings a
// TensorFlow freeze typically produces.
func TestToGraphHandlesIdentityAndBiasAdd(t *testing.T) {
	gd := &GraphDef{Nodes: []NodeDef{
		{Name: "x", Op: "Placeholder", Attrs: map[string]*AttrValue{
			"dtype": {Type: DTFloat},
			"shape": {Shape: &TensorShapeProto{Dims: []TensorShapeDim{{Size: -1}, {Size: 2}}}},
		}},
		{Name: "W0", Op: "Const", Attrs: map[string]*AttrValue{
			"dtype": {Type: DTFloat},
			"value": {Tensor: &TensorProto{
				DType:    DTFloat,
				Shape:    &TensorShapeProto{Dims: []TensorShapeDim{{Size: 2}, {Size: 1}}},
				FloatVal: []float32{2, 2},
			}},
		}},
		{Name: "B0", Op: "Const", Attrs: map[string]*AttrValue{
			"dtype": {Type: DTFloat},
			"value": {Tensor: &TensorProto{
				DType:    DTFloat,
				Shape:    &TensorShapeProto{Dims: []TensorShapeDim{{Size: 1}}},
				FloatVal: []float32{1},
			}},
		}},
		{Name: "mm", Op: "MatMul", Inputs: []string{"x", "W0:0"}, Attrs: map[string]*AttrValue{"T": {Type: DTFloat}}},
		{Name: "sum", Op: "BiasAdd", Inputs: []string{"mm:0", "B0"}, Attrs: map[string]*AttrValue{"T": {Type: DTFloat}}},
		{Name: "y_out", Op: "Identity", Inputs: []string{"sum:0"}},
	}}

	g, err := ToGraph(gd)
	if err != nil {
		t.Fatalf("ToGraph failed: %v", err)
	}
	// The Identity is dropped, so the graph's output is the BiasAdd.
	if g.OutputName != "sum" {
		t.Fatalf("output %q, want sum", g.OutputName)
	}
	net, err := graph.Extract(g, "x", "sum")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	out, err := net.Evaluate([]float64{1, 2})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if out[0] < 7-1e-6 || out[0] > 7+1e-6 {
		t.Errorf("f([1,2]) = %v, want 7", out[0])
	}
}

// TestToGraphSplatConst expands single-value float constants.
func TestToGraphSplatConst(t *testing.T) {
	gd := &GraphDef{Nodes: []NodeDef{
		{Name: "B", Op: "Const", Attrs: map[string]*AttrValue{
			"dtype": {Type: DTFloat},
			"value": {Tensor: &TensorProto{
				DType:    DTFloat,
				Shape:    &TensorShapeProto{Dims: []TensorShapeDim{{Size: 3}}},
				FloatVal: []float32{0.5},
			}},
		}},
	}}
	g, err := ToGraph(gd)
	if err != nil {
		t.Fatalf("ToGraph failed: %v", err)
	}
	b, ok := g.Initializer("B")
	if !ok || len(b.Data) != 3 || b.Data[2] != 0.5 {
		t.Errorf("splat const decoded as %+v", b)
	}
}

// TestParseRejectsVarintFloatAttr decodes a graph whose attr "f"
// field is varint-encoded instead of fixed32.
func TestParseRejectsVarintFloatAttr(t *testing.T) {
	var attr []byte
	attr = protowire.AppendTag(attr, 4, protowire.VarintType)
	attr = protowire.AppendVarint(attr, 1)

	var entry []byte
	entry = protowire.AppendTag(entry, 1, protowire.BytesType)
	entry = protowire.AppendString(entry, "alpha")
	entry = protowire.AppendTag(entry, 2, protowire.BytesType)
	entry = protowire.AppendBytes(entry, attr)

	var node []byte
	node = protowire.AppendTag(node, 1, protowire.BytesType)
	node = protowire.AppendString(node, "n")
	node = protowire.AppendTag(node, 5, protowire.BytesType)
	node = protowire.AppendBytes(node, entry)

	var data []byte
	data = protowire.AppendTag(data, 1, protowire.BytesType)
	data = protowire.AppendBytes(data, node)

	_, err := Parse(data)
	if !errors.Is(err, graph.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

// TestToGraphRejectsNegativeConstDim fails on a Const declaring a
// negative dimension.
func TestToGraphRejectsNegativeConstDim(t *testing.T) {
	gd := &GraphDef{Nodes: []NodeDef{
		{Name: "B", Op: "Const", Attrs: map[string]*AttrValue{
			"dtype": {Type: DTFloat},
			"value": {Tensor: &TensorProto{
				DType:    DTFloat,
				Shape:    &TensorShapeProto{Dims: []TensorShapeDim{{Size: -1}}},
				FloatVal: []float32{1},
			}},
		}},
	}}
	_, err := ToGraph(gd)
	if !errors.Is(err, graph.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

// TestToGraphRejectsUnknownOp fails on ops outside the pattern.
func TestToGraphRejectsUnknownOp(t *testing.T) {
	gd := &GraphDef{Nodes: []NodeDef{{Name: "s", Op: "Softmax", Inputs: []string{"x"}}}}
	_, err := ToGraph(gd)
	if !errors.Is(err, graph.ErrUnexpectedNodeKind) {
		t.Errorf("expected ErrUnexpectedNodeKind, got %v", err)
	}
}

// TestToGraphRejectsTransposedMatMul fails on transpose attributes.
func TestToGraphRejectsTransposedMatMul(t *testing.T) {
	gd := &GraphDef{Nodes: []NodeDef{{
		Name: "mm", Op: "MatMul", Inputs: []string{"x", "W"},
		Attrs: map[string]*AttrValue{"transpose_b": {B: true}},
	}}}
	_, err := ToGraph(gd)
	if !errors.Is(err, graph.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

// TestFreeze prunes nodes unreachable from the output.
func TestFreeze(t *testing.T) {
	gd := FromGraph(buildTestGraph(t))
	gd.Nodes = append(gd.Nodes, NodeDef{
		Name: "orphan", Op: "Const", Attrs: map[string]*AttrValue{
			"dtype": {Type: DTFloat},
			"value": {Tensor: &TensorProto{DType: DTFloat, FloatVal: []float32{1}}},
		},
	})

	frozen, err := Freeze(gd, []string{"y_out"})
	if err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}
	if len(frozen.Nodes) != 10 {
		t.Errorf("expected 10 nodes after freeze, got %d", len(frozen.Nodes))
	}
	for i := range frozen.Nodes {
		if frozen.Nodes[i].Name == "orphan" {
			t.Error("orphan const survived freeze")
		}
	}
}

// TestFreezeMissingOutput fails when the output node does not exist.
func TestFreezeMissingOutput(t *testing.T) {
	gd := FromGraph(buildTestGraph(t))
	_, err := Freeze(gd, []string{"custom_output"})
	if !errors.Is(err, graph.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func nodeByName(t *testing.T, gd *GraphDef, name string) *NodeDef {
	t.Helper()
	for i := range gd.Nodes {
		if gd.Nodes[i].Name == name {
			return &gd.Nodes[i]
		}
	}
	t.Fatalf("node %q not found", name)
	return nil
}
