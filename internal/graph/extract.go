package graph

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/nnet-go/nnet/internal/network"
)

// Extract walks a graph backward from outputVar and recovers the
// network it encodes. The walk expects, per layer, an Add fed by a
// constant bias and a MatMul, the MatMul fed by a constant weight and
// either the declared input (terminating the walk) or a Relu over the
// previous layer's Add.
//
// Weight constants shaped (in, out) — the right MatMul operand — are
// transposed back to the (out, in) storage layout; weights appearing
// as the left operand are taken as (out, in) column-vector networks.
//
// Extraction never reconstructs normalization parameters: the result
// is always the raw-input form of the network.
func Extract(g *Graph, inputVar, outputVar string) (*network.Network, error) {
	var weights []*mat.Dense
	var biases []*mat.VecDense

	visited := make(map[int]bool)
	cur := outputVar
	for steps := 0; ; steps++ {
		if steps > len(g.Nodes) {
			return nil, fmt.Errorf("walk from %q exceeded %d steps without reaching input %q: %w",
				outputVar, len(g.Nodes), inputVar, ErrMalformedGraph)
		}

		add, err := g.visit(cur, OpAdd, visited)
		if err != nil {
			return nil, err
		}
		if len(add.Inputs) != 2 {
			return nil, fmt.Errorf("node %q: Add has %d inputs, expected 2: %w",
				add.Output, len(add.Inputs), ErrArityMismatch)
		}
		bias, matVar, err := g.splitOperands(add)
		if err != nil {
			return nil, err
		}

		matmul, err := g.visit(matVar, OpMatMul, visited)
		if err != nil {
			return nil, err
		}
		if len(matmul.Inputs) != 2 {
			return nil, fmt.Errorf("node %q: MatMul has %d inputs, expected 2: %w",
				matmul.Output, len(matmul.Inputs), ErrArityMismatch)
		}
		weight, dataVar, err := g.splitOperands(matmul)
		if err != nil {
			return nil, err
		}

		w, b, err := layerArrays(matmul, weight, bias)
		if err != nil {
			return nil, err
		}
		weights = append([]*mat.Dense{w}, weights...)
		biases = append([]*mat.VecDense{b}, biases...)

		if dataVar == inputVar {
			break
		}

		relu, err := g.visit(dataVar, OpRelu, visited)
		if err != nil {
			return nil, err
		}
		if len(relu.Inputs) != 1 {
			return nil, fmt.Errorf("node %q: Relu has %d inputs, expected 1: %w",
				relu.Output, len(relu.Inputs), ErrArityMismatch)
		}
		cur = relu.Inputs[0]
	}

	net := &network.Network{Weights: weights, Biases: biases}
	if err := net.Validate(); err != nil {
		return nil, err
	}
	// Declared sizes only constrain the declared tensors; extracting
	// against an intermediate tensor recovers a sub-network with its
	// own sizes.
	if inputVar == g.InputName && g.InputSize > 0 && net.InputSize() != g.InputSize {
		return nil, fmt.Errorf("recovered input size %d, graph declares %d: %w",
			net.InputSize(), g.InputSize, network.ErrShapeMismatch)
	}
	if outputVar == g.OutputName && g.OutputSize > 0 && net.OutputSize() != g.OutputSize {
		return nil, fmt.Errorf("recovered output size %d, graph declares %d: %w",
			net.OutputSize(), g.OutputSize, network.ErrShapeMismatch)
	}
	return net, nil
}

// visit resolves the node producing name, enforcing the expected
// operation and marking it against revisits.
func (g *Graph) visit(name string, want OpKind, visited map[int]bool) (*Node, error) {
	idx := g.producer(name)
	if idx < 0 {
		if _, ok := g.Initializer(name); ok {
			return nil, fmt.Errorf("tensor %q is a constant, expected a %s node: %w",
				name, want, ErrUnexpectedNodeKind)
		}
		return nil, fmt.Errorf("no node produces tensor %q: %w", name, ErrMalformedGraph)
	}
	if visited[idx] {
		return nil, fmt.Errorf("node %q visited twice, graph is cyclic: %w",
			g.Nodes[idx].Output, ErrMalformedGraph)
	}
	visited[idx] = true
	if g.Nodes[idx].Op != want {
		return nil, fmt.Errorf("node %q is %s, expected %s: %w",
			g.Nodes[idx].Output, g.Nodes[idx].Op, want, ErrUnexpectedNodeKind)
	}
	return &g.Nodes[idx], nil
}

// splitOperands separates a two-input node into its constant operand
// and its dataflow operand.
func (g *Graph) splitOperands(n *Node) (*Tensor, string, error) {
	c0, ok0 := g.Initializer(n.Inputs[0])
	c1, ok1 := g.Initializer(n.Inputs[1])
	switch {
	case ok0 && ok1:
		return nil, "", fmt.Errorf("node %q: both operands are constants: %w",
			n.Output, ErrUnexpectedNodeKind)
	case ok1:
		return c1, n.Inputs[0], nil
	case ok0:
		return c0, n.Inputs[1], nil
	default:
		return nil, "", fmt.Errorf("node %q: no constant operand among %v: %w",
			n.Output, n.Inputs, ErrMissingInitializer)
	}
}

// layerArrays converts a layer's weight and bias constants to the
// (out, in) storage layout, transposing the weight when it was the
// right MatMul operand.
func layerArrays(matmul *Node, weight, bias *Tensor) (*mat.Dense, *mat.VecDense, error) {
	if len(weight.Dims) != 2 {
		return nil, nil, fmt.Errorf("weight %q has %d dims, expected 2: %w",
			weight.Name, len(weight.Dims), network.ErrShapeMismatch)
	}
	if len(bias.Dims) != 1 {
		return nil, nil, fmt.Errorf("bias %q has %d dims, expected 1: %w",
			bias.Name, len(bias.Dims), network.ErrShapeMismatch)
	}

	if len(weight.Data) != weight.Dims[0]*weight.Dims[1] {
		return nil, nil, fmt.Errorf("weight %q has %d values for dims %v: %w",
			weight.Name, len(weight.Data), weight.Dims, network.ErrShapeMismatch)
	}

	// A weight on the MatMul's right is in the (in, out) wire layout
	// and flips back to (out, in); on the left it is (out, in) already.
	transposed := matmul.Inputs[1] == weight.Name
	rows, cols := weight.Dims[0], weight.Dims[1]
	if transposed {
		rows, cols = cols, rows
	}
	w := mat.NewDense(rows, cols, nil)
	for j := 0; j < rows; j++ {
		for k := 0; k < cols; k++ {
			if transposed {
				w.Set(j, k, weight.Data[k*rows+j])
			} else {
				w.Set(j, k, weight.Data[j*cols+k])
			}
		}
	}

	if len(bias.Data) != bias.Dims[0] {
		return nil, nil, fmt.Errorf("bias %q has %d values for dims %v: %w",
			bias.Name, len(bias.Data), bias.Dims, network.ErrShapeMismatch)
	}
	if bias.Dims[0] != rows {
		return nil, nil, fmt.Errorf("bias %q has %d entries, weight %q produces %d: %w",
			bias.Name, bias.Dims[0], weight.Name, rows, network.ErrShapeMismatch)
	}
	b := mat.NewVecDense(rows, nil)
	for j := 0; j < rows; j++ {
		b.SetVec(j, bias.Data[j])
	}
	return w, b, nil
}
