package graph

import (
	"fmt"

	"github.com/nnet-go/nnet/internal/network"
)

// Build turns a network into its dataflow graph. Layer i becomes
// MatMul(cur, W{i}) -> M{i} and Add(M{i}, B{i}) -> H{i}, with
// Relu(H{i}) -> R{i} feeding the next layer; the final Add writes
// directly to outputVar. Weight constants are emitted transposed, as
// (inputs, outputs), so MatMul consumes [batch, in] row vectors.
//
// Generated names are W{i}, B{i}, M{i}, H{i}, R{i}; inputVar and
// outputVar must not collide with them or with each other.
func Build(net *network.Network, inputVar, outputVar string) (*Graph, error) {
	if err := net.Validate(); err != nil {
		return nil, err
	}
	if err := checkNames(net.NumLayers(), inputVar, outputVar); err != nil {
		return nil, err
	}

	g := &Graph{
		InputName:  inputVar,
		OutputName: outputVar,
		InputSize:  net.InputSize(),
		OutputSize: net.OutputSize(),
	}

	numLayers := net.NumLayers()
	cur := inputVar
	for i := 0; i < numLayers; i++ {
		rows, cols := net.Weights[i].Dims()
		weightName := fmt.Sprintf("W%d", i)
		biasName := fmt.Sprintf("B%d", i)
		matmulName := fmt.Sprintf("M%d", i)
		addName := outputVar
		if i < numLayers-1 {
			addName = fmt.Sprintf("H%d", i)
		}

		// Transpose (out, in) storage to the (in, out) wire layout.
		wdata := make([]float64, rows*cols)
		for j := 0; j < rows; j++ {
			for k := 0; k < cols; k++ {
				wdata[k*rows+j] = net.Weights[i].At(j, k)
			}
		}
		bdata := make([]float64, rows)
		for j := 0; j < rows; j++ {
			bdata[j] = net.Biases[i].AtVec(j)
		}
		g.Initializers = append(g.Initializers,
			Tensor{Name: weightName, Dims: []int{cols, rows}, Data: wdata},
			Tensor{Name: biasName, Dims: []int{rows}, Data: bdata},
		)

		g.Nodes = append(g.Nodes,
			Node{Op: OpMatMul, Inputs: []string{cur, weightName}, Output: matmulName},
			Node{Op: OpAdd, Inputs: []string{matmulName, biasName}, Output: addName},
		)
		if i < numLayers-1 {
			reluName := fmt.Sprintf("R%d", i)
			g.Nodes = append(g.Nodes, Node{Op: OpRelu, Inputs: []string{addName}, Output: reluName})
			cur = reluName
		}
	}
	return g, nil
}

// checkNames rejects caller-supplied names that clash with generated
// ones or with each other.
func checkNames(numLayers int, inputVar, outputVar string) error {
	if inputVar == outputVar {
		return fmt.Errorf("input and output are both named %q: %w", inputVar, ErrNameCollision)
	}
	for i := 0; i < numLayers; i++ {
		for _, prefix := range []string{"W", "B", "M", "H", "R"} {
			name := fmt.Sprintf("%s%d", prefix, i)
			if inputVar == name || outputVar == name {
				return fmt.Errorf("name %q is reserved for a generated tensor: %w", name, ErrNameCollision)
			}
		}
	}
	return nil
}
