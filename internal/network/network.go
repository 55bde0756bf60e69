package network

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Network is a feed-forward network: one (weight, bias) pair per layer
// with ReLU between layers and a linear final layer.
type Network struct {
	// Weights[i] has shape (outputs_i, inputs_i).
	Weights []*mat.Dense
	// Biases[i] has length outputs_i.
	Biases []*mat.VecDense

	// Normalization parameters. InputMins and InputMaxes have one entry
	// per input feature; Means and Ranges have one entry per input
	// feature plus a trailing entry covering all outputs. Either all
	// four are present or all are nil.
	InputMins  []float64
	InputMaxes []float64
	Means      []float64
	Ranges     []float64
}

// NumLayers returns the number of (weight, bias) layers.
func (n *Network) NumLayers() int { return len(n.Weights) }

// InputSize returns the number of input features.
func (n *Network) InputSize() int {
	_, cols := n.Weights[0].Dims()
	return cols
}

// OutputSize returns the number of output features.
func (n *Network) OutputSize() int {
	rows, _ := n.Weights[len(n.Weights)-1].Dims()
	return rows
}

// Normalized reports whether the network carries normalization
// parameters that must be applied before evaluation.
func (n *Network) Normalized() bool { return n.Means != nil }

// Validate checks the structural invariants of the network: at least
// one layer, matching weight/bias counts, chained layer dimensions,
// and normalization vector lengths when present.
func (n *Network) Validate() error {
	if len(n.Weights) == 0 {
		return fmt.Errorf("network has no layers: %w", ErrShapeMismatch)
	}
	if len(n.Weights) != len(n.Biases) {
		return fmt.Errorf("%d weight matrices but %d bias vectors: %w",
			len(n.Weights), len(n.Biases), ErrShapeMismatch)
	}

	prevOut := n.InputSize()
	for i := range n.Weights {
		rows, cols := n.Weights[i].Dims()
		if cols != prevOut {
			return fmt.Errorf("layer %d: weights are %dx%d, expected input size %d: %w",
				i, rows, cols, prevOut, ErrShapeMismatch)
		}
		if n.Biases[i].Len() != rows {
			return fmt.Errorf("layer %d: bias has %d entries, expected %d: %w",
				i, n.Biases[i].Len(), rows, ErrShapeMismatch)
		}
		prevOut = rows
	}

	if n.Normalized() {
		in := n.InputSize()
		if len(n.InputMins) != in || len(n.InputMaxes) != in {
			return fmt.Errorf("input bounds have %d/%d entries, expected %d: %w",
				len(n.InputMins), len(n.InputMaxes), in, ErrShapeMismatch)
		}
		if len(n.Means) != in+1 || len(n.Ranges) != in+1 {
			return fmt.Errorf("means/ranges have %d/%d entries, expected %d: %w",
				len(n.Means), len(n.Ranges), in+1, ErrShapeMismatch)
		}
	}
	return nil
}

// Evaluate runs the forward pass on a single input vector. When the
// network carries normalization parameters, inputs are clipped to
// [InputMins, InputMaxes] and scaled by (x-mean)/range first, and the
// output is scaled back by range and shifted by mean.
func (n *Network) Evaluate(input []float64) ([]float64, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if len(input) != n.InputSize() {
		return nil, fmt.Errorf("input has %d entries, expected %d: %w",
			len(input), n.InputSize(), ErrShapeMismatch)
	}

	x := make([]float64, len(input))
	copy(x, input)
	if n.Normalized() {
		for k := range x {
			x[k] = math.Min(math.Max(x[k], n.InputMins[k]), n.InputMaxes[k])
			x[k] = (x[k] - n.Means[k]) / n.Ranges[k]
		}
	}

	cur := mat.NewVecDense(len(x), x)
	for i := range n.Weights {
		rows, _ := n.Weights[i].Dims()
		next := mat.NewVecDense(rows, nil)
		next.MulVec(n.Weights[i], cur)
		next.AddVec(next, n.Biases[i])
		if i < len(n.Weights)-1 {
			for j := 0; j < rows; j++ {
				if next.AtVec(j) < 0 {
					next.SetVec(j, 0)
				}
			}
		}
		cur = next
	}

	out := make([]float64, cur.Len())
	for j := range out {
		out[j] = cur.AtVec(j)
		if n.Normalized() {
			last := len(n.Ranges) - 1
			out[j] = out[j]*n.Ranges[last] + n.Means[last]
		}
	}
	return out, nil
}
