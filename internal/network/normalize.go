package network

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Normalize folds the network's normalization parameters into its
// first and last layer so the result evaluates raw inputs directly.
//
// The input scaling (x-mean)/range becomes a column scaling of the
// first weight matrix plus a bias adjustment; the output scaling
// y*range+mean becomes a row scaling of the last weight matrix plus a
// bias shift. The clipping of inputs to [InputMins, InputMaxes] is not
// affine and is dropped: the folded network assumes in-range inputs.
//
// The returned network carries no normalization parameters. The
// receiver is not modified.
func Normalize(n *Network) (*Network, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if !n.Normalized() {
		return nil, fmt.Errorf("network has no normalization parameters: %w", ErrShapeMismatch)
	}

	weights := make([]*mat.Dense, len(n.Weights))
	biases := make([]*mat.VecDense, len(n.Biases))
	for i := range n.Weights {
		weights[i] = mat.DenseCopyOf(n.Weights[i])
		biases[i] = mat.VecDenseCopyOf(n.Biases[i])
	}

	// Fold the input scaling into layer 0:
	//   W0'[j][k] = W0[j][k] / range[k]
	//   b0'[j]    = b0[j] - sum_k W0'[j][k] * mean[k]
	rows, cols := weights[0].Dims()
	for j := 0; j < rows; j++ {
		var shift float64
		for k := 0; k < cols; k++ {
			w := weights[0].At(j, k) / n.Ranges[k]
			weights[0].Set(j, k, w)
			shift += w * n.Means[k]
		}
		biases[0].SetVec(j, biases[0].AtVec(j)-shift)
	}

	// Fold the output scaling into the last layer:
	//   Wl' = Wl * range[out],  bl' = bl * range[out] + mean[out]
	last := len(weights) - 1
	outIdx := len(n.Ranges) - 1
	outRange, outMean := n.Ranges[outIdx], n.Means[outIdx]
	rows, cols = weights[last].Dims()
	for j := 0; j < rows; j++ {
		for k := 0; k < cols; k++ {
			weights[last].Set(j, k, weights[last].At(j, k)*outRange)
		}
		biases[last].SetVec(j, biases[last].AtVec(j)*outRange+outMean)
	}

	return &Network{Weights: weights, Biases: biases}, nil
}
