// Package nnet reads and writes the .nnet text format.
//
// A .nnet file stores a feed-forward network as comma-separated text:
//
//	// header comment lines
//	numLayers, inputSize, outputSize, maxLayerSize,
//	layerSizes (numLayers+1 entries),
//	0,                      (unused legacy flag)
//	input minimums,
//	input maximums,
//	means   (inputSize+1 entries, last covers the outputs),
//	ranges  (inputSize+1 entries, last covers the outputs),
//	weights and biases per layer, one weight row or bias value per line
package nnet
