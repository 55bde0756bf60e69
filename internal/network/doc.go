// Package network holds the in-memory representation of a feed-forward
// network: an ordered list of weight matrices and bias vectors, plus
// optional per-feature normalization parameters.
//
// A Network is built once per conversion (from a .nnet file or by
// extracting a computation graph), validated, and then consumed by
// exactly one graph builder or file writer. It is never mutated after
// construction and never shared between conversions.
//
// Layer i computes relu(W_i * x + b_i), with the final layer linear.
// Weight matrices are stored as (outputs, inputs), matching the
// row-per-neuron layout of the .nnet format.
package network
