// Package graphdef encodes and decodes the subset of TensorFlow's
// frozen GraphDef protobuf needed for feed-forward networks, and maps
// it to and from the neutral graph representation.
//
// A frozen graph has no variables: weights and biases are Const nodes,
// the input is a Placeholder, and a node's name doubles as its output
// tensor name. Freeze prunes a graph to the nodes reachable from a set
// of output names, which is all that remains of TensorFlow's
// variable-folding freeze for a graph that is constants already.
package graphdef
