// Package graph holds the format-neutral computation graph for a
// feed-forward network and the two core conversions:
//
//   - Build turns a network into a chain of MatMul, Add, and Relu nodes
//     with constant weight/bias tensors.
//   - Extract walks an arbitrary graph backward from its declared
//     output, validates the feed-forward pattern, and recovers the
//     network.
//
// Operations are a closed set (MatMul, Add, Relu); constants live in a
// separate initializer table rather than as nodes. The ONNX and
// GraphDef packages map this representation to and from their wire
// formats.
package graph
