// Package onnx encodes and decodes the subset of the ONNX protobuf
// schema needed for feed-forward networks, and maps it to and from the
// neutral graph representation.
//
// The message structs are hand-written; the wire work is done with
// google.golang.org/protobuf/encoding/protowire. Only the fields a
// MatMul/Add/Relu chain uses are populated on encode, but decode
// tolerates (and skips) everything else a real exporter may emit.
//
// Key components:
//   - ModelProto: top-level model with metadata and graph
//   - GraphProto: nodes, inputs, outputs, and initializers
//   - NodeProto: a single operation (MatMul, Add, Relu)
//   - TensorProto: weight/bias constant with shape and data
//   - FromGraph / ToGraph: mapping against internal/graph
package onnx
