package graph

import "errors"

// Sentinel errors for graph construction and extraction.
var (
	// ErrNameCollision reports a caller-supplied tensor name that
	// clashes with a generated constant or intermediate name.
	ErrNameCollision = errors.New("tensor name collision")

	// ErrUnexpectedNodeKind reports a node whose operation does not
	// match the feed-forward pattern at its position.
	ErrUnexpectedNodeKind = errors.New("unexpected node kind")

	// ErrArityMismatch reports a node with the wrong number of inputs.
	ErrArityMismatch = errors.New("wrong input arity")

	// ErrMissingInitializer reports a constant operand that is absent
	// from the graph's initializer table.
	ErrMissingInitializer = errors.New("missing initializer")

	// ErrMalformedGraph reports a walk that never reaches the declared
	// input, including cyclic graphs.
	ErrMalformedGraph = errors.New("malformed graph")

	// ErrUnsupportedFormat reports a loaded model that cannot be mapped
	// to this representation: a requested variable name that is absent,
	// or tensor data in an element type other than float32.
	ErrUnsupportedFormat = errors.New("unsupported format")
)
