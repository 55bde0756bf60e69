package network

import "errors"

// Sentinel errors for array-model validation.
var (
	// ErrShapeMismatch reports weight, bias, or normalization vectors
	// whose dimensions do not agree with each other or with the
	// declared input/output sizes.
	ErrShapeMismatch = errors.New("shape mismatch")
)
