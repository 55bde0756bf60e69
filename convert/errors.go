package convert

import (
	"github.com/nnet-go/nnet/internal/graph"
	"github.com/nnet-go/nnet/internal/network"
)

// Sentinel errors surfaced by the converters, re-exported from the
// internal packages so callers can match with errors.Is. Missing input
// files match fs.ErrNotExist; other I/O failures are returned wrapped
// with the offending path.
var (
	ErrShapeMismatch      = network.ErrShapeMismatch
	ErrNameCollision      = graph.ErrNameCollision
	ErrUnexpectedNodeKind = graph.ErrUnexpectedNodeKind
	ErrArityMismatch      = graph.ErrArityMismatch
	ErrMissingInitializer = graph.ErrMissingInitializer
	ErrMalformedGraph     = graph.ErrMalformedGraph
	ErrUnsupportedFormat  = graph.ErrUnsupportedFormat
)
