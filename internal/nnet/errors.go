package nnet

import "errors"

var (
	// ErrInvalidFormat reports a .nnet file whose content does not
	// follow the expected layout.
	ErrInvalidFormat = errors.New("invalid .nnet format")
)
