package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nnet-go/nnet/internal/graph"
	"github.com/nnet-go/nnet/internal/network"
	"github.com/nnet-go/nnet/internal/nnet"
)

// producerName is recorded in exported model metadata.
const producerName = "nnetconv"

// Options configures a conversion. The zero value selects defaults:
// the output path is the input path with the extension swapped, the
// input/output variables are named "X"/"y_out" for ONNX and "x"/"y_out"
// for GraphDef, and normalization is left in the .nnet file rather
// than folded into the weights.
type Options struct {
	// OutputPath is where the converted file is written.
	OutputPath string

	// InputVar and OutputVar name the graph's input and output tensors
	// on export; on import they select which tensors to extract
	// between, when the graph declares several.
	InputVar  string
	OutputVar string

	// Normalize folds the .nnet normalization parameters into the
	// first and last layer before building the graph.
	Normalize bool
}

func options(opts []Options) Options {
	if len(opts) > 0 {
		return opts[0]
	}
	return Options{}
}

// readNetwork loads a .nnet file, optionally folding normalization.
func readNetwork(path string, normalize bool) (*network.Network, error) {
	if !strings.HasSuffix(path, ".nnet") {
		return nil, fmt.Errorf("input file %q must have a .nnet extension: %w",
			path, ErrUnsupportedFormat)
	}
	if normalize {
		return nnet.ReadNormalized(path)
	}
	return nnet.Read(path)
}

// resolveVars picks the input/output tensor names for extraction:
// caller-supplied names must exist in the graph, empty ones fall back
// to the graph's declared names.
func resolveVars(g *graph.Graph, opt Options) (inputVar, outputVar string, err error) {
	inputVar, outputVar = opt.InputVar, opt.OutputVar
	if inputVar == "" {
		inputVar = g.InputName
	} else if !consumesTensor(g, inputVar) {
		return "", "", fmt.Errorf("input variable %q not found in graph: %w",
			inputVar, ErrUnsupportedFormat)
	}
	if outputVar == "" {
		outputVar = g.OutputName
	} else if !producesTensor(g, outputVar) {
		return "", "", fmt.Errorf("output variable %q not found in graph: %w",
			outputVar, ErrUnsupportedFormat)
	}
	if inputVar == "" || outputVar == "" {
		return "", "", fmt.Errorf("graph declares no input/output tensors: %w", ErrUnsupportedFormat)
	}
	return inputVar, outputVar, nil
}

func consumesTensor(g *graph.Graph, name string) bool {
	if name == g.InputName {
		return true
	}
	for _, n := range g.Nodes {
		for _, in := range n.Inputs {
			if in == name {
				return true
			}
		}
	}
	return false
}

func producesTensor(g *graph.Graph, name string) bool {
	for _, n := range g.Nodes {
		if n.Output == name {
			return true
		}
	}
	return false
}

// swapExt replaces a path's extension.
func swapExt(path, oldExt, newExt string) string {
	return strings.TrimSuffix(path, oldExt) + newExt
}

// writeFileAtomic writes data to a temporary file in the target
// directory and renames it into place, so no partial output survives a
// failed write.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".nnetconv-*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
