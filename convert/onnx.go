package convert

import (
	"github.com/nnet-go/nnet/internal/graph"
	"github.com/nnet-go/nnet/internal/nnet"
	"github.com/nnet-go/nnet/internal/onnx"
)

// Default ONNX tensor names, matching the conventions of the .nnet
// toolchain.
const (
	defaultONNXInput  = "X"
	defaultONNXOutput = "y_out"
)

// NNet2ONNX converts a .nnet file to an ONNX model and returns the
// path written.
func NNet2ONNX(nnetPath string, opts ...Options) (string, error) {
	opt := options(opts)
	if opt.InputVar == "" {
		opt.InputVar = defaultONNXInput
	}
	if opt.OutputVar == "" {
		opt.OutputVar = defaultONNXOutput
	}
	if opt.OutputPath == "" {
		opt.OutputPath = swapExt(nnetPath, ".nnet", ".onnx")
	}

	net, err := readNetwork(nnetPath, opt.Normalize)
	if err != nil {
		return "", err
	}
	g, err := graph.Build(net, opt.InputVar, opt.OutputVar)
	if err != nil {
		return "", err
	}
	data := onnx.Marshal(onnx.FromGraph(g, producerName))
	if err := writeFileAtomic(opt.OutputPath, data); err != nil {
		return "", err
	}
	return opt.OutputPath, nil
}

// ONNX2NNet recovers the .nnet form of an ONNX feed-forward model and
// returns the path written. The result is always the raw-input form;
// normalization is never reconstructed.
func ONNX2NNet(onnxPath string, opts ...Options) (string, error) {
	opt := options(opts)
	if opt.OutputPath == "" {
		opt.OutputPath = swapExt(onnxPath, ".onnx", ".nnet")
	}

	model, err := onnx.ParseFile(onnxPath)
	if err != nil {
		return "", err
	}
	g, err := onnx.ToGraph(model)
	if err != nil {
		return "", err
	}
	inputVar, outputVar, err := resolveVars(g, opt)
	if err != nil {
		return "", err
	}
	net, err := graph.Extract(g, inputVar, outputVar)
	if err != nil {
		return "", err
	}
	if err := nnet.Write(opt.OutputPath, net); err != nil {
		return "", err
	}
	return opt.OutputPath, nil
}
