package convert

import (
	"github.com/nnet-go/nnet/internal/graph"
	"github.com/nnet-go/nnet/internal/graphdef"
	"github.com/nnet-go/nnet/internal/nnet"
)

// Default GraphDef node names, matching the conventions of the .nnet
// toolchain's TensorFlow export.
const (
	defaultPbInput  = "x"
	defaultPbOutput = "y_out"
)

// NNet2Pb converts a .nnet file to a frozen TensorFlow GraphDef and
// returns the path written. The graph is frozen against OutputVar, so
// only nodes feeding it survive.
func NNet2Pb(nnetPath string, opts ...Options) (string, error) {
	opt := options(opts)
	if opt.InputVar == "" {
		opt.InputVar = defaultPbInput
	}
	if opt.OutputVar == "" {
		opt.OutputVar = defaultPbOutput
	}
	if opt.OutputPath == "" {
		opt.OutputPath = swapExt(nnetPath, ".nnet", ".pb")
	}

	net, err := readNetwork(nnetPath, opt.Normalize)
	if err != nil {
		return "", err
	}
	g, err := graph.Build(net, opt.InputVar, opt.OutputVar)
	if err != nil {
		return "", err
	}
	frozen, err := graphdef.Freeze(graphdef.FromGraph(g), []string{opt.OutputVar})
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(opt.OutputPath, graphdef.Marshal(frozen)); err != nil {
		return "", err
	}
	return opt.OutputPath, nil
}

// Pb2NNet recovers the .nnet form of a frozen GraphDef feed-forward
// model and returns the path written. The result is always the
// raw-input form; normalization is never reconstructed.
func Pb2NNet(pbPath string, opts ...Options) (string, error) {
	opt := options(opts)
	if opt.OutputPath == "" {
		opt.OutputPath = swapExt(pbPath, ".pb", ".nnet")
	}

	gd, err := graphdef.ParseFile(pbPath)
	if err != nil {
		return "", err
	}
	g, err := graphdef.ToGraph(gd)
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
