package convert

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/nnet-go/nnet/internal/network"
	"github.com/nnet-go/nnet/internal/nnet"
)

func writeSample(t *testing.T, normalization bool) string {
	t.Helper()
	net := &network.Network{
		Weights: []*mat.Dense{
			mat.NewDense(3, 2, []float64{0.5, -1, 2, 0.25, -0.75, 1.5}),
			mat.NewDense(1, 3, []float64{1, -0.5, 0.25}),
		},
		Biases: []*mat.VecDense{
			mat.NewVecDense(3, []float64{0.125, -0.25, 0.5}),
			mat.NewVecDense(1, []float64{1}),
		},
	}
	if normalization {
		net.InputMins = []float64{-5, -5}
		net.InputMaxes = []float64{5, 5}
		net.Means = []float64{0.5, -0.5, 2}
		net.Ranges = []float64{2, 4, 8}
	}
	path := filepath.Join(t.TempDir(), "sample.nnet")
	require.NoError(t, nnet.Write(path, net))
	return path
}

func TestONNXRoundTrip(t *testing.T) {
	nnetPath := writeSample(t, false)

	onnxPath, err := NNet2ONNX(nnetPath)
	require.NoError(t, err)
	assert.Equal(t, swapExt(nnetPath, ".nnet", ".onnx"), onnxPath)

	backPath, err := ONNX2NNet(onnxPath, Options{
		OutputPath: filepath.Join(filepath.Dir(nnetPath), "back.nnet"),
	})
	require.NoError(t, err)

	want, err := nnet.Read(nnetPath)
	require.NoError(t, err)
	got, err := nnet.Read(backPath)
	require.NoError(t, err)

	require.Equal(t, want.NumLayers(), got.NumLayers())
	for i := range want.Weights {
		assert.True(t, mat.EqualApprox(want.Weights[i], got.Weights[i], 1e-4), "layer %d weights", i)
		assert.True(t, mat.EqualApprox(want.Biases[i], got.Biases[i], 1e-4), "layer %d biases", i)
	}
}

func TestONNXRoundTripNormalized(t *testing.T) {
	nnetPath := writeSample(t, true)

	onnxPath, err := NNet2ONNX(nnetPath, Options{Normalize: true})
	require.NoError(t, err)
	backPath, err := ONNX2NNet(onnxPath, Options{
		OutputPath: filepath.Join(filepath.Dir(nnetPath), "back.nnet"),
	})
	require.NoError(t, err)

	original, err := nnet.Read(nnetPath)
	require.NoError(t, err)
	recovered, err := nnet.Read(backPath)
	require.NoError(t, err)

	// The recovered network is the raw-input fold of the original, so
	// in-range evaluations must agree.
	for _, x := range [][]float64{{0, 0}, {1, 2}, {-3, 4.5}} {
		want, err := original.Evaluate(x)
		require.NoError(t, err)
		got, err := recovered.Evaluate(x)
		require.NoError(t, err)
		assert.InDelta(t, want[0], got[0], 1e-2+1e-3*abs(want[0]), "input %v", x)
	}
}

func TestPbRoundTrip(t *testing.T) {
	nnetPath := writeSample(t, false)

	pbPath, err := NNet2Pb(nnetPath)
	require.NoError(t, err)
	assert.Equal(t, swapExt(nnetPath, ".nnet", ".pb"), pbPath)

	backPath, err := Pb2NNet(pbPath, Options{
		OutputPath: filepath.Join(filepath.Dir(nnetPath), "back.nnet"),
	})
	require.NoError(t, err)

	want, err := nnet.Read(nnetPath)
	require.NoError(t, err)
	got, err := nnet.Read(backPath)
	require.NoError(t, err)

	require.Equal(t, want.NumLayers(), got.NumLayers())
	for i := range want.Weights {
		assert.True(t, mat.EqualApprox(want.Weights[i], got.Weights[i], 1e-4), "layer %d weights", i)
		assert.True(t, mat.EqualApprox(want.Biases[i], got.Biases[i], 1e-4), "layer %d biases", i)
	}
}

func TestPbCustomOutputNode(t *testing.T) {
	nnetPath := writeSample(t, false)
	pbPath, err := NNet2Pb(nnetPath, Options{OutputVar: "custom_output"})
	require.NoError(t, err)

	backPath, err := Pb2NNet(pbPath, Options{
		OutputPath: filepath.Join(filepath.Dir(nnetPath), "back.nnet"),
		OutputVar:  "custom_output",
	})
	require.NoError(t, err)
	_, err = nnet.Read(backPath)
	assert.NoError(t, err)
}

func TestDeterministicOutput(t *testing.T) {
	nnetPath := writeSample(t, false)
	dir := filepath.Dir(nnetPath)

	a, err := NNet2ONNX(nnetPath, Options{OutputPath: filepath.Join(dir, "a.onnx")})
	require.NoError(t, err)
	b, err := NNet2ONNX(nnetPath, Options{OutputPath: filepath.Join(dir, "b.onnx")})
	require.NoError(t, err)

	dataA, err := os.ReadFile(a)
	require.NoError(t, err)
	dataB, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, dataA, dataB)
}

func TestMissingInputFile(t *testing.T) {
	_, err := NNet2ONNX(filepath.Join(t.TempDir(), "nope.nnet"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = ONNX2NNet(filepath.Join(t.TempDir(), "nope.onnx"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWrongExtension(t *testing.T) {
	_, err := NNet2ONNX(filepath.Join(t.TempDir(), "model.txt"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestUnknownVariableNames(t *testing.T) {
	nnetPath := writeSample(t, false)
	onnxPath, err := NNet2ONNX(nnetPath)
	require.NoError(t, err)

	_, err = ONNX2NNet(onnxPath, Options{OutputVar: "not_there"})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ONNX2NNet(onnxPath, Options{InputVar: "not_there"})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractIntermediateTensor(t *testing.T) {
	nnetPath := writeSample(t, false)
	onnxPath, err := NNet2ONNX(nnetPath)
	require.NoError(t, err)

	// The first hidden Add is a produced tensor, so the sub-network up
	// to it can be extracted.
	backPath, err := ONNX2NNet(onnxPath, Options{
		OutputPath: filepath.Join(filepath.Dir(nnetPath), "hidden.nnet"),
		OutputVar:  "H0",
	})
	require.NoError(t, err)

	got, err := nnet.Read(backPath)
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumLayers())
	assert.Equal(t, 3, got.OutputSize())
}

func TestCustomTensorNames(t *testing.T) {
	nnetPath := writeSample(t, false)
	onnxPath, err := NNet2ONNX(nnetPath, Options{InputVar: "input", OutputVar: "logits"})
	require.NoError(t, err)

	backPath, err := ONNX2NNet(onnxPath, Options{
		OutputPath: filepath.Join(filepath.Dir(nnetPath), "back.nnet"),
		InputVar:   "input",
		OutputVar:  "logits",
	})
	require.NoError(t, err)
	_, err = nnet.Read(backPath)
	assert.NoError(t, err)
}

func TestFailedWriteLeavesNoFile(t *testing.T) {
	nnetPath := writeSample(t, false)
	outPath := filepath.Join(t.TempDir(), "missing", "out.onnx")
	_, err := NNet2ONNX(nnetPath, Options{OutputPath: outPath})
	require.Error(t, err)
	_, statErr := os.Stat(outPath)
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
