package nnet

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nnet-go/nnet/internal/network"
)

// Marshal renders a network in the .nnet text format. Networks without
// normalization parameters are written with identity normalization
// (unbounded inputs, zero means, unit ranges).
func Marshal(net *network.Network) ([]byte, error) {
	if err := net.Validate(); err != nil {
		return nil, err
	}

	numLayers := net.NumLayers()
	inputSize := net.InputSize()
	mins, maxes, means, ranges := net.InputMins, net.InputMaxes, net.Means, net.Ranges
	if !net.Normalized() {
		mins = fill(inputSize, -math.MaxFloat32)
		maxes = fill(inputSize, math.MaxFloat32)
		means = fill(inputSize+1, 0)
		ranges = fill(inputSize+1, 1)
	}

	maxLayerSize := inputSize
	layerSizes := []int{inputSize}
	for i := range net.Weights {
		rows, _ := net.Weights[i].Dims()
		layerSizes = append(layerSizes, rows)
		if rows > maxLayerSize {
			maxLayerSize = rows
		}
	}

	var buf bytes.Buffer
	buf.WriteString("// Neural network file generated by nnetconv\n")
	fmt.Fprintf(&buf, "%d,%d,%d,%d,\n", numLayers, inputSize, net.OutputSize(), maxLayerSize)
	writeInts(&buf, layerSizes)
	buf.WriteString("0,\n")
	writeFloats(&buf, mins)
	writeFloats(&buf, maxes)
	writeFloats(&buf, means)
	writeFloats(&buf, ranges)

	for i := range net.Weights {
		rows, cols := net.Weights[i].Dims()
		for j := 0; j < rows; j++ {
			row := make([]float64, cols)
			for k := 0; k < cols; k++ {
				row[k] = net.Weights[i].At(j, k)
			}
			writeFloats(&buf, row)
		}
		for j := 0; j < rows; j++ {
			writeFloats(&buf, []float64{net.Biases[i].AtVec(j)})
		}
	}
	return buf.Bytes(), nil
}

// Write saves a network to a .nnet file. The file is written to a
// temporary path in the same directory and renamed into place, so a
// failed write never leaves a truncated file behind.
func Write(path string, net *network.Network) error {
	data, err := Marshal(net)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".nnet-*")
	if err != nil {
		return fmt.Errorf("failed to create .nnet file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write .nnet file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write .nnet file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write .nnet file: %w", err)
	}
	return nil
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func writeInts(buf *bytes.Buffer, vals []int) {
	for _, v := range vals {
		buf.WriteString(strconv.Itoa(v))
		buf.WriteByte(',')
	}
	buf.WriteByte('\n')
}

func writeFloats(buf *bytes.Buffer, vals []float64) {
	for _, v := range vals {
		buf.WriteString(strconv.FormatFloat(v, 'e', 5, 64))
		buf.WriteByte(',')
	}
	buf.WriteByte('\n')
}
