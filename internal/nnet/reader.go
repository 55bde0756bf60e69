package nnet

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/nnet-go/nnet/internal/network"
)

// Read parses a .nnet file into a Network. The returned network keeps
// the file's normalization parameters; use ReadNormalized to fold them
// into the weights instead.
//
//nolint:gosec // G304: Path is provided by the user, reading it is the point.
func Read(path string) (*network.Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open .nnet file: %w", err)
	}
	defer f.Close()

	r := &lineReader{scanner: bufio.NewScanner(f)}
	r.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	header, err := r.ints(4)
	if err != nil {
		return nil, err
	}
	numLayers, inputSize := header[0], header[1]
	if numLayers < 1 || inputSize < 1 {
		return nil, fmt.Errorf("line %d: %d layers with input size %d: %w",
			r.line, numLayers, inputSize, ErrInvalidFormat)
	}

	layerSizes, err := r.ints(numLayers + 1)
	if err != nil {
		return nil, err
	}
	if layerSizes[0] != inputSize {
		return nil, fmt.Errorf("line %d: first layer size %d does not match input size %d: %w",
			r.line, layerSizes[0], inputSize, ErrInvalidFormat)
	}

	// Unused legacy flag line.
	if _, err := r.floats(1); err != nil {
		return nil, err
	}

	mins, err := r.floats(inputSize)
	if err != nil {
		return nil, err
	}
	maxes, err := r.floats(inputSize)
	if err != nil {
		return nil, err
	}
	means, err := r.floats(inputSize + 1)
	if err != nil {
		return nil, err
	}
	ranges, err := r.floats(inputSize + 1)
	if err != nil {
		return nil, err
	}

	net := &network.Network{
		InputMins:  mins,
		InputMaxes: maxes,
		Means:      means,
		Ranges:     ranges,
	}
	for i := 0; i < numLayers; i++ {
		rows, cols := layerSizes[i+1], layerSizes[i]
		w := mat.NewDense(rows, cols, nil)
		for j := 0; j < rows; j++ {
			row, err := r.floats(cols)
			if err != nil {
				return nil, fmt.Errorf("layer %d weights: %w", i, err)
			}
			w.SetRow(j, row)
		}
		b := mat.NewVecDense(rows, nil)
		for j := 0; j < rows; j++ {
			v, err := r.floats(1)
			if err != nil {
				return nil, fmt.Errorf("layer %d biases: %w", i, err)
			}
			b.SetVec(j, v[0])
		}
		net.Weights = append(net.Weights, w)
		net.Biases = append(net.Biases, b)
	}

	if err := net.Validate(); err != nil {
		return nil, err
	}
	return net, nil
}

// ReadNormalized parses a .nnet file and folds its normalization
// parameters into the first and last layer, returning a network that
// evaluates raw inputs directly.
func ReadNormalized(path string) (*network.Network, error) {
	net, err := Read(path)
	if err != nil {
		return nil, err
	}
	return network.Normalize(net)
}

// lineReader yields comma-separated value lines, skipping comments.
type lineReader struct {
	scanner *bufio.Scanner
	line    int
}

// fields returns the values of the next non-comment line.
func (r *lineReader) fields() ([]string, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "//") {
			continue
		}
		parts := strings.Split(text, ",")
		fields := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				fields = append(fields, p)
			}
		}
		return fields, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read .nnet file: %w", err)
	}
	return nil, fmt.Errorf("line %d: unexpected end of file: %w", r.line, ErrInvalidFormat)
}

// floats reads the next value line and parses exactly n floats.
func (r *lineReader) floats(n int) ([]float64, error) {
	fields, err := r.fields()
	if err != nil {
		return nil, err
	}
	if len(fields) < n {
		return nil, fmt.Errorf("line %d: expected %d values, got %d: %w",
			r.line, n, len(fields), ErrInvalidFormat)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i], err = strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad number %q: %w", r.line, fields[i], ErrInvalidFormat)
		}
	}
	return out, nil
}

// ints reads the next value line and parses exactly n integers.
func (r *lineReader) ints(n int) ([]int, error) {
	fields, err := r.fields()
	if err != nil {
		return nil, err
	}
	if len(fields) < n {
		return nil, fmt.Errorf("line %d: expected %d values, got %d: %w",
			r.line, n, len(fields), ErrInvalidFormat)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i], err = strconv.Atoi(fields[i])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad integer %q: %w", r.line, fields[i], ErrInvalidFormat)
		}
	}
	return out, nil
}
