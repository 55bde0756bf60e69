// Package main provides the nnetconv CLI.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/nnet-go/nnet/convert"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "version":
		fmt.Printf("nnetconv %s\n", version)
	case "convert":
		if err := runConvert(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "nnetconv - convert .nnet networks to and from ONNX and frozen GraphDef")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  nnetconv convert <in> [--out PATH] [--input-name NAME] [--output-name NAME] [--normalize]")
	fmt.Fprintln(os.Stderr, "  nnetconv version")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "The direction is chosen by file extension: .nnet inputs are exported")
	fmt.Fprintln(os.Stderr, "to .onnx (or .pb when --out ends in .pb); .onnx and .pb inputs are")
	fmt.Fprintln(os.Stderr, "imported back to .nnet.")
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	out := fs.String("out", "", "output file path (default: input path with swapped extension)")
	inputName := fs.String("input-name", "", "graph input tensor name")
	outputName := fs.String("output-name", "", "graph output tensor name")
	normalize := fs.Bool("normalize", false, "fold .nnet normalization into the weights")

	// Accept flags on either side of the input path.
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("convert expects an input file")
	}
	in := rest[0]
	if err := fs.Parse(rest[1:]); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	opt := convert.Options{
		OutputPath: *out,
		InputVar:   *inputName,
		OutputVar:  *outputName,
		Normalize:  *normalize,
	}

	var outPath string
	var err error
	switch {
	case strings.HasSuffix(in, ".nnet"):
		if strings.HasSuffix(opt.OutputPath, ".pb") {
			outPath, err = convert.NNet2Pb(in, opt)
		} else {
			outPath, err = convert.NNet2ONNX(in, opt)
		}
	case strings.HasSuffix(in, ".onnx"):
		outPath, err = convert.ONNX2NNet(in, opt)
	case strings.HasSuffix(in, ".pb"):
		outPath, err = convert.Pb2NNet(in, opt)
	default:
		return fmt.Errorf("unsupported input file %q (expected .nnet, .onnx, or .pb)", in)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Converted %s to %s\n", in, outPath)
	return nil
}
