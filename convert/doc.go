// Package convert translates feed-forward networks between the .nnet
// text format and the ONNX and frozen TensorFlow GraphDef computation
// graph formats.
//
// Each converter is a thin shim: it reads the source, calls the graph
// builder or extractor, and writes the target format. Every output
// file is written to a temporary path and renamed into place, so a
// failed conversion never leaves a truncated file behind.
//
// Example usage:
//
//	// Export a .nnet network to ONNX with normalization folded in.
//	out, err := convert.NNet2ONNX("network.nnet", convert.Options{Normalize: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("wrote", out)
//
//	// Recover the .nnet form from an ONNX file.
//	out, err = convert.ONNX2NNet("network.onnx", convert.Options{})
//
// Failures are reported through the sentinel errors re-exported by
// this package plus fs.ErrNotExist for missing input files; nothing is
// retried internally.
package convert
