package graphdef

import (
	"fmt"
	"strings"

	"github.com/nnet-go/nnet/internal/graph"
)

// Freeze prunes a GraphDef to the nodes reachable from the named
// outputs, preserving node order. For a graph whose weights are
// already Const nodes this is the whole of TensorFlow's freeze step.
// Fails if any requested output node does not exist.
func Freeze(gd *GraphDef, outputNames []string) (*GraphDef, error) {
	byName := make(map[string]*NodeDef, len(gd.Nodes))
	for i := range gd.Nodes {
		byName[gd.Nodes[i].Name] = &gd.Nodes[i]
	}

	keep := make(map[string]bool)
	stack := make([]string, 0, len(outputNames))
	for _, name := range outputNames {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("output node %q not found in graph: %w",
				name, graph.ErrUnsupportedFormat)
		}
		stack = append(stack, name)
	}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if keep[name] {
			continue
		}
		keep[name] = true
		node, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("graph references missing node %q: %w",
				name, graph.ErrMalformedGraph)
		}
		for _, in := range node.Inputs {
			stack = append(stack, stripPort(strings.TrimPrefix(in, "^")))
		}
	}

	frozen := &GraphDef{Versions: gd.Versions}
	for i := range gd.Nodes {
		if keep[gd.Nodes[i].Name] {
			frozen.Nodes = append(frozen.Nodes, gd.Nodes[i])
		}
	}
	return frozen, nil
}
