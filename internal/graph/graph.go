package graph

// OpKind identifies a graph operation. The set is closed: a graph that
// contains anything else cannot encode a feed-forward network.
type OpKind int

const (
	OpMatMul OpKind = iota
	OpAdd
	OpRelu
)

// String returns the canonical operator name.
func (k OpKind) String() string {
	switch k {
	case OpMatMul:
		return "MatMul"
	case OpAdd:
		return "Add"
	case OpRelu:
		return "Relu"
	default:
		return "Unknown"
	}
}

// Node is a single operation. Its output tensor name doubles as the
// node's identity within the graph.
type Node struct {
	Op     OpKind
	Inputs []string
	Output string
}

// Tensor is a named constant with row-major data.
type Tensor struct {
	Name string
	Dims []int
	Data []float64
}

// Graph is a dataflow graph with one declared input and one declared
// output tensor, both shaped [batch, size].
type Graph struct {
	Nodes        []Node
	Initializers []Tensor

	InputName  string
	OutputName string
	InputSize  int
	OutputSize int
}

// Initializer returns the named constant tensor, if present.
func (g *Graph) Initializer(name string) (*Tensor, bool) {
	for i := range g.Initializers {
		if g.Initializers[i].Name == name {
			return &g.Initializers[i], true
		}
	}
	return nil, false
}

// producer returns the index of the node producing the named tensor,
// or -1 if no node does.
func (g *Graph) producer(name string) int {
	for i := range g.Nodes {
		if g.Nodes[i].Output == name {
			return i
		}
	}
	return -1
}
