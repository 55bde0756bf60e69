package graphdef

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/nnet-go/nnet/internal/graph"
	"github.com/nnet-go/nnet/internal/wire"
)

// ParseFile parses a frozen GraphDef from a file.
//
//nolint:gosec // G304: Path is provided by the user, loading it is intentional.
func ParseFile(path string) (*GraphDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse parses a frozen GraphDef from bytes.
func Parse(data []byte) (*GraphDef, error) {
	g := &GraphDef{}
	if err := unmarshalGraphDef(data, g); err != nil {
		return nil, fmt.Errorf("failed to parse graph: %w", err)
	}
	return g, nil
}

// unmarshalGraphDef reads GraphDef fields.
func unmarshalGraphDef(b []byte, g *GraphDef) error {
	return wire.EachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1: // node
			node := NodeDef{}
			if err := unmarshalNodeDef(v, &node); err != nil {
				return err
			}
			g.Nodes = append(g.Nodes, node)
		case 4: // versions
			g.Versions = &VersionDef{}
			return wire.EachField(v, func(num protowire.Number, typ protowire.Type, v []byte) error {
				switch num {
				case 1: // producer
					g.Versions.Producer = int32(wire.Varint(v))
				case 2: // min_consumer
					g.Versions.MinConsumer = int32(wire.Varint(v))
				}
				return nil
			})
		}
		return nil
	})
}

// unmarshalNodeDef reads NodeDef fields.
func unmarshalNodeDef(b []byte, n *NodeDef) error {
	return wire.EachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1: // name
			n.Name = string(v)
		case 2: // op
			n.Op = string(v)
		case 3: // input
			n.Inputs = append(n.Inputs, string(v))
		case 4: // device
			n.Device = string(v)
		case 5: // attr (map entry)
			var key string
			attr := &AttrValue{}
			err := wire.EachField(v, func(num protowire.Number, typ protowire.Type, v []byte) error {
				switch num {
				case 1: // key
					key = string(v)
				case 2: // value
					return unmarshalAttrValue(v, attr)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if n.Attrs == nil {
				n.Attrs = make(map[string]*AttrValue)
			}
			n.Attrs[key] = attr
		}
		return nil
	})
}

// unmarshalAttrValue reads AttrValue fields.
func unmarshalAttrValue(b []byte, a *AttrValue) error {
	return wire.EachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 2: // s
			a.S = append([]byte(nil), v...)
		case 3: // i
			a.I = int64(wire.Varint(v))
		case 4: // f
			if len(v) != 4 {
				return fmt.Errorf("attr float field has %d bytes, expected 4: %w",
					len(v), graph.ErrUnsupportedFormat)
			}
			a.F = math.Float32frombits(binary.LittleEndian.Uint32(v))
		case 5: // b
			a.B = wire.Varint(v) != 0
		case 6: // type
			a.Type = int32(wire.Varint(v))
		case 7: // shape
			a.Shape = &TensorShapeProto{}
			return unmarshalShape(v, a.Shape)
		case 8: // tensor
			a.Tensor = &TensorProto{}
			return unmarshalTensor(v, a.Tensor)
		}
		return nil
	})
}

// unmarshalTensor reads TensorProto fields.
func unmarshalTensor(b []byte, t *TensorProto) error {
	return wire.EachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1: // dtype
			t.DType = int32(wire.Varint(v))
		case 2: // tensor_shape
			t.Shape = &TensorShapeProto{}
			return unmarshalShape(v, t.Shape)
		case 3: // version_number
			t.VersionNumber = int32(wire.Varint(v))
		case 4: // tensor_content
			t.TensorContent = append([]byte(nil), v...)
		case 5: // float_val (packed or repeated fixed32)
			for i := 0; i+4 <= len(v); i += 4 {
				bits := binary.LittleEndian.Uint32(v[i:])
				t.FloatVal = append(t.FloatVal, math.Float32frombits(bits))
			}
		}
		return nil
	})
}

// unmarshalShape reads TensorShapeProto fields.
func unmarshalShape(b []byte, s *TensorShapeProto) error {
	return wire.EachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 2: // dim
			dim := TensorShapeDim{}
			err := wire.EachField(v, func(num protowire.Number, typ protowire.Type, v []byte) error {
				switch num {
				case 1: // size
					dim.Size = int64(wire.Varint(v))
				case 2: // name
					dim.Name = string(v)
				}
				return nil
			})
			if err != nil {
				return err
			}
			s.Dims = append(s.Dims, dim)
		case 3: // unknown_rank
			s.UnknownRank = wire.Varint(v) != 0
		}
		return nil
	})
}
