package onnx

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/nnet-go/nnet/internal/wire"
)

// ParseFile parses an ONNX model from a file.
//
//nolint:gosec // G304: Path is provided by the user, loading it is intentional.
func ParseFile(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse parses an ONNX model from bytes.
func Parse(data []byte) (*ModelProto, error) {
	m := &ModelProto{}
	if err := unmarshalModel(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return m, nil
}

// unmarshalModel reads ModelProto fields.
func unmarshalModel(b []byte, m *ModelProto) error {
	return wire.EachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1: // ir_version
			m.IRVersion = int64(wire.Varint(v))
		case 2: // producer_name
			m.ProducerName = string(v)
		case 3: // producer_version
			m.ProducerVersion = string(v)
		case 4: // domain
			m.Domain = string(v)
		case 5: // model_version
			m.ModelVersion = int64(wire.Varint(v))
		case 6: // doc_string
			m.DocString = string(v)
		case 7: // graph
			m.Graph = &GraphProto{}
			return unmarshalGraph(v, m.Graph)
		case 8: // opset_import
			opset := OperatorSetID{}
			if err := unmarshalOperatorSetID(v, &opset); err != nil {
				return err
			}
			m.OpsetImport = append(m.OpsetImport, opset)
		}
		return nil
	})
}

// unmarshalGraph reads GraphProto fields.
func unmarshalGraph(b []byte, g *GraphProto) error {
	return wire.EachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1: // node
			node := NodeProto{}
			if err := unmarshalNode(v, &node); err != nil {
				return err
			}
			g.Nodes = append(g.Nodes, node)
		case 2: // name
			g.Name = string(v)
		case 5: // initializer
			tensor := TensorProto{}
			if err := unmarshalTensor(v, &tensor); err != nil {
				return err
			}
			g.Initializers = append(g.Initializers, tensor)
		case 10: // doc_string
			g.DocString = string(v)
		case 11: // input
			vi := ValueInfoProto{}
			if err := unmarshalValueInfo(v, &vi); err != nil {
				return err
			}
			g.Inputs = append(g.Inputs, vi)
		case 12: // output
			vi := ValueInfoProto{}
			if err := unmarshalValueInfo(v, &vi); err != nil {
				return err
			}
			g.Outputs = append(g.Outputs, vi)
		}
		return nil
	})
}

// unmarshalNode reads NodeProto fields.
func unmarshalNode(b []byte, n *NodeProto) error {
	return wire.EachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1: // input
			n.Inputs = append(n.Inputs, string(v))
		case 2: // output
			n.Outputs = append(n.Outputs, string(v))
		case 3: // name
			n.Name = string(v)
		case 4: // op_type
			n.OpType = string(v)
		}
		return nil
	})
}

// unmarshalTensor reads TensorProto fields.
func unmarshalTensor(b []byte, t *TensorProto) error {
	return wire.EachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1: // dims (packed or repeated varint)
			if typ == protowire.VarintType {
				t.Dims = append(t.Dims, int64(wire.Varint(v)))
				return nil
			}
			for len(v) > 0 {
				x, n := protowire.ConsumeVarint(v)
				if n < 0 {
					return protowire.ParseError(n)
				}
				t.Dims = append(t.Dims, int64(x))
				v = v[n:]
			}
		case 2: // data_type
			t.DataType = int32(wire.Varint(v))
		case 4: // float_data (packed)
			for i := 0; i+4 <= len(v); i += 4 {
				bits := binary.LittleEndian.Uint32(v[i:])
				t.FloatData = append(t.FloatData, math.Float32frombits(bits))
			}
		case 8: // name
			t.Name = string(v)
		case 9: // raw_data
			t.RawData = append([]byte(nil), v...)
		}
		return nil
	})
}

// unmarshalValueInfo reads ValueInfoProto fields.
func unmarshalValueInfo(b []byte, vi *ValueInfoProto) error {
	return wire.EachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1: // name
			vi.Name = string(v)
		case 2: // type
			vi.Type = &TypeProto{}
			return unmarshalType(v, vi.Type)
		}
		return nil
	})
}

// unmarshalType reads TypeProto fields.
func unmarshalType(b []byte, t *TypeProto) error {
	return wire.EachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num == 1 { // tensor_type
			t.TensorType = &TensorTypeProto{}
			return unmarshalTensorType(v, t.TensorType)
		}
		return nil
	})
}

// unmarshalTensorType reads TensorTypeProto fields.
func unmarshalTensorType(b []byte, t *TensorTypeProto) error {
	return wire.EachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1: // elem_type
			t.ElemType = int32(wire.Varint(v))
		case 2: // shape
			t.Shape = &TensorShapeProto{}
			return unmarshalShape(v, t.Shape)
		}
		return nil
	})
}

// unmarshalShape reads TensorShapeProto fields.
func unmarshalShape(b []byte, s *TensorShapeProto) error {
	return wire.EachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num == 1 { // dim
			dim := DimensionProto{}
			err := wire.EachField(v, func(num protowire.Number, typ protowire.Type, v []byte) error {
				switch num {
				case 1: // dim_value
					dim.DimValue = int64(wire.Varint(v))
				case 2: // dim_param
					dim.DimParam = string(v)
				}
				return nil
			})
			if err != nil {
				return err
			}
			s.Dims = append(s.Dims, dim)
		}
		return nil
	})
}

// unmarshalOperatorSetID reads OperatorSetID fields.
func unmarshalOperatorSetID(b []byte, o *OperatorSetID) error {
	return wire.EachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1: // domain
			o.Domain = string(v)
		case 2: // version
			o.Version = int64(wire.Varint(v))
		}
		return nil
	})
}
