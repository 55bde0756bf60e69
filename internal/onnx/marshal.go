package onnx

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/nnet-go/nnet/internal/wire"
)

// Marshal encodes a ModelProto to the ONNX wire format. Encoding is
// deterministic: fields are written in field-number order and repeated
// fields in slice order.
func Marshal(m *ModelProto) []byte {
	var b []byte
	b = wire.AppendVarintField(b, 1, uint64(m.IRVersion))
	b = wire.AppendString(b, 2, m.ProducerName)
	b = wire.AppendString(b, 3, m.ProducerVersion)
	b = wire.AppendString(b, 4, m.Domain)
	b = wire.AppendVarintField(b, 5, uint64(m.ModelVersion))
	b = wire.AppendString(b, 6, m.DocString)
	if m.Graph != nil {
		b = wire.AppendMessage(b, 7, appendGraph(nil, m.Graph))
	}
	for _, opset := range m.OpsetImport {
		var sub []byte
		sub = wire.AppendString(sub, 1, opset.Domain)
		sub = protowire.AppendTag(sub, 2, protowire.VarintType)
		sub = protowire.AppendVarint(sub, uint64(opset.Version))
		b = wire.AppendMessage(b, 8, sub)
	}
	return b
}

func appendGraph(b []byte, g *GraphProto) []byte {
	for i := range g.Nodes {
		b = wire.AppendMessage(b, 1, appendNode(nil, &g.Nodes[i]))
	}
	b = wire.AppendString(b, 2, g.Name)
	for i := range g.Initializers {
		b = wire.AppendMessage(b, 5, appendTensor(nil, &g.Initializers[i]))
	}
	b = wire.AppendString(b, 10, g.DocString)
	for i := range g.Inputs {
		b = wire.AppendMessage(b, 11, appendValueInfo(nil, &g.Inputs[i]))
	}
	for i := range g.Outputs {
		b = wire.AppendMessage(b, 12, appendValueInfo(nil, &g.Outputs[i]))
	}
	return b
}

func appendNode(b []byte, n *NodeProto) []byte {
	for _, in := range n.Inputs {
		b = wire.AppendString(b, 1, in)
	}
	for _, out := range n.Outputs {
		b = wire.AppendString(b, 2, out)
	}
	b = wire.AppendString(b, 3, n.Name)
	b = wire.AppendString(b, 4, n.OpType)
	return b
}

func appendTensor(b []byte, t *TensorProto) []byte {
	if len(t.Dims) > 0 {
		var packed []byte
		for _, d := range t.Dims {
			packed = protowire.AppendVarint(packed, uint64(d))
		}
		b = wire.AppendMessage(b, 1, packed)
	}
	b = wire.AppendVarintField(b, 2, uint64(t.DataType))
	b = wire.AppendString(b, 8, t.Name)
	if len(t.RawData) > 0 {
		b = wire.AppendMessage(b, 9, t.RawData)
	}
	return b
}

func appendValueInfo(b []byte, vi *ValueInfoProto) []byte {
	b = wire.AppendString(b, 1, vi.Name)
	if vi.Type == nil || vi.Type.TensorType == nil {
		return b
	}
	tt := vi.Type.TensorType
	var ttBuf []byte
	ttBuf = wire.AppendVarintField(ttBuf, 1, uint64(tt.ElemType))
	if tt.Shape != nil {
		var shapeBuf []byte
		for _, dim := range tt.Shape.Dims {
			var dimBuf []byte
			if dim.DimParam != "" {
				dimBuf = wire.AppendString(dimBuf, 2, dim.DimParam)
			} else {
				dimBuf = protowire.AppendTag(dimBuf, 1, protowire.VarintType)
				dimBuf = protowire.AppendVarint(dimBuf, uint64(dim.DimValue))
			}
			shapeBuf = wire.AppendMessage(shapeBuf, 1, dimBuf)
		}
		ttBuf = wire.AppendMessage(ttBuf, 2, shapeBuf)
	}
	return wire.AppendMessage(b, 2, wire.AppendMessage(nil, 1, ttBuf))
}
