package graphdef

import (
	"encoding/binary"
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/nnet-go/nnet/internal/wire"
)

// Marshal encodes a GraphDef to the TensorFlow wire format. Attribute
// maps are written in sorted key order so the encoding is
// deterministic.
func Marshal(g *GraphDef) []byte {
	var b []byte
	for i := range g.Nodes {
		b = wire.AppendMessage(b, 1, appendNodeDef(nil, &g.Nodes[i]))
	}
	if g.Versions != nil {
		var sub []byte
		sub = wire.AppendVarintField(sub, 1, uint64(g.Versions.Producer))
		sub = wire.AppendVarintField(sub, 2, uint64(g.Versions.MinConsumer))
		b = wire.AppendMessage(b, 4, sub)
	}
	return b
}

func appendNodeDef(b []byte, n *NodeDef) []byte {
	b = wire.AppendString(b, 1, n.Name)
	b = wire.AppendString(b, 2, n.Op)
	for _, in := range n.Inputs {
		b = wire.AppendString(b, 3, in)
	}
	b = wire.AppendString(b, 4, n.Device)

	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var entry []byte
		entry = wire.AppendString(entry, 1, k)
		entry = wire.AppendMessage(entry, 2, appendAttrValue(nil, n.Attrs[k]))
		b = wire.AppendMessage(b, 5, entry)
	}
	return b
}

func appendAttrValue(b []byte, a *AttrValue) []byte {
	if len(a.S) > 0 {
		b = wire.AppendMessage(b, 2, a.S)
	}
	b = wire.AppendVarintField(b, 3, uint64(a.I))
	if a.F != 0 {
		b = protowire.AppendTag(b, 4, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(a.F))
	}
	if a.B {
		b = wire.AppendVarintField(b, 5, 1)
	}
	b = wire.AppendVarintField(b, 6, uint64(a.Type))
	if a.Shape != nil {
		b = wire.AppendMessage(b, 7, appendShape(nil, a.Shape))
	}
	if a.Tensor != nil {
		b = wire.AppendMessage(b, 8, appendTensor(nil, a.Tensor))
	}
	return b
}

func appendTensor(b []byte, t *TensorProto) []byte {
	b = wire.AppendVarintField(b, 1, uint64(t.DType))
	if t.Shape != nil {
		b = wire.AppendMessage(b, 2, appendShape(nil, t.Shape))
	}
	b = wire.AppendVarintField(b, 3, uint64(t.VersionNumber))
	if len(t.TensorContent) > 0 {
		b = wire.AppendMessage(b, 4, t.TensorContent)
	}
	if len(t.FloatVal) > 0 {
		var packed []byte
		for _, f := range t.FloatVal {
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(f))
			packed = append(packed, buf[:]...)
		}
		b = wire.AppendMessage(b, 5, packed)
	}
	return b
}

func appendShape(b []byte, s *TensorShapeProto) []byte {
	for _, dim := range s.Dims {
		var sub []byte
		// Size -1 (unknown batch) must round-trip, so it is written
		// even though zero sizes are omitted.
		if dim.Size != 0 {
			sub = protowire.AppendTag(sub, 1, protowire.VarintType)
			sub = protowire.AppendVarint(sub, uint64(dim.Size))
		}
		sub = wire.AppendString(sub, 2, dim.Name)
		b = wire.AppendMessage(b, 2, sub)
	}
	if s.UnknownRank {
		b = wire.AppendVarintField(b, 3, 1)
	}
	return b
}
