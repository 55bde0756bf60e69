// Package wire holds shared helpers for the hand-written protobuf
// codecs in the onnx and graphdef packages, built on protowire.
package wire

import "google.golang.org/protobuf/encoding/protowire"

// EachField walks a message's fields, handing each one's payload to fn.
// Varint and fixed fields are passed as their raw encoding; bytes and
// sub-message fields are passed as their contents. Unknown fields and
// unknown wire types are skipped.
func EachField(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		var payload []byte
		switch typ {
		case protowire.VarintType:
			_, n = protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			payload = b[:n]
		case protowire.Fixed32Type:
			if _, m := protowire.ConsumeFixed32(b); m < 0 {
				return protowire.ParseError(m)
			}
			payload, n = b[:4], 4
		case protowire.Fixed64Type:
			if _, m := protowire.ConsumeFixed64(b); m < 0 {
				return protowire.ParseError(m)
			}
			payload, n = b[:8], 8
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			payload, n = v, m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		if err := fn(num, typ, payload); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// Varint decodes a varint payload produced by EachField.
func Varint(v []byte) uint64 {
	x, n := protowire.ConsumeVarint(v)
	if n < 0 {
		return 0
	}
	return x
}

// AppendString writes a string field, omitting empty values.
func AppendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// AppendMessage writes a length-delimited field.
func AppendMessage(b []byte, num protowire.Number, sub []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, sub)
}

// AppendVarintField writes a varint field, omitting zero values.
func AppendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}
