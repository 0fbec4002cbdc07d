// Package wirefmt holds the small protobuf wire helpers shared by the
// hand-written record and message codecs.
package wirefmt

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed is returned for input that is not a well-formed protobuf
// message.
var ErrMalformed = errors.New("invalid protobuf")

// FieldFunc receives one top-level field. For length-delimited fields v is
// the payload; for varints v is the raw varint. raw is the full tag+value.
type FieldFunc func(num protowire.Number, typ protowire.Type, v []byte, raw []byte) error

// Walk iterates over the top-level fields of b.
func Walk(b []byte, fn FieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		m := protowire.ConsumeFieldValue(num, typ, b[n:])
		if m < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
		}
		raw := b[:n+m]
		v := b[n : n+m]
		if typ == protowire.BytesType {
			v, _ = protowire.ConsumeBytes(b[n:])
		}
		if err := fn(num, typ, v, raw); err != nil {
			return err
		}
		b = b[n+m:]
	}
	return nil
}

// AppendBytes appends a length-delimited field, skipping empty values.
func AppendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// AppendString appends a string field, skipping "".
func AppendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// AppendVarint appends a varint field, skipping zero.
func AppendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// AppendMessage appends an embedded message. Unlike AppendBytes it keeps an
// empty message so presence survives a round trip.
func AppendMessage(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// Varint decodes the value passed to a FieldFunc for a varint field.
func Varint(v []byte) uint64 {
	x, _ := protowire.ConsumeVarint(v)
	return x
}

// Clone copies a payload out of the input buffer.
func Clone(v []byte) []byte {
	return append([]byte(nil), v...)
}
