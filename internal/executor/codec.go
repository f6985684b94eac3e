package executor

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

// Tuples are stored in heap pages field by field: INT as 8 bytes big-endian,
// VARCHAR as a 2-byte big-endian length followed by the bytes.

// EncodeTuple serializes t according to its TupleDesc.
func EncodeTuple(t *Tuple) ([]byte, error) {
	desc := t.TupleDesc()
	var buf []byte
	for i := 0; i < desc.NumFields(); i++ {
		switch f := t.Field(i).(type) {
		case IntField:
			buf = binary.BigEndian.AppendUint64(buf, uint64(f))
		case StringField:
			if len(f) > math.MaxUint16 {
				return nil, errors.Newf("field %d: string of %d bytes is too long", i, len(f))
			}
			buf = binary.BigEndian.AppendUint16(buf, uint16(len(f)))
			buf = append(buf, string(f)...)
		case nil:
			return nil, errors.Newf("field %d is not set", i)
		default:
			return nil, errors.AssertionFailedf("field %d: unhandled field type %T", i, f)
		}
	}
	return buf, nil
}

// DecodeTuple parses data produced by EncodeTuple for the same desc.
func DecodeTuple(desc *TupleDesc, data []byte) (*Tuple, error) {
	t := NewTuple(desc)
	for i := 0; i < desc.NumFields(); i++ {
		switch desc.FieldType(i) {
		case IntType:
			if len(data) < 8 {
				return nil, errors.Newf("field %d: truncated INT", i)
			}
			t.fields[i] = IntField(int64(binary.BigEndian.Uint64(data)))
			data = data[8:]
		case StringType:
			if len(data) < 2 {
				return nil, errors.Newf("field %d: truncated VARCHAR length", i)
			}
			n := int(binary.BigEndian.Uint16(data))
			data = data[2:]
			if len(data) < n {
				return nil, errors.Newf("field %d: truncated VARCHAR", i)
			}
			t.fields[i] = StringField(data[:n])
			data = data[n:]
		default:
			return nil, errors.AssertionFailedf("field %d: unhandled type %s", i, desc.FieldType(i))
		}
	}
	if len(data) != 0 {
		return nil, errors.Newf("%d trailing bytes after tuple", len(data))
	}
	return t, nil
}
