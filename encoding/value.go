package encoding

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/chiefnoah/cozo/internal/xerrors"
)

// ValueTag discriminates the self-delimiting encoding of a DataValue. The
// ordering of the tag bytes is chosen to match the output of Compare below:
// Null < Bool < Int < Float < String < Bytes < Keyword < List < Tuple < Ref.
type ValueTag byte

const (
	TagNull ValueTag = iota
	TagBool
	TagInt
	TagFloat
	TagString
	TagBytes
	TagKeyword
	TagList
	TagTuple
	TagRef
)

// DataValue is the tagged union stored as a triple's V or as one position in
// a view tuple. Exactly one of the typed fields is meaningful, selected by
// Tag.
type DataValue struct {
	Tag  ValueTag
	I    int64
	F    float64
	B    bool
	S    string
	Bs   []byte
	List []DataValue
	Ref  EntityId
}

func NullValue() DataValue            { return DataValue{Tag: TagNull} }
func BoolValue(b bool) DataValue      { return DataValue{Tag: TagBool, B: b} }
func IntValue(i int64) DataValue      { return DataValue{Tag: TagInt, I: i} }
func FloatValue(f float64) DataValue  { return DataValue{Tag: TagFloat, F: f} }
func StringValue(s string) DataValue  { return DataValue{Tag: TagString, S: s} }
func BytesValue(b []byte) DataValue   { return DataValue{Tag: TagBytes, Bs: b} }
func KeywordValue(s string) DataValue { return DataValue{Tag: TagKeyword, S: s} }
func ListValue(l []DataValue) DataValue {
	return DataValue{Tag: TagList, List: l}
}
func RefValue(e EntityId) DataValue { return DataValue{Tag: TagRef, Ref: e} }

// EncodeValue appends the self-delimiting encoding of v to dst.
//
// Fixed-width fields (int64, float64, EntityId) are written big-endian so
// byte order matches numeric order; float64 additionally flips the sign bit
// (and inverts the rest for negatives) so IEEE-754 bit patterns sort the
// same as the numbers they represent. Variable-length fields (string,
// bytes, list) are length-prefixed with a big-endian uint32 so that a
// shorter value is never byte-wise a prefix of a longer one with the same
// leading bytes — this is what makes `A < B` byte-wise imply the intended
// semantic order across variable-length fields (spec.md §4.1).
func EncodeValue(dst []byte, v DataValue) []byte {
	dst = append(dst, byte(v.Tag))
	switch v.Tag {
	case TagNull:
		// no payload
	case TagBool:
		if v.B {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	case TagInt:
		var buf [8]byte
		// Flip the sign bit so two's-complement ordering becomes unsigned
		// big-endian ordering.
		binary.BigEndian.PutUint64(buf[:], uint64(v.I)^(1<<63))
		dst = append(dst, buf[:]...)
	case TagFloat:
		dst = append(dst, encodeFloatSortable(v.F)...)
	case TagString:
		dst = appendLenPrefixed(dst, []byte(v.S))
	case TagBytes:
		dst = appendLenPrefixed(dst, v.Bs)
	case TagKeyword:
		dst = appendLenPrefixed(dst, []byte(v.S))
	case TagRef:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(v.Ref))
		dst = append(dst, buf[:]...)
	case TagList, TagTuple:
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(v.List)))
		dst = append(dst, n[:]...)
		for _, e := range v.List {
			dst = EncodeValue(dst, e)
		}
	}
	return dst
}

func appendLenPrefixed(dst, b []byte) []byte {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b)))
	dst = append(dst, n[:]...)
	return append(dst, b...)
}

// encodeFloatSortable produces a big-endian encoding of f whose byte-wise
// order matches float64 numeric order, including across the sign boundary.
func encodeFloatSortable(f float64) []byte {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], bits)
	return buf[:]
}

func decodeFloatSortable(b []byte) float64 {
	bits := binary.BigEndian.Uint64(b)
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}

// DecodeValue reads one DataValue from the front of b, returning the value
// and the remaining bytes.
func DecodeValue(b []byte) (DataValue, []byte, error) {
	if len(b) == 0 {
		return DataValue{}, nil, xerrors.New(xerrors.KindStorage, "decode value: empty input")
	}
	tag := ValueTag(b[0])
	b = b[1:]
	switch tag {
	case TagNull:
		return DataValue{Tag: TagNull}, b, nil
	case TagBool:
		if len(b) < 1 {
			return DataValue{}, nil, xerrors.New(xerrors.KindStorage, "decode bool: truncated")
		}
		return DataValue{Tag: TagBool, B: b[0] != 0}, b[1:], nil
	case TagInt:
		if len(b) < 8 {
			return DataValue{}, nil, xerrors.New(xerrors.KindStorage, "decode int: truncated")
		}
		u := binary.BigEndian.Uint64(b[:8])
		return DataValue{Tag: TagInt, I: int64(u ^ (1 << 63))}, b[8:], nil
	case TagFloat:
		if len(b) < 8 {
			return DataValue{}, nil, xerrors.New(xerrors.KindStorage, "decode float: truncated")
		}
		return DataValue{Tag: TagFloat, F: decodeFloatSortable(b[:8])}, b[8:], nil
	case TagString, TagKeyword:
		s, rest, err := readLenPrefixed(b)
		if err != nil {
			return DataValue{}, nil, err
		}
		return DataValue{Tag: tag, S: string(s)}, rest, nil
	case TagBytes:
		s, rest, err := readLenPrefixed(b)
		if err != nil {
			return DataValue{}, nil, err
		}
		return DataValue{Tag: TagBytes, Bs: s}, rest, nil
	case TagRef:
		if len(b) < 8 {
			return DataValue{}, nil, xerrors.New(xerrors.KindStorage, "decode ref: truncated")
		}
		return DataValue{Tag: TagRef, Ref: EntityId(binary.BigEndian.Uint64(b[:8]))}, b[8:], nil
	case TagList, TagTuple:
		if len(b) < 4 {
			return DataValue{}, nil, xerrors.New(xerrors.KindStorage, "decode list: truncated length")
		}
		n := binary.BigEndian.Uint32(b[:4])
		rest := b[4:]
		elems := make([]DataValue, 0, n)
		for i := uint32(0); i < n; i++ {
			var e DataValue
			var err error
			e, rest, err = DecodeValue(rest)
			if err != nil {
				return DataValue{}, nil, err
			}
			elems = append(elems, e)
		}
		return DataValue{Tag: tag, List: elems}, rest, nil
	default:
		return DataValue{}, nil, xerrors.New(xerrors.KindStorage, "decode value: unknown tag %d", tag)
	}
}

func readLenPrefixed(b []byte) ([]byte, []byte, error) {
	if len(b) < 4 {
		return nil, nil, xerrors.New(xerrors.KindStorage, "decode len-prefixed: truncated length")
	}
	n := binary.BigEndian.Uint32(b[:4])
	b = b[4:]
	if uint32(len(b)) < n {
		return nil, nil, xerrors.New(xerrors.KindStorage, "decode len-prefixed: truncated payload")
	}
	return b[:n], b[n:], nil
}

// JSONValue renders v as a plain Go value suitable for json-iterator
// encoding at the script-level boundary (spec.md §6's JSON-shaped
// responses). Bytes render base64 via the stdlib json convention ([]byte
// marshals that way by default); Tuple and List both render as a JSON
// array since the §6 boundary does not distinguish them.
func (v DataValue) JSONValue() interface{} {
	switch v.Tag {
	case TagNull:
		return nil
	case TagBool:
		return v.B
	case TagInt:
		return v.I
	case TagFloat:
		return v.F
	case TagString, TagKeyword:
		return v.S
	case TagBytes:
		return v.Bs
	case TagRef:
		return uint64(v.Ref)
	case TagList, TagTuple:
		out := make([]interface{}, len(v.List))
		for i, e := range v.List {
			out[i] = e.JSONValue()
		}
		return out
	default:
		return nil
	}
}

// CompareValues imposes the comparator's lexicographic order over typed
// fields: the tag byte orders across types, then type-specific comparison
// orders within a type. This must agree exactly with byte-wise comparison
// of EncodeValue's output.
func CompareValues(a, b DataValue) int {
	var ba, bb []byte
	ba = EncodeValue(ba, a)
	bb = EncodeValue(bb, b)
	return bytes.Compare(ba, bb)
}
