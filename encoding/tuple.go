package encoding

import "bytes"

// Tuple is an ordered sequence of DataValues, the row shape used by views
// (spec.md §3, "Tuples (views)").
type Tuple []DataValue

// EncodeTuple produces the self-delimiting byte encoding of t. Because each
// DataValue is itself self-delimiting (encoding/value.go), concatenation
// needs no extra framing between elements; decoding walks the same count.
func EncodeTuple(t Tuple) []byte {
	var buf []byte
	for _, v := range t {
		buf = EncodeValue(buf, v)
	}
	return buf
}

// DecodeTuple decodes exactly n values from b. The view store always knows
// the arity of the relation a tuple belongs to, so n is supplied by the
// caller rather than re-encoded.
func DecodeTuple(b []byte, n int) (Tuple, error) {
	out := make(Tuple, 0, n)
	for i := 0; i < n; i++ {
		v, rest, err := DecodeValue(b)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		b = rest
	}
	return out, nil
}

// CompareTuples imposes the comparator's lexicographic order over typed
// fields used by rusty_scratch_cmp (spec.md §4.1): compare element by
// element, shorter-prefix tuples sort first.
func CompareTuples(a, b Tuple) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := CompareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// EncodeViewKey builds the physical key for a view tuple: ViewRelId prefix
// followed by the tuple's self-delimiting encoding, so a single physical
// store backs many views (spec.md §3).
func EncodeViewKey(rel ViewRelId, t Tuple) []byte {
	key := make([]byte, ViewRelIdSize, ViewRelIdSize+16)
	PutViewRelId(key, rel)
	return append(key, EncodeTuple(t)...)
}

// ViewKeyPrefix returns the fixed-length prefix (just the ViewRelId) used by
// the KV engine's prefix extractor / bloom filter for the view column
// family (rusty_scratch_cmp's path).
func ViewKeyPrefix(rel ViewRelId) []byte {
	key := make([]byte, ViewRelIdSize)
	PutViewRelId(key, rel)
	return key
}

// CompareViewKeys is rusty_scratch_cmp: the ViewRelId orders outright (so
// rows of different views never interleave), then tuple bytes order within
// a view.
func CompareViewKeys(a, b []byte) int {
	if len(a) < ViewRelIdSize || len(b) < ViewRelIdSize {
		return bytes.Compare(a, b)
	}
	if c := bytes.Compare(a[:ViewRelIdSize], b[:ViewRelIdSize]); c != 0 {
		return c
	}
	return bytes.Compare(a[ViewRelIdSize:], b[ViewRelIdSize:])
}
