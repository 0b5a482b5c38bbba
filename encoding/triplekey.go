package encoding

import "bytes"

// EncodeEAVKey builds the EAV index key: tag ∥ e ∥ a ∥ valueIfMany? ∥ ¬vld
// (spec.md §3). valueInKey is true for cardinality-Many attributes, whose
// value lives in the key so that multiple asserted values per (e,a) don't
// collide; cardinality-One attributes place the value in the payload
// instead (see EncodeTripleValue).
func EncodeEAVKey(e EntityId, a AttrId, v DataValue, valueInKey bool, vld Validity) []byte {
	key := make([]byte, 0, 1+EntityIdSize+AttrIdSize+ValiditySize+16)
	key = append(key, byte(TagEAV))
	key = appendId(key, uint64(e))
	key = appendId(key, uint64(a))
	if valueInKey {
		key = EncodeValue(key, v)
	}
	key = appendInvVld(key, vld)
	return key
}

// EncodeAEVKey builds the AEV index key: tag ∥ a ∥ e ∥ valueIfMany? ∥ ¬vld.
func EncodeAEVKey(a AttrId, e EntityId, v DataValue, valueInKey bool, vld Validity) []byte {
	key := make([]byte, 0, 1+EntityIdSize+AttrIdSize+ValiditySize+16)
	key = append(key, byte(TagAEV))
	key = appendId(key, uint64(a))
	key = appendId(key, uint64(e))
	if valueInKey {
		key = EncodeValue(key, v)
	}
	key = appendInvVld(key, vld)
	return key
}

// EncodeAVEKey builds the AVE index key: tag ∥ a ∥ vEnc ∥ e ∥ ¬vld. Only
// maintained for Indexed/Unique/Identity attributes (spec.md §3).
func EncodeAVEKey(a AttrId, v DataValue, e EntityId, vld Validity) []byte {
	key := make([]byte, 0, 1+AttrIdSize+EntityIdSize+ValiditySize+16)
	key = append(key, byte(TagAVE))
	key = appendId(key, uint64(a))
	key = EncodeValue(key, v)
	key = appendId(key, uint64(e))
	key = appendInvVld(key, vld)
	return key
}

// EncodeVAEKey builds the VAE index key: tag ∥ vEnc ∥ a ∥ e ∥ ¬vld. Only
// maintained for Ref-typed attributes (spec.md §3).
func EncodeVAEKey(v DataValue, a AttrId, e EntityId, vld Validity) []byte {
	key := make([]byte, 0, 1+AttrIdSize+EntityIdSize+ValiditySize+16)
	key = append(key, byte(TagVAE))
	key = EncodeValue(key, v)
	key = appendId(key, uint64(a))
	key = appendId(key, uint64(e))
	key = appendInvVld(key, vld)
	return key
}

func appendId(dst []byte, id uint64) []byte {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(id >> (8 * (7 - i)))
	}
	return append(dst, buf[:]...)
}

func appendInvVld(dst []byte, vld Validity) []byte {
	var buf [8]byte
	PutInvertedValidity(buf[:], vld)
	return append(dst, buf[:]...)
}

// EncodeTripleValue builds the payload stored alongside a triple key:
// op ∥ valueIfOne?. Cardinality-Many attributes store only the op byte,
// since the value already lives in the key.
func EncodeTripleValue(op Op, v DataValue, valueInPayload bool) []byte {
	val := []byte{byte(op)}
	if valueInPayload {
		val = EncodeValue(val, v)
	}
	return val
}

// DecodeTripleValue reverses EncodeTripleValue. valueInPayload must match
// the flag used at encode time (derived from the attribute's cardinality).
func DecodeTripleValue(b []byte, valueInPayload bool) (Op, DataValue, error) {
	if len(b) == 0 {
		return 0, DataValue{}, nil
	}
	op := Op(b[0])
	if !valueInPayload {
		return op, DataValue{}, nil
	}
	v, _, err := DecodeValue(b[1:])
	return op, v, err
}

// EntityPrefix returns the EAV prefix tag ∥ e, shared by every EAV key of
// one entity.
func EntityPrefix(e EntityId) []byte {
	key := make([]byte, 0, 1+EntityIdSize)
	key = append(key, byte(TagEAV))
	return appendId(key, uint64(e))
}

// EntityAttrPrefix returns the fixed-length EAV prefix up through the
// attribute id — the same bytes TriplePrefixExtractor yields for an EAV key,
// enabling prefix iterators scoped to one (entity, attr) pair (spec.md
// §4.1).
func EntityAttrPrefix(e EntityId, a AttrId) []byte {
	key := EntityPrefix(e)
	return appendId(key, uint64(a))
}

func AttrPrefix(a AttrId) []byte {
	key := make([]byte, 0, 1+AttrIdSize)
	key = append(key, byte(TagAEV))
	return appendId(key, uint64(a))
}

// CompareTriples is rusty_cmp: plain byte-wise comparison suffices because
// every field in the key is already encoded so that byte order matches the
// intended semantic order (fixed-width big-endian ids, inverted validity,
// and a self-delimiting DataValue encoding for the optional value
// component).
func CompareTriples(a, b []byte) int {
	return bytes.Compare(a, b)
}
