package encoding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestValidityDescendingOrder verifies spec.md §8's "Validity ordering"
// property: for any (e,a), iterating EAV keys forward (byte-wise ascending)
// yields validities in descending order.
func TestValidityDescendingOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := EntityId(rapid.Uint64Range(1, 1<<62).Draw(t, "e"))
		a := AttrId(rapid.Uint64Range(1, 1<<62).Draw(t, "a"))
		v1 := Validity(rapid.Int64().Draw(t, "v1"))
		v2 := Validity(rapid.Int64().Draw(t, "v2"))

		k1 := EncodeEAVKey(e, a, DataValue{}, false, v1)
		k2 := EncodeEAVKey(e, a, DataValue{}, false, v2)

		byteOrder := bytes.Compare(k1, k2)
		switch {
		case v1 == v2:
			require.Zero(t, byteOrder)
		case v1 > v2:
			require.Negative(t, byteOrder, "newer validity must sort before older")
		default:
			require.Positive(t, byteOrder)
		}
	})
}

func TestEAVKeyPrefixSharedAcrossValidities(t *testing.T) {
	e, a := EntityId(7), AttrId(3)
	k1 := EncodeEAVKey(e, a, DataValue{}, false, ValidityMax)
	k2 := EncodeEAVKey(e, a, DataValue{}, false, ValidityMin)
	prefix := EntityAttrPrefix(e, a)
	require.True(t, bytes.HasPrefix(k1, prefix))
	require.True(t, bytes.HasPrefix(k2, prefix))
}
