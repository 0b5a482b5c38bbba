package triple

import (
	"bytes"
	"context"

	"github.com/chiefnoah/cozo/catalog"
	"github.com/chiefnoah/cozo/encoding"
	"github.com/chiefnoah/cozo/internal/xerrors"
	"github.com/chiefnoah/cozo/kvstore"
)

// GetAsOf performs the "time travel" read at validity T (spec.md §4.3): for
// cardinality-One attributes, the first live value asserted at or before T;
// for cardinality-Many, every value still live at T.
func (s *Store) GetAsOf(ctx context.Context, e encoding.EntityId, a encoding.AttrId, t encoding.Validity) ([]encoding.DataValue, error) {
	attr, ok := s.catalog.ByID(a)
	if !ok || attr.Retracted {
		return nil, xerrors.New(xerrors.KindSchema, "attribute id %d not found", a)
	}
	var out []encoding.DataValue
	err := s.engine.View(ctx, func(tx kvstore.Tx) error {
		if attr.Cardinality == catalog.CardinalityMany {
			vs, err := getManyAsOf(tx, e, a, t)
			out = vs
			return err
		}
		v, found, err := getOneAsOf(tx, e, a, t)
		if err != nil {
			return err
		}
		if found {
			out = []encoding.DataValue{v}
		}
		return nil
	})
	return out, err
}

// getOneAsOf seeks the first EAV key for (e,a) with vld ≤ t and returns its
// value, unless that key's op is Retract.
func getOneAsOf(tx kvstore.Tx, e encoding.EntityId, a encoding.AttrId, t encoding.Validity) (encoding.DataValue, bool, error) {
	prefix := encoding.EntityAttrPrefix(e, a)
	var result encoding.DataValue
	found := false
	err := tx.Iterate(prefix, nil, func(k, v []byte) (bool, error) {
		if !bytes.HasPrefix(k, prefix) {
			return false, nil
		}
		vld := readTrailingValidity(k)
		if vld > t {
			return true, nil
		}
		op, val, err := encoding.DecodeTripleValue(v, true)
		if err != nil {
			return false, err
		}
		if op == encoding.OpAssert {
			result, found = val, true
		}
		return false, nil
	})
	return result, found, err
}

// getManyAsOf walks (e,a)'s key range, grouping consecutive keys by the
// value component they carry (cardinality-Many triples key the value, not
// the payload), and resolves liveness independently per value group.
func getManyAsOf(tx kvstore.Tx, e encoding.EntityId, a encoding.AttrId, t encoding.Validity) ([]encoding.DataValue, error) {
	prefix := encoding.EntityAttrPrefix(e, a)
	var out []encoding.DataValue
	var curGroup []byte
	groupResolved := false
	err := tx.Iterate(prefix, nil, func(k, v []byte) (bool, error) {
		if !bytes.HasPrefix(k, prefix) {
			return false, nil
		}
		groupKey := k[:len(k)-encoding.ValiditySize]
		if curGroup == nil || !bytes.Equal(groupKey, curGroup) {
			curGroup = append([]byte(nil), groupKey...)
			groupResolved = false
		}
		if groupResolved {
			return true, nil
		}
		vld := readTrailingValidity(k)
		if vld > t {
			return true, nil
		}
		groupResolved = true
		op, _, err := encoding.DecodeTripleValue(v, false)
		if err != nil {
			return false, err
		}
		if op == encoding.OpAssert {
			val, _, err := encoding.DecodeValue(groupKey[len(prefix):])
			if err != nil {
				return false, err
			}
			out = append(out, val)
		}
		return true, nil
	})
	return out, err
}

func readTrailingValidity(k []byte) encoding.Validity {
	return encoding.ReadInvertedValidity(k[len(k)-encoding.ValiditySize:])
}

// GetLatest is GetAsOf at the maximum validity, the common case of reading
// current state.
func (s *Store) GetLatest(ctx context.Context, e encoding.EntityId, a encoding.AttrId) ([]encoding.DataValue, error) {
	return s.GetAsOf(ctx, e, a, encoding.ValidityMax)
}

// ScanAttr enumerates every (entity, value) pair live at validity t for
// attribute a, walking the AEV index — the access path a free-entity atom
// triple pattern (`?e :attr ?v`) needs (spec.md §3: "AEV: always
// maintained, used for full-attribute scans"; datalog/eval's triple-atom
// join planner picks this when the entity argument is unbound).
func (s *Store) ScanAttr(ctx context.Context, a encoding.AttrId, t encoding.Validity, fn func(encoding.EntityId, encoding.DataValue) error) error {
	attr, ok := s.catalog.ByID(a)
	if !ok || attr.Retracted {
		return xerrors.New(xerrors.KindSchema, "attribute id %d not found", a)
	}
	prefix := encoding.AttrPrefix(a)
	valueInKey := attr.ValueInKey()
	return s.engine.View(ctx, func(tx kvstore.Tx) error {
		var curGroup []byte
		groupResolved := false
		return tx.Iterate(prefix, nil, func(k, v []byte) (bool, error) {
			if !bytes.HasPrefix(k, prefix) {
				return false, nil
			}
			groupKey := k[:len(k)-encoding.ValiditySize]
			if curGroup == nil || !bytes.Equal(groupKey, curGroup) {
				curGroup = append([]byte(nil), groupKey...)
				groupResolved = false
			}
			if groupResolved {
				return true, nil
			}
			vld := readTrailingValidity(k)
			if vld > t {
				return true, nil
			}
			groupResolved = true
			op, payloadVal, err := encoding.DecodeTripleValue(v, !valueInKey)
			if err != nil {
				return false, err
			}
			if op != encoding.OpAssert {
				return true, nil
			}
			rest := groupKey[len(prefix):]
			if len(rest) < encoding.EntityIdSize {
				return true, nil
			}
			e := encoding.ReadEntityId(rest[:encoding.EntityIdSize])
			val := payloadVal
			if valueInKey {
				val, _, err = encoding.DecodeValue(rest[encoding.EntityIdSize:])
				if err != nil {
					return false, err
				}
			}
			if cbErr := fn(e, val); cbErr != nil {
				return false, cbErr
			}
			return true, nil
		})
	})
}
