package triple

import "github.com/chiefnoah/cozo/encoding"

// TempIDResolver maps the temp entity ids appearing in one tx request onto
// freshly allocated permanent ids, consistently across every triple in that
// request that references the same temp id (SPEC_FULL.md §3, modeled on
// original_source's tx-payload handling).
//
// A resolver is scoped to exactly one Txn and must not outlive it.
type TempIDResolver struct {
	store   *Store
	mapping map[encoding.EntityId]encoding.EntityId
}

// NewTempIDResolver returns a resolver drawing fresh permanent ids from s.
func NewTempIDResolver(s *Store) *TempIDResolver {
	return &TempIDResolver{store: s, mapping: make(map[encoding.EntityId]encoding.EntityId)}
}

// Resolve returns the permanent id standing in for e. Permanent ids pass
// through unchanged; a temp id is assigned a permanent id the first time it
// is seen and returns the same one on every subsequent call within this
// resolver's lifetime.
func (r *TempIDResolver) Resolve(e encoding.EntityId) encoding.EntityId {
	if !e.IsTemp() {
		return e
	}
	if perm, ok := r.mapping[e]; ok {
		return perm
	}
	perm := r.store.NewEntityId()
	r.mapping[e] = perm
	return perm
}

// Mapping returns the temp→permanent assignments made so far, for inclusion
// in a tx response.
func (r *TempIDResolver) Mapping() map[encoding.EntityId]encoding.EntityId {
	return r.mapping
}
