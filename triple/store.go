package triple

import (
	"context"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/chiefnoah/cozo/catalog"
	"github.com/chiefnoah/cozo/encoding"
	"github.com/chiefnoah/cozo/internal/xerrors"
	"github.com/chiefnoah/cozo/kvstore"
)

// Store is the triple/ physical store: EAV facts plus transaction metadata,
// addressed through a single kvstore.Engine using rusty_cmp ordering
// (spec.md §4.1).
type Store struct {
	engine  kvstore.Engine
	catalog *catalog.Catalog
	log     *zap.Logger

	lastTxId     atomic.Uint64
	lastEntityId atomic.Uint64
}

func New(engine kvstore.Engine, cat *catalog.Catalog, log *zap.Logger) *Store {
	return &Store{engine: engine, catalog: cat, log: log}
}

// Load reads the persisted last_tx_id / last_ent_id counters so freshly
// allocated ids never collide with a prior process's.
func (s *Store) Load(ctx context.Context) error {
	return s.engine.View(ctx, func(tx kvstore.Tx) error {
		if v, ok, err := tx.Get(lastTxIdKey()); err != nil {
			return err
		} else if ok {
			s.lastTxId.Store(beUint64(v))
		}
		if v, ok, err := tx.Get(lastEntityIdKey()); err != nil {
			return err
		} else if ok {
			s.lastEntityId.Store(beUint64(v))
		}
		return nil
	})
}

func lastTxIdKey() []byte     { return []byte{byte(encoding.TagLastId), 'x'} }
func lastEntityIdKey() []byte { return []byte{byte(encoding.TagLastId), 'e'} }

func beUint64(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}
func putBeUint64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * (7 - i)))
	}
	return b
}

// NewEntityId allocates a fresh permanent entity id. Acquire-release
// ordering on the atomic counter (spec.md §5: "all counters ... are atomic
// with acquire/release pairing on increment-then-publish") is satisfied by
// atomic.Uint64.Add's sequential-consistency guarantee, stronger than the
// spec's minimum requirement.
func (s *Store) NewEntityId() encoding.EntityId {
	return encoding.EntityId(s.lastEntityId.Add(1))
}

// TxMeta is the transaction metadata record written by commit_tx: a
// comment and the wall-clock validity the write was committed at.
type TxMeta struct {
	TxId    encoding.TxId     `json:"tx_id"`
	Comment string            `json:"comment"`
	At      encoding.Validity `json:"at"`
}

func txMetaKey(id encoding.TxId) []byte {
	key := make([]byte, 0, 9)
	key = append(key, byte(encoding.TagTxMeta))
	return append(key, putBeUint64(uint64(id))...)
}

// Txn is a write transaction: triples accumulate in memory until Commit,
// matching spec.md §4.3's "writes accumulate in the KV transaction buffer".
// TempIds resolves any temp entity ids staged via AssertTemp/RetractTemp
// consistently for the lifetime of the transaction.
type Txn struct {
	store   *Store
	writes  []Triple
	durable bool
	TempIds *TempIDResolver
}

// Begin starts a write transaction. The TxId is not reserved until Commit,
// so concurrently-open Txns do not serialize against each other until they
// actually write (spec.md §4.3: "write transactions additionally reserve a
// monotonically-increasing TxId").
func (s *Store) Begin() *Txn {
	tx := &Txn{store: s}
	tx.TempIds = NewTempIDResolver(s)
	return tx
}

// Assert stages an assertion of (e,a,v) at validity vld.
func (tx *Txn) Assert(e encoding.EntityId, a encoding.AttrId, v encoding.DataValue, vld encoding.Validity) {
	tx.writes = append(tx.writes, Triple{E: e, A: a, V: v, Vld: vld, Op: encoding.OpAssert})
}

// Retract stages a retraction of (e,a,v) at validity vld.
func (tx *Txn) Retract(e encoding.EntityId, a encoding.AttrId, v encoding.DataValue, vld encoding.Validity) {
	tx.writes = append(tx.writes, Triple{E: e, A: a, V: v, Vld: vld, Op: encoding.OpRetract})
}

// AssertTemp is Assert, first resolving e (and, if v is a Ref to another
// temp id, v) through tx.TempIds.
func (tx *Txn) AssertTemp(e encoding.EntityId, a encoding.AttrId, v encoding.DataValue, vld encoding.Validity) {
	e = tx.TempIds.Resolve(e)
	if v.Tag == encoding.TagRef {
		v = encoding.RefValue(tx.TempIds.Resolve(v.Ref))
	}
	tx.Assert(e, a, v, vld)
}

// RetractTemp is Retract, resolving e (and a Ref value) the same way.
func (tx *Txn) RetractTemp(e encoding.EntityId, a encoding.AttrId, v encoding.DataValue, vld encoding.Validity) {
	e = tx.TempIds.Resolve(e)
	if v.Tag == encoding.TagRef {
		v = encoding.RefValue(tx.TempIds.Resolve(v.Ref))
	}
	tx.Retract(e, a, v, vld)
}

// SetDurable records the commit_tx(comment, durable) flag (spec.md §6) on
// the transaction. Commit does not read it and passes nothing to the KV
// engine: durability is whatever the engine's own Update gives, and no
// durability guarantee is implemented above that (spec.md §1 Non-goals).
func (tx *Txn) SetDurable(d bool) { tx.durable = d }

// Result is returned per distinct entity touched by a committed
// transaction: (entity_id, number of triples written for it) — spec.md §8
// scenario 2's `{tx_id, results: [[entity_id, size]]}`.
type Result struct {
	Entity encoding.EntityId
	Size   int
}

// Commit atomically persists the staged writes: all index entries for
// asserted/retracted triples, the new last-id counters, and a transaction
// metadata record (spec.md §4.3). It does not touch the catalog — schema
// changes and data writes never share a transaction (spec.md §1 Non-goals).
func (tx *Txn) Commit(ctx context.Context, comment string, now time.Time) (encoding.TxId, []Result, error) {
	s := tx.store
	txId := encoding.TxId(s.lastTxId.Add(1))
	at := encoding.CurrentValidity(now.UnixMicro())

	perEntity := make(map[encoding.EntityId]int)
	err := s.engine.Update(ctx, func(rw kvstore.RwTx) error {
		for _, t := range tx.writes {
			attr, ok := s.catalog.ByID(t.A)
			if !ok || attr.Retracted {
				return xerrors.New(xerrors.KindSchema, "attribute id %d not found", t.A)
			}
			if err := writeTripleIndices(rw, attr, t); err != nil {
				return err
			}
			perEntity[t.E]++
		}
		meta := TxMeta{TxId: txId, Comment: comment, At: at}
		encoded, err := json.Marshal(meta)
		if err != nil {
			return xerrors.Wrap(xerrors.KindStorage, err, "commit: encode tx meta")
		}
		if err := rw.Put(txMetaKey(txId), encoded); err != nil {
			return err
		}
		if err := rw.Put(lastEntityIdKey(), putBeUint64(s.lastEntityId.Load())); err != nil {
			return err
		}
		return rw.Put(lastTxIdKey(), putBeUint64(uint64(txId)))
	})
	if err != nil {
		return 0, nil, xerrors.Wrap(xerrors.KindStorage, err, "commit_tx %d", txId)
	}

	results := make([]Result, 0, len(perEntity))
	for e, n := range perEntity {
		results = append(results, Result{Entity: e, Size: n})
	}
	if s.log != nil {
		s.log.Info("committed transaction", zap.Uint64("txID", uint64(txId)), zap.Int("triples", len(tx.writes)))
	}
	return txId, results, nil
}

// writeTripleIndices writes the EAV/AEV index entries (always) and the
// AVE/VAE entries the attribute's indexing configuration calls for
// (spec.md §3's index table).
func writeTripleIndices(rw kvstore.RwTx, attr catalog.Attr, t Triple) error {
	valueInKey := attr.ValueInKey()
	payload := encoding.EncodeTripleValue(t.Op, t.V, !valueInKey)

	if attr.IsUnique() && t.Op == encoding.OpAssert {
		if err := checkUniqueConstraint(rw, attr, t); err != nil {
			return err
		}
	}

	eavKey := encoding.EncodeEAVKey(t.E, t.A, t.V, valueInKey, t.Vld)
	if err := rw.Put(eavKey, payload); err != nil {
		return err
	}
	aevKey := encoding.EncodeAEVKey(t.A, t.E, t.V, valueInKey, t.Vld)
	if err := rw.Put(aevKey, payload); err != nil {
		return err
	}
	if attr.MaintainsAVE() {
		aveKey := encoding.EncodeAVEKey(t.A, t.V, t.E, t.Vld)
		if err := rw.Put(aveKey, []byte{byte(t.Op)}); err != nil {
			return err
		}
	}
	if attr.MaintainsVAE() {
		vaeKey := encoding.EncodeVAEKey(t.V, t.A, t.E, t.Vld)
		if err := rw.Put(vaeKey, []byte{byte(t.Op)}); err != nil {
			return err
		}
	}
	return nil
}

// checkUniqueConstraint enforces "for Unique/Identity, at most one live
// (a,v)" (spec.md §3) by probing the AVE index for any other live entity
// sharing (a,v) at this validity.
func checkUniqueConstraint(rw kvstore.RwTx, attr catalog.Attr, t Triple) error {
	probePrefix := avePrefix(t.A, t.V)
	var violated error
	var lastResolved encoding.EntityId
	resolved := false
	err := rw.Iterate(probePrefix, nil, func(k, v []byte) (bool, error) {
		if len(k) < len(probePrefix) || string(k[:len(probePrefix)]) != string(probePrefix) {
			return false, nil
		}
		rest := k[len(probePrefix):]
		if len(rest) < encoding.EntityIdSize+encoding.ValiditySize {
			return true, nil
		}
		e := encoding.ReadEntityId(rest[:encoding.EntityIdSize])
		if e == t.E || (resolved && e == lastResolved) {
			return true, nil
		}
		// Keys of one entity run newest first: the first with vld ≤ t.Vld
		// decides whether that entity holds (a,v) at t.Vld.
		if encoding.ReadInvertedValidity(rest[encoding.EntityIdSize:encoding.EntityIdSize+encoding.ValiditySize]) > t.Vld {
			return true, nil
		}
		lastResolved, resolved = e, true
		if len(v) > 0 && encoding.Op(v[0]) == encoding.OpAssert {
			violated = xerrors.New(xerrors.KindConstraint,
				"unique constraint violated: attribute %d already has value for entity %d", t.A, e)
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	return violated
}

func avePrefix(a encoding.AttrId, v encoding.DataValue) []byte {
	key := encoding.EncodeAVEKey(a, v, 0, encoding.ValidityMax)
	// Strip the trailing entity id + validity to get a prefix shared by
	// every entity asserting (a,v).
	return key[:len(key)-encoding.EntityIdSize-encoding.ValiditySize]
}
