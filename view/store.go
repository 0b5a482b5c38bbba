// Package view implements the named derived-relation store (spec.md §4.9):
// tuples keyed by (ViewRelId, tuple bytes) inside the "rel/" physical store,
// with a Create/Rederive/Put/Retract lifecycle and a small metadata record
// per view tracking arity and algo-vs-rule provenance. Structurally this is
// catalog.Catalog's byId/byName caching pattern (catalog/catalog.go) applied
// to views instead of attributes, addressed through kvstore the same way
// triple.Store addresses the "triple/" store.
package view

import (
	"context"
	"sort"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/chiefnoah/cozo/encoding"
	"github.com/chiefnoah/cozo/internal/xerrors"
	"github.com/chiefnoah/cozo/kvstore"
)

// Metadata is the per-view record stored under ViewRelId::SYSTEM (spec.md
// §6): arity (needed to decode tuples, since DataValue encoding is
// self-delimiting but a tuple's element count is not) plus whether the view
// was last populated by an algo operator or by rule evaluation (spec.md
// §4.9's "Put requires it to exist" needs to know which refresh path last
// wrote it, surfaced through ListRelations for `sys ListRelations`).
type Metadata struct {
	Id       encoding.ViewRelId `json:"id"`
	Name     string             `json:"name"`
	Arity    int                `json:"arity"`
	FromAlgo bool               `json:"from_algo"`
}

func metaKey(name string) []byte {
	key := encoding.ViewKeyPrefix(encoding.SystemViewRelId)
	key = append(key, byte(encoding.TagGuard))
	return append(key, []byte(name)...)
}

// Store is the view/ logical store: one kvstore.Engine (the "rel/" physical
// store, kvstore.TableRelations) backing every user view plus the
// ViewRelId::SYSTEM metadata guard keys.
type Store struct {
	engine kvstore.Engine

	mu     sync.RWMutex
	byName map[string]Metadata
	lastId encoding.ViewRelId
}

func New(engine kvstore.Engine) *Store {
	return &Store{engine: engine, byName: make(map[string]Metadata), lastId: encoding.MinUserViewRelId - 1}
}

// Load populates the in-memory metadata cache from the engine; called once
// when a Db handle is opened, mirroring catalog.Catalog.Load.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := encoding.ViewKeyPrefix(encoding.SystemViewRelId)
	prefix = append(prefix, byte(encoding.TagGuard))
	upper := encoding.ViewKeyPrefix(encoding.SystemViewRelId)
	upper = append(upper, byte(encoding.TagGuard)+1)
	return s.engine.View(ctx, func(tx kvstore.Tx) error {
		err := tx.Iterate(prefix, upper, func(k, v []byte) (bool, error) {
			var m Metadata
			if err := json.Unmarshal(v, &m); err != nil {
				return false, xerrors.Wrap(xerrors.KindStorage, err, "view: decode metadata")
			}
			s.byName[m.Name] = m
			if m.Id > s.lastId {
				s.lastId = m.Id
			}
			return true, nil
		})
		return err
	})
}

func (s *Store) nextId() encoding.ViewRelId {
	s.lastId++
	return s.lastId
}

func (s *Store) putMetadata(ctx context.Context, m Metadata) error {
	encoded, err := json.Marshal(m)
	if err != nil {
		return xerrors.Wrap(xerrors.KindStorage, err, "view: encode metadata")
	}
	return s.engine.Update(ctx, func(tx kvstore.RwTx) error {
		return tx.Put(metaKey(m.Name), encoded)
	})
}

// Create registers a brand-new view named name with the given arity. It is
// an error for name to already exist (spec.md §4.9: "Create requires the
// view name absent").
func (s *Store) Create(ctx context.Context, name string, arity int, fromAlgo bool) (Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[name]; ok {
		return Metadata{}, xerrors.New(xerrors.KindSchema, "view %q already exists", name)
	}
	m := Metadata{Id: s.nextId(), Name: name, Arity: arity, FromAlgo: fromAlgo}
	if err := s.putMetadata(ctx, m); err != nil {
		s.lastId--
		return Metadata{}, err
	}
	s.byName[name] = m
	return m, nil
}

// Rederive drops name's existing tuples (if it exists) and recreates it
// with a fresh id and the given arity (spec.md §4.9: "Rederive drops and
// recreates"). Unlike Create it is not an error for name to be absent —
// that degenerates to a plain Create.
func (s *Store) Rederive(ctx context.Context, name string, arity int, fromAlgo bool) (Metadata, error) {
	s.mu.Lock()
	existing, had := s.byName[name]
	s.mu.Unlock()
	if had {
		if err := s.dropTuples(ctx, existing.Id); err != nil {
			return Metadata{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m := Metadata{Id: s.nextId(), Name: name, Arity: arity, FromAlgo: fromAlgo}
	if err := s.putMetadata(ctx, m); err != nil {
		s.lastId--
		return Metadata{}, err
	}
	s.byName[name] = m
	return m, nil
}

func (s *Store) dropTuples(ctx context.Context, id encoding.ViewRelId) error {
	prefix := encoding.ViewKeyPrefix(id)
	upper := encoding.ViewKeyPrefix(id + 1)
	var keys [][]byte
	if err := s.engine.View(ctx, func(tx kvstore.Tx) error {
		return tx.Iterate(prefix, upper, func(k, _ []byte) (bool, error) {
			cp := append([]byte(nil), k...)
			keys = append(keys, cp)
			return true, nil
		})
	}); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.engine.Update(ctx, func(tx kvstore.RwTx) error {
		for _, k := range keys {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Put appends (or overwrites, since a tuple's full value is its own primary
// key) rows into an existing view (spec.md §4.9: "Put requires it to
// exist").
func (s *Store) Put(ctx context.Context, name string, rows []encoding.Tuple) error {
	s.mu.RLock()
	m, ok := s.byName[name]
	s.mu.RUnlock()
	if !ok {
		return xerrors.New(xerrors.KindSchema, "view %q does not exist", name)
	}
	for _, t := range rows {
		if len(t) != m.Arity {
			return xerrors.New(xerrors.KindType, "view %q: tuple arity %d does not match view arity %d", name, len(t), m.Arity)
		}
	}
	return s.engine.Update(ctx, func(tx kvstore.RwTx) error {
		for _, t := range rows {
			if err := tx.Put(encoding.EncodeViewKey(m.Id, t), []byte{1}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Retract removes the given rows from an existing view (spec.md §4.9:
// "Retract removes matching tuples").
func (s *Store) Retract(ctx context.Context, name string, rows []encoding.Tuple) error {
	s.mu.RLock()
	m, ok := s.byName[name]
	s.mu.RUnlock()
	if !ok {
		return xerrors.New(xerrors.KindSchema, "view %q does not exist", name)
	}
	return s.engine.Update(ctx, func(tx kvstore.RwTx) error {
		for _, t := range rows {
			if err := tx.Delete(encoding.EncodeViewKey(m.Id, t)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Drop removes a view entirely (its tuples and its metadata record), the
// `sys RemoveRelations` op (spec.md §6).
func (s *Store) Drop(ctx context.Context, name string) error {
	s.mu.Lock()
	m, ok := s.byName[name]
	if !ok {
		s.mu.Unlock()
		return xerrors.New(xerrors.KindSchema, "view %q does not exist", name)
	}
	delete(s.byName, name)
	s.mu.Unlock()

	if err := s.dropTuples(ctx, m.Id); err != nil {
		return err
	}
	return s.engine.Update(ctx, func(tx kvstore.RwTx) error {
		return tx.Delete(metaKey(name))
	})
}

// Scan returns every tuple currently stored for name, decoded against its
// recorded arity. Satisfies datalog/eval.ViewSource and
// datalog/algo.EdgeSource once bound to a context via the small adapter
// types below.
func (s *Store) Scan(ctx context.Context, name string) ([]encoding.Tuple, error) {
	s.mu.RLock()
	m, ok := s.byName[name]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	prefix := encoding.ViewKeyPrefix(m.Id)
	upper := encoding.ViewKeyPrefix(m.Id + 1)
	var out []encoding.Tuple
	err := s.engine.View(ctx, func(tx kvstore.Tx) error {
		return tx.Iterate(prefix, upper, func(k, _ []byte) (bool, error) {
			t, err := encoding.DecodeTuple(k[encoding.ViewRelIdSize:], m.Arity)
			if err != nil {
				return false, err
			}
			out = append(out, t)
			return true, nil
		})
	})
	return out, err
}

// Metadata returns the cached record for name, if any.
func (s *Store) Metadata(name string) (Metadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byName[name]
	return m, ok
}

// ListRelations returns every view's metadata, sorted by name (spec.md §6's
// `sys ListRelations`).
func (s *Store) ListRelations() []Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Metadata, 0, len(s.byName))
	for _, m := range s.byName {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// BoundContext adapts a Store plus a fixed context.Context to
// datalog/eval.ViewSource's synchronous ScanView(name) shape, which has no
// context parameter of its own since the evaluator is assumed synchronous
// within one query's context (spec.md §5).
type BoundContext struct {
	Store *Store
	Ctx   context.Context
}

func (b BoundContext) ScanView(name string) ([]encoding.Tuple, bool) {
	t, err := b.Store.Scan(b.Ctx, name)
	if err != nil {
		return nil, false
	}
	return t, t != nil || b.exists(name)
}

func (b BoundContext) exists(name string) bool {
	_, ok := b.Store.Metadata(name)
	return ok
}

// Relation adapts Store to datalog/algo.EdgeSource.
func (b BoundContext) Relation(ctx context.Context, name string) ([]encoding.Tuple, error) {
	return b.Store.Scan(ctx, name)
}
