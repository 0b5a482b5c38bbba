package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/chiefnoah/cozo/encoding"
	"github.com/chiefnoah/cozo/internal/xerrors"
	"github.com/chiefnoah/cozo/kvstore"
)

func keyById(id encoding.AttrId) []byte {
	key := make([]byte, 0, 1+encoding.AttrIdSize)
	key = append(key, byte(encoding.TagAttrById))
	return append(key, idBytes(uint64(id))...)
}

func keyByName(name string) []byte {
	key := make([]byte, 0, 1+len(name))
	key = append(key, byte(encoding.TagAttrByName))
	return append(key, []byte(name)...)
}

func idBytes(id uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(id >> (8 * (7 - i)))
	}
	return b
}

func lastAttrIdKey() []byte { return []byte{byte(encoding.TagLastId), 'a'} }

// Catalog is the schema/attribute catalog described in spec.md §4.2. It is
// backed by the same physical engine as the triple store (attribute records
// are themselves small, append-mostly facts) but addressed by its own key
// tags so it never collides with triple keys.
type Catalog struct {
	engine kvstore.Engine

	mu        sync.RWMutex
	byId      map[encoding.AttrId]Attr // per-process cache, updated on write
	byName    map[string]encoding.AttrId
	lastAttrId encoding.AttrId
}

func New(engine kvstore.Engine) *Catalog {
	return &Catalog{
		engine: engine,
		byId:   make(map[encoding.AttrId]Attr),
		byName: make(map[string]encoding.AttrId),
	}
}

// Load populates the in-memory cache from the engine; called once when a
// Db handle is opened.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.View(ctx, func(tx kvstore.Tx) error {
		prefix := []byte{byte(encoding.TagAttrById)}
		upper := []byte{byte(encoding.TagAttrById) + 1}
		err := tx.Iterate(prefix, upper, func(k, v []byte) (bool, error) {
			a, err := decodeAttr(v)
			if err != nil {
				return false, xerrors.Wrap(xerrors.KindStorage, err, "catalog: decode attr")
			}
			c.byId[a.Id] = a
			if !a.Retracted {
				c.byName[a.Name] = a.Id
			}
			if a.Id > c.lastAttrId {
				c.lastAttrId = a.Id
			}
			return true, nil
		})
		if err != nil {
			return err
		}
		if v, ok, err := tx.Get(lastAttrIdKey()); err != nil {
			return err
		} else if ok {
			c.lastAttrId = encoding.AttrId(beUint64(v))
		}
		return nil
	})
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// Put allocates a fresh id for a new attribute name, or updates the mutable
// fields of an existing one. Re-putting an existing name with a different
// ValType or Cardinality is rejected with a SchemaError (attribute conflict)
// when hasData is true — callers supply hasData so the catalog doesn't need
// to scan the triple store itself (Db.Schema scans the attribute's live
// triples before each put).
func (c *Catalog) Put(ctx context.Context, attr Attr, hasData bool) (Attr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existingId, ok := c.byName[attr.Name]; ok {
		existing := c.byId[existingId]
		if hasData && (existing.ValType != attr.ValType || existing.Cardinality != attr.Cardinality) {
			return Attr{}, xerrors.New(xerrors.KindSchema,
				"attribute %q: cannot change val_type/cardinality with data present", attr.Name)
		}
		attr.Id = existingId
	} else {
		c.lastAttrId++
		attr.Id = c.lastAttrId
	}
	err := c.engine.Update(ctx, func(tx kvstore.RwTx) error {
		if err := tx.Put(keyById(attr.Id), encodeAttr(attr)); err != nil {
			return err
		}
		if err := tx.Put(keyByName(attr.Name), idBytes(uint64(attr.Id))); err != nil {
			return err
		}
		return tx.Put(lastAttrIdKey(), idBytes(uint64(c.lastAttrId)))
	})
	if err != nil {
		return Attr{}, xerrors.Wrap(xerrors.KindStorage, err, "catalog: put %q", attr.Name)
	}

	c.byId[attr.Id] = attr
	c.byName[attr.Name] = attr.Id
	return attr, nil
}

// Retract hides attr_id from lookups while keeping the id allocated
// (spec.md §4.2).
func (c *Catalog) Retract(ctx context.Context, id encoding.AttrId) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	attr, ok := c.byId[id]
	if !ok {
		return xerrors.New(xerrors.KindSchema, "attribute id %d not found", id)
	}
	attr.Retracted = true
	if err := c.engine.Update(ctx, func(tx kvstore.RwTx) error {
		return tx.Put(keyById(id), encodeAttr(attr))
	}); err != nil {
		return xerrors.Wrap(xerrors.KindStorage, err, "catalog: retract %d", id)
	}
	c.byId[id] = attr
	delete(c.byName, attr.Name)
	return nil
}

// ByID returns the cached attribute record for id, if live or retracted.
func (c *Catalog) ByID(id encoding.AttrId) (Attr, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.byId[id]
	return a, ok
}

// ByName returns the live attribute named name.
func (c *Catalog) ByName(name string) (Attr, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[name]
	if !ok {
		return Attr{}, false
	}
	return c.byId[id], true
}

// MustByName is a lookup used from contexts that have already validated the
// attribute exists and want an xerrors.KindSchema error otherwise.
func (c *Catalog) MustByName(name string) (Attr, error) {
	a, ok := c.ByName(name)
	if !ok {
		return Attr{}, xerrors.New(xerrors.KindSchema, "unknown attribute %q", name)
	}
	return a, nil
}

// AllLive returns every non-retracted attribute, sorted by name for stable
// ListSchema output (spec.md §6).
func (c *Catalog) AllLive() []Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Attr, 0, len(c.byName))
	for _, id := range c.byName {
		out = append(out, c.byId[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
