// Package memkv is the in-process reference implementation of
// kvstore.Engine, backed by github.com/google/btree. It is the engine the
// tests and cozo.OpenInMemory use for both stores; it persists nothing
// (spec.md treats the engine as opaque; this is one concrete choice
// satisfying the interface).
package memkv

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/btree"

	"github.com/chiefnoah/cozo/kvstore"
)

type item struct {
	key, value []byte
	cmp        kvstore.CmpFunc
}

func (i *item) Less(other btree.Item) bool {
	o := other.(*item)
	return i.cmp(i.key, o.key) < 0
}

// Engine is a btree.BTree guarded by a single RWMutex standing in for the
// opaque engine's own internal concurrency control. Snapshots are
// implemented by cloning the tree, which google/btree supports in O(1)
// thanks to its copy-on-write node sharing.
type Engine struct {
	mu   sync.RWMutex
	tree *btree.BTree
	cmp  kvstore.CmpFunc
}

func New(cfg kvstore.Config) *Engine {
	cmp := cfg.Cmp
	if cmp == nil {
		cmp = bytes.Compare
	}
	return &Engine{tree: btree.New(32), cmp: cmp}
}

func (e *Engine) View(_ context.Context, fn func(tx kvstore.Tx) error) error {
	e.mu.RLock()
	snapshot := e.tree.Clone()
	e.mu.RUnlock()
	return fn(&txn{tree: snapshot, cmp: e.cmp})
}

func (e *Engine) Update(_ context.Context, fn func(tx kvstore.RwTx) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	working := e.tree.Clone()
	t := &txn{tree: working, cmp: e.cmp}
	if err := fn(t); err != nil {
		return err
	}
	e.tree = working
	return nil
}

func (e *Engine) Compact(_ context.Context) error { return nil }

func (e *Engine) Close() error { return nil }

type txn struct {
	tree *btree.BTree
	cmp  kvstore.CmpFunc
}

func (t *txn) Get(key []byte) ([]byte, bool, error) {
	found := t.tree.Get(&item{key: key, cmp: t.cmp})
	if found == nil {
		return nil, false, nil
	}
	return found.(*item).value, true, nil
}

func (t *txn) Put(key, value []byte) error {
	t.tree.ReplaceOrInsert(&item{key: append([]byte(nil), key...), value: append([]byte(nil), value...), cmp: t.cmp})
	return nil
}

func (t *txn) Delete(key []byte) error {
	t.tree.Delete(&item{key: key, cmp: t.cmp})
	return nil
}

func (t *txn) Iterate(from, to []byte, fn func(k, v []byte) (bool, error)) error {
	var iterErr error
	pivot := &item{key: from, cmp: t.cmp}
	visit := func(i btree.Item) bool {
		it := i.(*item)
		if to != nil && t.cmp(it.key, to) >= 0 {
			return false
		}
		cont, err := fn(it.key, it.value)
		if err != nil {
			iterErr = err
			return false
		}
		return cont
	}
	if from == nil {
		t.tree.Ascend(visit)
	} else {
		t.tree.AscendGreaterOrEqual(pivot, visit)
	}
	return iterErr
}

func (t *txn) IterateReverse(from, to []byte, fn func(k, v []byte) (bool, error)) error {
	var iterErr error
	visit := func(i btree.Item) bool {
		it := i.(*item)
		if to != nil && t.cmp(it.key, to) < 0 {
			return false
		}
		cont, err := fn(it.key, it.value)
		if err != nil {
			iterErr = err
			return false
		}
		return cont
	}
	if from == nil {
		t.tree.Descend(visit)
	} else {
		pivot := &item{key: from, cmp: t.cmp}
		t.tree.DescendLessOrEqual(pivot, visit)
	}
	return iterErr
}

var _ kvstore.Engine = (*Engine)(nil)
