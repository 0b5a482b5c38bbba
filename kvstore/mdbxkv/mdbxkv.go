// Package mdbxkv is the production kvstore.Engine backend: a thin adapter
// over github.com/erigontech/mdbx-go, the same engine erigon-lib/kv wraps
// for its on-disk chain data. It exists behind the same kvstore.Engine
// interface as kvstore/memkv so the core never depends on MDBX directly.
//
// This adapter is deliberately minimal — one DBI per Table, no DupSort, no
// sub-databases — because the triple/view key encodings already fold
// everything MDBX would otherwise need DupSort for into the key bytes
// (spec.md §4.1: the encoding layer, not the KV engine, owns ordering).
package mdbxkv

import (
	"context"

	"github.com/erigontech/mdbx-go/mdbx"
	"github.com/pkg/errors"

	"github.com/chiefnoah/cozo/internal/xerrors"
	"github.com/chiefnoah/cozo/kvstore"
)

// Engine wraps one mdbx.Env holding a single DBI for cfg.Table.
type Engine struct {
	env *mdbx.Env
	dbi mdbx.DBI
	cmp kvstore.CmpFunc
}

// Open creates or opens the MDBX environment at cfg.Path. The comparator in
// cfg.Cmp is advisory here: MDBX keys are compared byte-wise internally, so
// callers must ensure their key encodings already sort correctly under raw
// byte comparison (true of every key this module ever writes — see
// encoding.CompareTriples/CompareViewKeys, both of which degenerate to
// bytes.Compare).
func Open(cfg kvstore.Config) (*Engine, error) {
	env, err := mdbx.NewEnv()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindStorage, err, "mdbx: new env")
	}
	if err := env.SetOption(mdbx.OptMaxDB, 4); err != nil {
		return nil, xerrors.Wrap(xerrors.KindStorage, err, "mdbx: set max dbs")
	}
	if err := env.Open(cfg.Path, mdbx.NoSubdir|mdbx.Coalesce|mdbx.LifoReclaim, 0664); err != nil {
		return nil, xerrors.Wrap(xerrors.KindStorage, err, "mdbx: open %s", cfg.Path)
	}

	var dbi mdbx.DBI
	txErr := env.Update(func(txn *mdbx.Txn) error {
		var err error
		dbi, err = txn.OpenDBI(string(cfg.Table), mdbx.Create, nil, nil)
		return err
	})
	if txErr != nil {
		_ = env.Close()
		return nil, xerrors.Wrap(xerrors.KindStorage, txErr, "mdbx: open dbi %s", cfg.Table)
	}

	cmp := cfg.Cmp
	return &Engine{env: env, dbi: dbi, cmp: cmp}, nil
}

func (e *Engine) View(_ context.Context, fn func(tx kvstore.Tx) error) error {
	return e.env.View(func(txn *mdbx.Txn) error {
		return fn(&roTx{txn: txn, dbi: e.dbi})
	})
}

func (e *Engine) Update(_ context.Context, fn func(tx kvstore.RwTx) error) error {
	return e.env.Update(func(txn *mdbx.Txn) error {
		return fn(&rwTx{roTx{txn: txn, dbi: e.dbi}})
	})
}

// Compact runs MDBX's copy-with-compaction into the sibling file
// "<path>.compact". The copy is not swapped in: the open environment keeps
// using the original file.
func (e *Engine) Compact(_ context.Context) error {
	path, _, err := e.env.Path()
	if err != nil {
		return xerrors.Wrap(xerrors.KindStorage, err, "mdbx: compact: path")
	}
	if err := e.env.CopyFlags(path+".compact", mdbx.CopyCompact); err != nil {
		return xerrors.Wrap(xerrors.KindStorage, err, "mdbx: compact")
	}
	return nil
}

func (e *Engine) Close() error {
	e.env.Close()
	return nil
}

type roTx struct {
	txn *mdbx.Txn
	dbi mdbx.DBI
}

func (t *roTx) Get(key []byte) ([]byte, bool, error) {
	v, err := t.txn.Get(t.dbi, key)
	if err != nil {
		if mdbx.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.WithStack(err)
	}
	return v, true, nil
}

func (t *roTx) Iterate(from, to []byte, fn func(k, v []byte) (bool, error)) error {
	return t.scan(from, to, false, fn)
}

func (t *roTx) IterateReverse(from, to []byte, fn func(k, v []byte) (bool, error)) error {
	return t.scan(from, to, true, fn)
}

func (t *roTx) scan(from, to []byte, reverse bool, fn func(k, v []byte) (bool, error)) error {
	cur, err := t.txn.OpenCursor(t.dbi)
	if err != nil {
		return errors.WithStack(err)
	}
	defer cur.Close()

	var k, v []byte
	if from == nil {
		if reverse {
			k, v, err = cur.Get(nil, nil, mdbx.Last)
		} else {
			k, v, err = cur.Get(nil, nil, mdbx.First)
		}
	} else {
		k, v, err = cur.Get(from, nil, mdbx.SetRange)
		if reverse && mdbx.IsNotFound(err) {
			// No key >= from: every key lies before from, so start at the last.
			k, v, err = cur.Get(nil, nil, mdbx.Last)
		} else if reverse && err == nil && string(k) != string(from) {
			// SetRange lands on the first key >= from; for a reverse scan
			// starting "at or before" from, step back once.
			k, v, err = cur.Get(nil, nil, mdbx.Prev)
		}
	}
	for err == nil {
		if reverse {
			if to != nil && bytesLess(k, to) {
				return nil
			}
		} else {
			if to != nil && !bytesLess(k, to) {
				return nil
			}
		}
		cont, cbErr := fn(k, v)
		if cbErr != nil {
			return cbErr
		}
		if !cont {
			return nil
		}
		if reverse {
			k, v, err = cur.Get(nil, nil, mdbx.Prev)
		} else {
			k, v, err = cur.Get(nil, nil, mdbx.Next)
		}
	}
	if mdbx.IsNotFound(err) {
		return nil
	}
	return errors.WithStack(err)
}

func bytesLess(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

type rwTx struct{ roTx }

func (t *rwTx) Put(key, value []byte) error {
	return errors.WithStack(t.txn.Put(t.dbi, key, value, 0))
}

func (t *rwTx) Delete(key []byte) error {
	err := t.txn.Del(t.dbi, key, nil)
	if err != nil && mdbx.IsNotFound(err) {
		return nil
	}
	return errors.WithStack(err)
}

var _ kvstore.Engine = (*Engine)(nil)
