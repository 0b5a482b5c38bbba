// Copyright 2021 The Erigon Authors
// (modifications)
//
// Package kvstore defines the opaque ordered key-value engine interface the
// cozo core is built against (spec.md §1 explicitly keeps the underlying
// engine out of scope: "treated as an opaque sorted byte store with
// transactions, snapshots, and prefix-extractor hooks"). The shape mirrors
// erigon-lib/kv's Tx/RwTx/Cursor split.
//
// Two backends satisfy Engine: kvstore/memkv (an in-process google/btree
// reference implementation used by tests and by cozo.OpenInMemory) and
// kvstore/mdbxkv (a thin production adapter over erigontech/mdbx-go, used
// by cozo.Open).
package kvstore

import (
	"context"

	"github.com/chiefnoah/cozo/encoding"
)

// Table names the two top-level stores mounted under the configured data
// path (spec.md §6): "triple/" and "rel/". Each is a self-contained engine
// instance with its own comparator and prefix extractor — never mixed in
// one physical store.
type Table string

const (
	TableTriples   Table = "triple"
	TableRelations Table = "rel"
)

// CmpFunc is the comparator a Table is opened with — rusty_cmp for
// TableTriples, rusty_scratch_cmp for TableRelations (spec.md §4.1).
type CmpFunc func(a, b []byte) int

// Engine is the opaque KV handle for one physical store (one of Table).
type Engine interface {
	// View opens a read-only snapshot transaction. The snapshot is taken at
	// call time; it never observes writes committed after it started.
	View(ctx context.Context, fn func(tx Tx) error) error
	// Update opens a read-write transaction and commits it if fn returns
	// nil, rolling back otherwise.
	Update(ctx context.Context, fn func(tx RwTx) error) error
	// Compact requests the engine collapse any accumulated
	// write-amplification (sys Compact op, spec.md §6).
	Compact(ctx context.Context) error
	Close() error
}

// Tx is a read-only view over an Engine's data as of the moment it was
// opened.
type Tx interface {
	// Get returns the value for key, or (nil, false) if absent.
	Get(key []byte) (value []byte, ok bool, err error)
	// Iterate walks [from, to) in ascending byte order (nil `to` means "no
	// upper bound"); fn returning false stops iteration early. Iteration
	// order must match the table's comparator, not raw lexicographic order,
	// when they differ — callers are expected to pre-encode keys so engine
	// byte order already matches the logical order they want (this is
	// exactly why encoding's key layouts exist).
	Iterate(from, to []byte, fn func(k, v []byte) (bool, error)) error
	// IterateReverse is Iterate in descending order, used for the
	// "seek to first key ≤ T" time-travel read (spec.md §4.3).
	IterateReverse(from, to []byte, fn func(k, v []byte) (bool, error)) error
}

// RwTx adds mutation to Tx. All writes accumulate in the transaction buffer
// until the Engine.Update callback returns nil.
type RwTx interface {
	Tx
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Config bundles the parameters needed to open an Engine for one Table.
type Config struct {
	Path            string
	Table           Table
	Cmp             CmpFunc
	PrefixExtractor encoding.PrefixExtractor
}
