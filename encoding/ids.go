// Copyright 2024 The Erigon Authors
// (modifications)
//
// Package encoding implements the canonical byte layouts for entity ids,
// attribute ids, validity timestamps, values and tuples, and the comparators
// that impose the sort order the triple and view stores rely on.
//
// Key composition follows the table-tag convention used throughout
// erigon-lib/kv (see StorageTag in tags.go, the analogue of kv's bucket-name
// constants): every physical key begins with a single discriminator byte so
// one column family can host more than one logical index.
package encoding

import (
	"encoding/binary"
	"math"
)

// EntityId, AttrId, TxId, ViewRelId are 64-bit unsigned identifiers with
// reserved sentinel ranges (spec.md §3).
type EntityId uint64
type AttrId uint64
type TxId uint64
type ViewRelId uint64

const (
	// TempIdHighBit marks a pre-commit, session-local entity id. Temp ids
	// are only ever resolved against a single tx (see triple.TempIDResolver)
	// and must never be persisted.
	TempIdHighBit EntityId = 1 << 63

	// MinPermanentEntityId / MaxPermanentEntityId bound the range scanned
	// when iterating over all permanent (post-commit) entities.
	MinPermanentEntityId EntityId = 1
	MaxPermanentEntityId EntityId = TempIdHighBit - 1

	// SystemViewRelId is the reserved ViewRelId backing the small meta-kv
	// API (Guard-prefixed system keys, spec.md §6).
	SystemViewRelId ViewRelId = 0
	// MinUserViewRelId is the first id handed out by the view store's
	// allocator for user-created views.
	MinUserViewRelId ViewRelId = 1
)

// IsTemp reports whether e was allocated by a session before commit.
func (e EntityId) IsTemp() bool { return e&TempIdHighBit != 0 }

// NewTempId builds a session-local temp id out of a small sequential
// counter. Collisions across sessions are harmless: temp ids never escape
// the transaction that minted them.
func NewTempId(seq uint64) EntityId { return TempIdHighBit | EntityId(seq) }

// Validity is a signed 64-bit microsecond-resolution timestamp (spec.md
// §3). Comparison is reversed in key order (see InvertValidity) so that,
// within a fixed (entity, attr) key prefix, newer validities sort first.
type Validity int64

const (
	ValidityMin Validity = math.MinInt64
	ValidityMax Validity = math.MaxInt64
)

// CurrentValidity constructs a Validity from a wall-clock microsecond
// timestamp, the constructor used by commit_tx when the caller does not
// supply an explicit validity.
func CurrentValidity(unixMicro int64) Validity { return Validity(unixMicro) }

// InvertValidity maps a Validity onto the byte order needed so that
// ascending byte-wise iteration yields descending validities ("¬vld" in
// spec.md's key composition table). The two's-complement bit pattern of a
// negative int64 is numerically larger, as an uint64, than that of a
// positive one, so the sign bit is flipped first to get an unsigned
// encoding that is monotonic with signed order; only then is the whole
// thing bit-flipped to reverse ascending into descending.
func InvertValidity(v Validity) uint64 {
	sortable := uint64(v) ^ (1 << 63)
	return ^sortable
}

// PutEntityId writes e in big-endian so that byte-wise comparison matches
// numeric comparison.
func PutEntityId(dst []byte, e EntityId) { binary.BigEndian.PutUint64(dst, uint64(e)) }

func PutAttrId(dst []byte, a AttrId) { binary.BigEndian.PutUint64(dst, uint64(a)) }

func PutTxId(dst []byte, t TxId) { binary.BigEndian.PutUint64(dst, uint64(t)) }

func PutViewRelId(dst []byte, r ViewRelId) { binary.BigEndian.PutUint64(dst, uint64(r)) }

func PutInvertedValidity(dst []byte, v Validity) {
	binary.BigEndian.PutUint64(dst, InvertValidity(v))
}

func ReadEntityId(b []byte) EntityId { return EntityId(binary.BigEndian.Uint64(b)) }
func ReadAttrId(b []byte) AttrId     { return AttrId(binary.BigEndian.Uint64(b)) }
func ReadTxId(b []byte) TxId         { return TxId(binary.BigEndian.Uint64(b)) }
func ReadViewRelId(b []byte) ViewRelId { return ViewRelId(binary.BigEndian.Uint64(b)) }

// ReadInvertedValidity is the inverse of PutInvertedValidity.
func ReadInvertedValidity(b []byte) Validity {
	sortable := ^binary.BigEndian.Uint64(b)
	return Validity(sortable ^ (1 << 63))
}

const (
	EntityIdSize   = 8
	AttrIdSize     = 8
	TxIdSize       = 8
	ViewRelIdSize  = 8
	ValiditySize   = 8
)
