// Package catalog implements the schema/attribute catalog (spec.md §4.2):
// it maps attribute names to attribute records and enforces that a live
// attribute's value type and cardinality never change once data exists.
package catalog

import (
	json "github.com/goccy/go-json"

	"github.com/chiefnoah/cozo/encoding"
)

// ValType is an attribute's declared value type (spec.md §3).
type ValType string

const (
	ValRef     ValType = "ref"
	ValInt     ValType = "int"
	ValFloat   ValType = "float"
	ValString  ValType = "string"
	ValBool    ValType = "bool"
	ValBytes   ValType = "bytes"
	ValKeyword ValType = "keyword"
	ValList    ValType = "list"
	ValTuple   ValType = "tuple"
)

// Cardinality is One (at most one live assertion per (e,a)) or Many
// (a set of live assertions per (e,a)).
type Cardinality string

const (
	CardinalityOne  Cardinality = "one"
	CardinalityMany Cardinality = "many"
)

// Indexing controls which secondary indices (AVE/VAE) are maintained for an
// attribute, and what uniqueness is enforced (spec.md §3).
type Indexing string

const (
	IndexNone     Indexing = "none"
	IndexIndexed  Indexing = "indexed"
	IndexUnique   Indexing = "unique"
	IndexIdentity Indexing = "identity" // implies Unique
)

// Attr is one attribute record.
type Attr struct {
	Id          encoding.AttrId `json:"id"`
	Name        string          `json:"name"`
	ValType     ValType         `json:"val_type"`
	Cardinality Cardinality     `json:"cardinality"`
	Indexing    Indexing        `json:"indexing"`
	WithHistory bool            `json:"with_history"`
	// Retracted marks the record hidden from lookups while keeping its id
	// stable (spec.md §3: "a retracted attribute keeps its id but is hidden
	// from lookups").
	Retracted bool `json:"retracted"`
}

// ValueInKey reports whether a triple for this attribute stores its value
// in the EAV/AEV key (cardinality Many) or in the payload (cardinality
// One) — see encoding.EncodeEAVKey's valueInKey parameter.
func (a Attr) ValueInKey() bool { return a.Cardinality == CardinalityMany }

// MaintainsAVE reports whether AVE index entries are written for this
// attribute (spec.md §3: "only for indexed/unique").
func (a Attr) MaintainsAVE() bool {
	return a.Indexing == IndexIndexed || a.Indexing == IndexUnique || a.Indexing == IndexIdentity
}

// MaintainsVAE reports whether VAE index entries are written (spec.md §3:
// "only for Ref-typed attrs").
func (a Attr) MaintainsVAE() bool { return a.ValType == ValRef }

// IsUnique reports whether at most one live (a,v) pair may exist.
func (a Attr) IsUnique() bool {
	return a.Indexing == IndexUnique || a.Indexing == IndexIdentity
}

func encodeAttr(a Attr) []byte {
	b, _ := json.Marshal(a)
	return b
}

func decodeAttr(b []byte) (Attr, error) {
	var a Attr
	err := json.Unmarshal(b, &a)
	return a, err
}
