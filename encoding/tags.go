package encoding

// StorageTag is the one-byte discriminator every physical key begins with,
// the same idea as erigon-lib/kv's per-bucket naming but folded into the key
// itself since the triple store backs four logical indices off one column
// family.
type StorageTag byte

const (
	TagEAV StorageTag = 'e'
	TagAEV StorageTag = 'a'
	TagAVE StorageTag = 'v'
	TagVAE StorageTag = 'r' // "reverse"

	// TagTxMeta keys a transaction metadata record (comment + wall-clock
	// validity) by TxId, written as part of commit_tx.
	TagTxMeta StorageTag = 't'
	// TagLastId keys the monotonically increasing "last id" counters
	// (last_attr_id, last_ent_id, last_tx_id).
	TagLastId StorageTag = 'l'
	// TagAttrById keys attribute catalog records by AttrId and
	// TagAttrByName a name index by attribute name.
	TagAttrById   StorageTag = 'A'
	TagAttrByName StorageTag = 'N'
	// TagGuard prefixes system keys living under ViewRelId::SYSTEM (spec.md
	// §6's small meta-kv API).
	TagGuard StorageTag = 'g'
)

// Op is the assert/retract tag stored alongside (or folded into) the triple
// payload.
type Op byte

const (
	OpAssert  Op = 1
	OpRetract Op = 2
)

func (o Op) String() string {
	if o == OpRetract {
		return "retract"
	}
	return "assert"
}
