// Package triple implements the EAV fact store with validity-aware keys and
// transactional semantics (spec.md §3, §4.3).
package triple

import (
	"github.com/chiefnoah/cozo/encoding"
)

// Triple is the logical fact (e, a, v, vld, op) of spec.md §3.
type Triple struct {
	E   encoding.EntityId
	A   encoding.AttrId
	V   encoding.DataValue
	Vld encoding.Validity
	Op  encoding.Op
}

func (t Triple) IsAssert() bool { return t.Op == encoding.OpAssert }
