package eval

import (
	"github.com/google/btree"

	"github.com/chiefnoah/cozo/encoding"
)

type tupleItem struct{ t encoding.Tuple }

func lessTuple(a, b tupleItem) bool { return encoding.CompareTuples(a.t, b.t) < 0 }

// Relation is an ordered, deduplicated set of tuples: the working relation
// the evaluator keeps per predicate across rounds (SPEC_FULL.md domain stack: google/btree backs the ordered temp relation,
// matching the teacher's use of btree for ordered in-memory indices).
type Relation struct {
	tree *btree.BTreeG[tupleItem]
}

func NewRelation() *Relation {
	return &Relation{tree: btree.NewG(32, lessTuple)}
}

// Insert adds t if not already present, reporting whether it was new —
// Evaluate uses the return value to detect whether a round derived anything
// and the fixpoint has been reached.
func (r *Relation) Insert(t encoding.Tuple) bool {
	_, existed := r.tree.ReplaceOrInsert(tupleItem{t})
	return !existed
}

// Delete removes t if present, reporting whether it was found. Used by
// Evaluate's aggregation handling (eval.go) to retract a group's previous
// folded row before inserting its recomputed value.
func (r *Relation) Delete(t encoding.Tuple) bool {
	_, existed := r.tree.Delete(tupleItem{t})
	return existed
}

func (r *Relation) Contains(t encoding.Tuple) bool {
	_, ok := r.tree.Get(tupleItem{t})
	return ok
}

func (r *Relation) Len() int { return r.tree.Len() }

func (r *Relation) All() []encoding.Tuple {
	out := make([]encoding.Tuple, 0, r.tree.Len())
	r.tree.Ascend(func(it tupleItem) bool {
		out = append(out, it.t)
		return true
	})
	return out
}
