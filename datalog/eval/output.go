package eval

import (
	"bytes"
	"sort"

	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/encoding"
)

// Sorter orders result rows by a composite key built from the `sort` query
// option (spec.md §4.9), grounded on original_source/src/query/logical.rs's
// Sorter: each key column contributes an order-preserving or
// order-inverting byte run (encoding.InvertSortKey) so the whole row can be
// ordered by a single bytes.Compare rather than a multi-column comparator.
type Sorter struct {
	Keys []ast.SortKey
}

func (s Sorter) sortKeyBytes(headVars []ast.Var, row encoding.Tuple) []byte {
	idx := make(map[ast.Var]int, len(headVars))
	for i, v := range headVars {
		idx[v] = i
	}
	var buf []byte
	for _, k := range s.Keys {
		i, ok := idx[k.Var]
		var val encoding.DataValue
		if ok {
			val = row[i]
		} else {
			val = encoding.NullValue()
		}
		dir := encoding.Asc
		if k.Dir == ast.Descending {
			dir = encoding.Desc
		}
		buf = encoding.InvertSortKey(buf, val, dir)
	}
	return buf
}

// Sort returns rows ordered by s.Keys; a no-op (stable, input order
// preserved) when s.Keys is empty.
func (s Sorter) Sort(rows []encoding.Tuple, headVars []ast.Var) []encoding.Tuple {
	if len(s.Keys) == 0 {
		return rows
	}
	out := append([]encoding.Tuple(nil), rows...)
	keys := make([][]byte, len(out))
	for i, r := range out {
		keys[i] = s.sortKeyBytes(headVars, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return bytes.Compare(keys[i], keys[j]) < 0
	})
	return out
}

// PlanOutput decides how limit/offset/sort compose at the query's output
// stage (spec.md §4.9), grounded on original_source/src/runtime/db.rs's
// QueryOutOptions decision table: "When sorters is non-empty, collect all
// result tuples into an external-mergeable sorted store... apply offset
// then limit. When empty, push down limit to the evaluator as
// num_to_take."
type PlanOutput struct {
	Sort   []ast.SortKey
	Limit  *int
	Offset *int
}

// NumToTake reports the row count the evaluator may stop at early, and
// whether pushdown is legal at all — only when there is no sort to apply
// first, since a limit taken before sorting would discard rows that should
// have survived the sort.
func (p PlanOutput) NumToTake() (int, bool) {
	if len(p.Sort) > 0 || p.Limit == nil {
		return 0, false
	}
	n := *p.Limit
	if p.Offset != nil {
		n += *p.Offset
	}
	return n, true
}

// Apply sorts (if requested), then applies offset, then limit, to rows.
func (p PlanOutput) Apply(rows []encoding.Tuple, headVars []ast.Var) []encoding.Tuple {
	out := Sorter{Keys: p.Sort}.Sort(rows, headVars)

	if p.Offset != nil {
		off := *p.Offset
		if off >= len(out) {
			return nil
		}
		out = out[off:]
	}
	if p.Limit != nil && *p.Limit < len(out) {
		out = out[:*p.Limit]
	}
	return out
}
