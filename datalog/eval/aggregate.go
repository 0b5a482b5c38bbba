package eval

import (
	"sort"
	"strconv"

	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/encoding"
)

// ruleStateKey identifies one rule disjunct within a predicate, used to
// track per-rule aggregation state across fixpoint rounds.
func ruleStateKey(predicateKey string, ruleIndex int) string {
	return predicateKey + "#" + strconv.Itoa(ruleIndex)
}

// hasAggr reports whether any head column carries an aggregation.
func hasAggr(aggr []*ast.AggrCall) bool {
	for _, a := range aggr {
		if a != nil {
			return true
		}
	}
	return false
}

// foldAggregates groups bindings by the head's non-aggregated columns and
// folds each aggregated column over its group (spec.md §4.8: "per-rule
// temporary relations... constant rules, and pluggable algo operators",
// generalized here to aggregation heads per SPEC_FULL.md 4.9). Non-nil
// entries in aggr line up position-for-position with head.
func foldAggregates(head []ast.Symbol, aggr []*ast.AggrCall, bindings []Bindings) []encoding.Tuple {
	var groupVars []ast.Var
	for i, h := range head {
		if i >= len(aggr) || aggr[i] == nil {
			groupVars = append(groupVars, ast.Var(h))
		}
	}

	type group struct {
		key encoding.Tuple
		bs  []Bindings
	}
	byKey := make(map[string]*group)
	var order []string
	for _, b := range bindings {
		k := b.Tuple(groupVars)
		ks := string(encoding.EncodeTuple(k))
		g, ok := byKey[ks]
		if !ok {
			g = &group{key: k}
			byKey[ks] = g
			order = append(order, ks)
		}
		g.bs = append(g.bs, b)
	}

	out := make([]encoding.Tuple, 0, len(order))
	for _, ks := range order {
		g := byKey[ks]
		row := make(encoding.Tuple, len(head))
		gi := 0
		for i, h := range head {
			if i < len(aggr) && aggr[i] != nil {
				row[i] = applyAggregate(aggr[i], ast.Var(h), g.bs)
			} else {
				row[i] = g.key[gi]
				gi++
			}
		}
		out = append(out, row)
	}
	return out
}

func applyAggregate(call *ast.AggrCall, v ast.Var, bs []Bindings) encoding.DataValue {
	switch call.Spec {
	case ast.AggrCount:
		return encoding.IntValue(int64(len(bs)))

	case ast.AggrSum:
		allInt := true
		var isum int64
		var fsum float64
		for _, b := range bs {
			val := b[v]
			if val.Tag == encoding.TagInt {
				isum += val.I
				fsum += float64(val.I)
			} else {
				allInt = false
				fsum += val.F
			}
		}
		if allInt {
			return encoding.IntValue(isum)
		}
		return encoding.FloatValue(fsum)

	case ast.AggrMin:
		var best encoding.DataValue
		first := true
		for _, b := range bs {
			val := b[v]
			if first || encoding.CompareValues(val, best) < 0 {
				best = val
				first = false
			}
		}
		return best

	case ast.AggrMax:
		var best encoding.DataValue
		first := true
		for _, b := range bs {
			val := b[v]
			if first || encoding.CompareValues(val, best) > 0 {
				best = val
				first = false
			}
		}
		return best

	case ast.AggrCollect, ast.AggrCollectOrdered:
		list := make([]encoding.DataValue, 0, len(bs))
		for _, b := range bs {
			list = append(list, b[v])
		}
		if call.Spec == ast.AggrCollectOrdered {
			sort.Slice(list, func(i, j int) bool { return encoding.CompareValues(list[i], list[j]) < 0 })
		}
		if len(call.Args) > 0 && call.Args[0].Tag == encoding.TagInt && int(call.Args[0].I) < len(list) {
			list = list[:call.Args[0].I]
		}
		return encoding.ListValue(list)

	default:
		return encoding.NullValue()
	}
}

// tupleSetEqual compares two tuple slices as sets (order-independent),
// used to detect whether a round's re-folded aggregation output actually
// changed before touching the Relation.
func tupleSetEqual(a, b []encoding.Tuple) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]encoding.Tuple(nil), a...)
	bs := append([]encoding.Tuple(nil), b...)
	sort.Slice(as, func(i, j int) bool { return encoding.CompareTuples(as[i], as[j]) < 0 })
	sort.Slice(bs, func(i, j int) bool { return encoding.CompareTuples(bs[i], bs[j]) < 0 })
	for i := range as {
		if encoding.CompareTuples(as[i], bs[i]) != 0 {
			return false
		}
	}
	return true
}
