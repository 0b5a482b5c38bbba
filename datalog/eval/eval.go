// Package eval implements the bottom-up evaluator over a
// magic-set-rewritten program (spec.md §4.8): per stratum, every rule body
// is joined left to right against the triple store, view store, and the
// relations already derived by earlier strata, repeating to a fixpoint.
// Evaluation is naive: each round re-joins every rule body against the full
// relations; no per-round delta relations are kept.
package eval

import (
	"context"

	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/datalog/magic"
	"github.com/chiefnoah/cozo/datalog/normalize"
	"github.com/chiefnoah/cozo/encoding"
	"github.com/chiefnoah/cozo/internal/xerrors"
)

// Env bundles the EDB sources and cooperative-cancellation hooks the
// evaluator needs, independent of any particular KV engine or runtime
// implementation.
type Env struct {
	Triples    TripleSource
	Attrs      AttrResolver
	Views      ViewSource
	Algo       AlgoSource
	Cancel     Canceler
	CheckEvery int // tuples produced between Cancel.Canceled() checks; <=0 defaults to 4096
}

func (e Env) checkEvery() int {
	if e.CheckEvery <= 0 {
		return 4096
	}
	return e.CheckEvery
}

// Evaluate runs prog to fixpoint stratum by stratum and returns the
// entry predicate's derived tuples, in head-column order (spec.md §4.8:
// "the entry rule's relation is the query result").
func Evaluate(ctx context.Context, prog *magic.Program, env Env) ([]encoding.Tuple, error) {
	strata, err := stratifyRewritten(prog)
	if err != nil {
		return nil, err
	}

	known := make(map[string]*Relation)
	for name, tuples := range prog.ConstRules {
		rel := NewRelation()
		for _, t := range tuples {
			rel.Insert(t)
		}
		known[string(name)] = rel
	}
	if env.Algo != nil {
		for name, call := range prog.Algo {
			args := make([]encoding.DataValue, 0, len(call.Args))
			for _, a := range call.Args {
				if a.IsConst {
					args = append(args, a.Const)
				}
			}
			tuples, err := env.Algo.RunAlgo(ctx, call.Name, args, call.Opts)
			if err != nil {
				return nil, xerrors.Wrap(xerrors.KindStratification, err, "algo %q", call.Name)
			}
			rel := NewRelation()
			for _, t := range tuples {
				rel.Insert(t)
			}
			known[string(name)] = rel
		}
	}
	// The entry magic predicate has no seed rule of its own: its single
	// empty-tuple fact is the "all free" adornment's seed (spec.md §4.7).
	entryMagic := NewRelation()
	entryMagic.Insert(encoding.Tuple{})
	known[string(prog.Entry.MagicName())] = entryMagic

	tuplesProduced := 0
	checkCancel := func() error {
		tuplesProduced++
		if tuplesProduced%env.checkEvery() == 0 && env.Cancel != nil && env.Cancel.Canceled() {
			return xerrors.New(xerrors.KindKilled, "query canceled")
		}
		return nil
	}

	for _, st := range strata {
		ruleSets := make(map[string][]magic.MagicRule)
		seedSets := make(map[string][]magic.SeedRule)
		for _, k := range st.keys {
			if rs, ok := prog.Rules[k]; ok {
				ruleSets[k] = rs
			}
		}
		for _, s := range prog.Seeds {
			key := string(s.Magic.MagicName())
			for _, k := range st.keys {
				if k == key {
					seedSets[key] = append(seedSets[key], s)
				}
			}
		}
		if len(ruleSets) == 0 && len(seedSets) == 0 {
			continue // pure EDB stratum (algo/const leaf), already materialized above
		}

		for k := range ruleSets {
			if _, ok := known[k]; !ok {
				known[k] = NewRelation()
			}
		}
		for k := range seedSets {
			if _, ok := known[k]; !ok {
				known[k] = NewRelation()
			}
		}

		// prevFolded tracks, per (key, rule index), the tuple set an
		// aggregated rule folded to on its previous round — so a changed
		// aggregate value can be retracted and replaced instead of
		// accumulating stale duplicate rows with the same group key
		// (spec.md §4.8's aggregation requirement, folded here rather than
		// threaded through magic.Rewrite: MagicRule.Aggr is carried but
		// never consulted by Rewrite itself, so an aggregated predicate
		// always lands in its own downstream stratum once its body's
		// dependencies are fully evaluated, and stratum isolation alone is
		// enough to make non-associative folds like collect_ordered safe).
		prevFolded := make(map[string][]encoding.Tuple)

		for {
			grew := false
			for key, rules := range ruleSets {
				for ri, r := range rules {
					bindings, err := evalBody(ctx, r.Body, known, env)
					if err != nil {
						return nil, err
					}
					if hasAggr(r.Aggr) {
						folded := foldAggregates(r.Head, r.Aggr, bindings)
						pkey := ruleStateKey(key, ri)
						if !tupleSetEqual(prevFolded[pkey], folded) {
							for _, t := range prevFolded[pkey] {
								known[key].Delete(t)
							}
							for _, t := range folded {
								known[key].Insert(t)
							}
							prevFolded[pkey] = folded
							grew = true
							if err := checkCancel(); err != nil {
								return nil, err
							}
						}
						continue
					}
					for _, b := range bindings {
						t := b.Tuple(headVars(r.Head))
						if known[key].Insert(t) {
							grew = true
							if err := checkCancel(); err != nil {
								return nil, err
							}
						}
					}
				}
			}
			for key, seeds := range seedSets {
				for _, s := range seeds {
					bindings, err := evalBody(ctx, s.BodyPrefix, known, env)
					if err != nil {
						return nil, err
					}
					for _, b := range bindings {
						t := b.Tuple(s.Head)
						if known[key].Insert(t) {
							grew = true
							if err := checkCancel(); err != nil {
								return nil, err
							}
						}
					}
				}
			}
			if !grew {
				break
			}
		}
	}

	entryKey := prog.Entry.Key()
	rel, ok := known[entryKey]
	if !ok {
		return nil, nil
	}
	return rel.All(), nil
}

// evalBody joins body left to right starting from the single empty
// binding, producing every satisfying Bindings set.
func evalBody(ctx context.Context, body []normalize.NormalFormAtom, known map[string]*Relation, env Env) ([]Bindings, error) {
	cur := []Bindings{{}}
	for _, atom := range body {
		next := make([]Bindings, 0, len(cur))
		for _, b := range cur {
			expanded, err := evalAtom(ctx, atom, b, known, env)
			if err != nil {
				return nil, err
			}
			next = append(next, expanded...)
		}
		cur = next
		if len(cur) == 0 {
			return nil, nil
		}
	}
	return cur, nil
}

func evalAtom(ctx context.Context, atom normalize.NormalFormAtom, b Bindings, known map[string]*Relation, env Env) ([]Bindings, error) {
	switch atom.Kind {
	case normalize.NFUnification:
		val, ok := resolveTerm(b, atom.Right)
		if !ok {
			return nil, nil
		}
		nb := b.Clone()
		nb[atom.Left] = val
		return []Bindings{nb}, nil

	case normalize.NFAttrTriple, normalize.NFNegatedAttrTriple:
		return evalAttrTriple(ctx, atom, b, env)

	case normalize.NFRule, normalize.NFNegatedRule, normalize.NFRelation, normalize.NFNegatedRelation:
		return evalRelation(atom, b, known, env)

	case normalize.NFPredicate:
		// Predicate expression syntax is out of scope (spec.md §1); every
		// predicate atom is treated as trivially satisfied.
		return []Bindings{b}, nil

	default:
		return nil, xerrors.New(xerrors.KindType, "unhandled normal-form atom kind %d", atom.Kind)
	}
}

func resolveTerm(b Bindings, t ast.Term) (encoding.DataValue, bool) {
	if t.IsConst {
		return t.Const, true
	}
	v, ok := b[t.Var]
	return v, ok
}

func refOf(v encoding.DataValue) (encoding.EntityId, bool) {
	if v.Tag != encoding.TagRef {
		return 0, false
	}
	return v.Ref, true
}

func evalAttrTriple(ctx context.Context, atom normalize.NormalFormAtom, b Bindings, env Env) ([]Bindings, error) {
	if env.Attrs == nil || env.Triples == nil {
		return nil, xerrors.New(xerrors.KindSchema, "no triple source configured")
	}
	attrId, ok := env.Attrs.ResolveAttr(atom.Attr)
	if !ok {
		return nil, xerrors.New(xerrors.KindSchema, "unknown attribute %q", atom.Attr)
	}
	vld := encoding.ValidityMax
	if atom.Vld != nil {
		vld = *atom.Vld
	}
	negated := atom.Kind == normalize.NFNegatedAttrTriple

	eVal, eBound := b[atom.Entity]
	vVal, vBound := b[atom.Value]

	if negated {
		e, ok := refOf(eVal)
		if !eBound || !ok || !vBound {
			return nil, xerrors.New(xerrors.KindUnboundVariable,
				"negated attribute triple %q requires entity and value already bound", atom.Attr)
		}
		vals, err := env.Triples.GetAsOf(ctx, e, attrId, vld)
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			if encoding.CompareValues(v, vVal) == 0 {
				return nil, nil // exists: negation fails
			}
		}
		return []Bindings{b}, nil
	}

	var out []Bindings
	if eBound {
		e, ok := refOf(eVal)
		if !ok {
			return nil, nil
		}
		vals, err := env.Triples.GetAsOf(ctx, e, attrId, vld)
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			if vBound {
				if encoding.CompareValues(v, vVal) != 0 {
					continue
				}
				out = append(out, b)
				continue
			}
			nb := b.Clone()
			nb[atom.Value] = v
			out = append(out, nb)
		}
		return out, nil
	}

	err := env.Triples.ScanAttr(ctx, attrId, vld, func(e encoding.EntityId, v encoding.DataValue) error {
		if vBound && encoding.CompareValues(v, vVal) != 0 {
			return nil
		}
		nb := b.Clone()
		nb[atom.Entity] = encoding.RefValue(e)
		if !vBound {
			nb[atom.Value] = v
		}
		out = append(out, nb)
		return nil
	})
	return out, err
}

func evalRelation(atom normalize.NormalFormAtom, b Bindings, known map[string]*Relation, env Env) ([]Bindings, error) {
	var tuples []encoding.Tuple
	if rel, ok := known[string(atom.Name)]; ok {
		tuples = rel.All()
	} else if env.Views != nil {
		if vs, ok := env.Views.ScanView(string(atom.Name)); ok {
			tuples = vs
		} else {
			return nil, xerrors.New(xerrors.KindSchema, "unknown relation %q", atom.Name)
		}
	} else {
		return nil, xerrors.New(xerrors.KindSchema, "unknown relation %q", atom.Name)
	}

	negated := atom.Kind == normalize.NFNegatedRelation || atom.Kind == normalize.NFNegatedRule
	if negated {
		for _, v := range atom.Args {
			if _, ok := b[v]; !ok {
				return nil, xerrors.New(xerrors.KindUnboundVariable,
					"negated relation %q requires every argument already bound", atom.Name)
			}
		}
		for _, t := range tuples {
			if matchesTuple(b, atom.Args, t) {
				return nil, nil
			}
		}
		return []Bindings{b}, nil
	}

	var out []Bindings
	for _, t := range tuples {
		if len(t) != len(atom.Args) {
			continue
		}
		nb := b.Clone()
		ok := true
		for i, v := range atom.Args {
			if existing, bound := nb[v]; bound {
				if encoding.CompareValues(existing, t[i]) != 0 {
					ok = false
					break
				}
				continue
			}
			nb[v] = t[i]
		}
		if ok {
			out = append(out, nb)
		}
	}
	return out, nil
}

func matchesTuple(b Bindings, args []ast.Var, t encoding.Tuple) bool {
	if len(t) != len(args) {
		return false
	}
	for i, v := range args {
		val, ok := b[v]
		if !ok || encoding.CompareValues(val, t[i]) != 0 {
			return false
		}
	}
	return true
}
