package normalize

import (
	"fmt"

	"github.com/chiefnoah/cozo/datalog/ast"
)

// DisjunctiveNormalForm distributes a conjunction of already-NNF'd disjuncts
// over cross products (spec.md §4.5): given `D1 ∧ D2 ∧ … ∧ Dk`, produces all
// cross products of their inner conjunctions, one flat []NormalFormAtom per
// resulting disjunct. Within each disjunct, every atom position is made a
// fresh-or-seen variable by hoisting constants and repeated variables into
// preceding Unification atoms.
func DisjunctiveNormalForm(body []ast.InputAtom) ([][]NormalFormAtom, error) {
	top := ast.InputAtom{Kind: ast.AtomConjunction, Atoms: body}
	raw, err := dnf(top)
	if err != nil {
		return nil, err
	}
	out := make([][]NormalFormAtom, 0, len(raw))
	for _, conj := range raw {
		nf, err := normalizeConjunction(conj)
		if err != nil {
			return nil, err
		}
		out = append(out, nf)
	}
	return out, nil
}

func dnf(a ast.InputAtom) ([][]ast.InputAtom, error) {
	switch a.Kind {
	case ast.AtomConjunction:
		combos := [][]ast.InputAtom{{}}
		for _, child := range a.Atoms {
			childDNF, err := dnf(child)
			if err != nil {
				return nil, err
			}
			combos = crossProduct(combos, childDNF)
		}
		return combos, nil
	case ast.AtomDisjunction:
		var out [][]ast.InputAtom
		for _, child := range a.Atoms {
			childDNF, err := dnf(child)
			if err != nil {
				return nil, err
			}
			out = append(out, childDNF...)
		}
		return out, nil
	default:
		return [][]ast.InputAtom{{a}}, nil
	}
}

func crossProduct(a, b [][]ast.InputAtom) [][]ast.InputAtom {
	out := make([][]ast.InputAtom, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			combo := make([]ast.InputAtom, 0, len(x)+len(y))
			combo = append(combo, x...)
			combo = append(combo, y...)
			out = append(out, combo)
		}
	}
	return out
}

// normalizeConjunction hoists constants and repeated variables out of each
// atom in conj, in order, so every atom position ends up a fresh or
// first-seen variable (spec.md §4.5, second paragraph). Unifications
// producing a binding precede the atoms that consume it because hoisted
// Unification atoms are always prepended immediately before the atom they
// were extracted from.
func normalizeConjunction(conj []ast.InputAtom) ([]NormalFormAtom, error) {
	seen := make(map[ast.Var]bool)
	fresh := 0
	nextFresh := func() ast.Var {
		fresh++
		return ast.Var(fmt.Sprintf("_h%d", fresh))
	}

	var out []NormalFormAtom
	resolve := func(t ast.Term) ast.Var {
		if t.IsConst {
			v := nextFresh()
			out = append(out, NormalFormAtom{Kind: NFUnification, Left: v, Right: t})
			return v
		}
		if seen[t.Var] {
			v := nextFresh()
			out = append(out, NormalFormAtom{Kind: NFUnification, Left: v, Right: ast.VarTerm(t.Var)})
			return v
		}
		seen[t.Var] = true
		return t.Var
	}

	for _, a := range conj {
		negated := false
		inner := a
		if a.Kind == ast.AtomNegation {
			negated = true
			inner = *a.Negated
		}
		switch inner.Kind {
		case ast.AtomAttrTriple:
			e := resolve(inner.Entity)
			v := resolve(inner.Value)
			kind := NFAttrTriple
			if negated {
				kind = NFNegatedAttrTriple
			}
			out = append(out, NormalFormAtom{Kind: kind, Entity: e, Attr: inner.Attr, Value: v, Vld: inner.Vld})
		case ast.AtomRule:
			args := make([]ast.Var, len(inner.Args))
			for i, arg := range inner.Args {
				args[i] = resolve(arg)
			}
			kind := NFRule
			if negated {
				kind = NFNegatedRule
			}
			out = append(out, NormalFormAtom{Kind: kind, Name: inner.Name, Args: args})
		case ast.AtomRelation:
			args := make([]ast.Var, len(inner.Args))
			for i, arg := range inner.Args {
				args[i] = resolve(arg)
			}
			kind := NFRelation
			if negated {
				kind = NFNegatedRelation
			}
			out = append(out, NormalFormAtom{Kind: kind, Name: inner.Name, Args: args})
		case ast.AtomPredicate:
			out = append(out, NormalFormAtom{Kind: NFPredicate, PredicateExpr: inner.PredicateExpr})
		case ast.AtomUnification:
			seen[inner.Left] = true
			out = append(out, NormalFormAtom{Kind: NFUnification, Left: inner.Left, Right: inner.Right})
		}
	}
	return out, nil
}
