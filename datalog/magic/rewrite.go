package magic

import (
	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/datalog/normalize"
	"github.com/chiefnoah/cozo/internal/xerrors"
)

// MagicRule is one rewritten rule of one adorned predicate: its body is the
// original body with the magic atom prepended and every intensional
// subgoal renamed to the adorned version computed for that call site
// (spec.md §4.7, rule (3)).
type MagicRule struct {
	Adorned AdornedPredicate
	Head    []ast.Symbol
	Aggr    []*ast.AggrCall
	Body    []normalize.NormalFormAtom
}

// SeedRule supplies bindings into a recursive call site: magic_q^β(bound(Ȳ))
// :- magic_p^α(bound(X̄)), B1..Bi-1 (spec.md §4.7, rule (2)).
type SeedRule struct {
	Magic      AdornedPredicate
	Head       []ast.Var
	BodyPrefix []normalize.NormalFormAtom
}

// Program is the magic-set-rewritten form of a NormalizedProgram: ready for
// fixpoint evaluation stratum by stratum.
type Program struct {
	Entry      AdornedPredicate
	Rules      map[string][]MagicRule // keyed by AdornedPredicate.Key()
	Seeds      []SeedRule
	Algo       map[ast.Symbol]ast.AlgoCall
	ConstRules map[ast.Symbol][]normalize.Tuple
}

// Rewrite computes adornments by sideways information passing starting from
// the entry predicate ("all free", spec.md §4.7) and synthesizes magic
// predicates + seed rules for every intensional predicate reachable from
// it. Const-rule, algo, and view-backed predicates are treated as EDB: they
// receive no magic predicate and no seed rule (spec.md §4.7).
func Rewrite(prog *normalize.NormalizedProgram) (*Program, error) {
	entryRules := prog.Prog[ast.EntrySymbol]
	arity := 0
	if len(entryRules) > 0 {
		arity = len(entryRules[0].Head)
	}
	entry := AdornedPredicate{Name: ast.EntrySymbol, Adorn: AllFree(arity)}

	out := &Program{
		Entry:      entry,
		Rules:      make(map[string][]MagicRule),
		Algo:       prog.Algo,
		ConstRules: prog.ConstRules,
	}

	worklist := []AdornedPredicate{entry}
	visited := map[string]bool{}

	for len(worklist) > 0 {
		cur := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if visited[cur.Key()] {
			continue
		}
		visited[cur.Key()] = true

		rules, ok := prog.Prog[cur.Name]
		if !ok {
			// Algo/const-rule/view predicate reached via a call site: EDB,
			// nothing to rewrite.
			continue
		}
		if len(rules) == 0 {
			return nil, xerrors.New(xerrors.KindStratification, "predicate %q has no rule definitions", cur.Name)
		}

		for _, rule := range rules {
			bound := map[ast.Var]bool{}
			for i, h := range rule.Head {
				if i < len(cur.Adorn) && cur.Adorn[i] == Bound {
					bound[ast.Var(h)] = true
				}
			}
			magicArgs := projectBound(headVars(rule.Head), cur.Adorn)
			magicAtom := normalize.NormalFormAtom{Kind: normalize.NFRelation, Name: cur.MagicName(), Args: magicArgs}

			body := make([]normalize.NormalFormAtom, 0, len(rule.Body)+1)
			body = append(body, magicAtom)
			var prefix []normalize.NormalFormAtom
			prefix = append(prefix, magicAtom)

			for _, atom := range rule.Body {
				switch atom.Kind {
				case normalize.NFRule, normalize.NFNegatedRule:
					childAdorn := computeAdornment(atom.Args, bound)
					childAP := AdornedPredicate{Name: atom.Name, Adorn: childAdorn}

					if isIntensional(prog, atom.Name) {
						seedHead := projectBound(atom.Args, childAdorn)
						seedBody := make([]normalize.NormalFormAtom, len(prefix))
						copy(seedBody, prefix)
						out.Seeds = append(out.Seeds, SeedRule{Magic: childAP, Head: seedHead, BodyPrefix: seedBody})
						if !visited[childAP.Key()] {
							worklist = append(worklist, childAP)
						}
					}

					renamed := atom
					if isIntensional(prog, atom.Name) {
						renamed.Name = childAP.SpecializedName()
					}
					body = append(body, renamed)

					if atom.Kind == normalize.NFRule {
						for _, v := range atom.Args {
							bound[v] = true
						}
					}
				case normalize.NFAttrTriple, normalize.NFNegatedAttrTriple:
					body = append(body, atom)
					if atom.Kind == normalize.NFAttrTriple {
						bound[atom.Entity] = true
						bound[atom.Value] = true
					}
				case normalize.NFRelation, normalize.NFNegatedRelation:
					body = append(body, atom)
					if atom.Kind == normalize.NFRelation {
						for _, v := range atom.Args {
							bound[v] = true
						}
					}
				case normalize.NFUnification:
					body = append(body, atom)
					bound[atom.Left] = true
				default: // NFPredicate
					body = append(body, atom)
				}
				prefix = append(prefix, atom)
			}

			out.Rules[cur.Key()] = append(out.Rules[cur.Key()], MagicRule{
				Adorned: cur,
				Head:    rule.Head,
				Aggr:    rule.Aggr,
				Body:    body,
			})
		}
	}

	return out, nil
}

func isIntensional(prog *normalize.NormalizedProgram, name ast.Symbol) bool {
	if _, ok := prog.Algo[name]; ok {
		return false
	}
	if _, ok := prog.ConstRules[name]; ok {
		return false
	}
	_, ok := prog.Prog[name]
	return ok
}

func headVars(head []ast.Symbol) []ast.Var {
	out := make([]ast.Var, len(head))
	for i, h := range head {
		out[i] = ast.Var(h)
	}
	return out
}
