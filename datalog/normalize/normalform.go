package normalize

import (
	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/encoding"
)

// NFKind discriminates NormalFormAtom's tagged-sum cases (spec.md §3:
// "AttrTriple, NegatedAttrTriple, Rule, NegatedRule, Relation,
// NegatedRelation, Predicate, Unification").
type NFKind int

const (
	NFAttrTriple NFKind = iota
	NFNegatedAttrTriple
	NFRule
	NFNegatedRule
	NFRelation
	NFNegatedRelation
	NFPredicate
	NFUnification
)

func (k NFKind) Negated() bool {
	switch k {
	case NFNegatedAttrTriple, NFNegatedRule, NFNegatedRelation:
		return true
	}
	return false
}

// NormalFormAtom is one atom of a normalized rule body. Every position is a
// plain variable; constants and repeated variables are hoisted into a
// preceding Unification atom by normalizeConjunction.
type NormalFormAtom struct {
	Kind NFKind

	// NFAttrTriple / NFNegatedAttrTriple
	Entity ast.Var
	Attr   string
	Value  ast.Var
	Vld    *encoding.Validity

	// NFRule / NFNegatedRule / NFRelation / NFNegatedRelation
	Name Symbol
	Args []ast.Var

	// NFPredicate
	PredicateExpr string

	// NFUnification: Left := Right (Right may alias another Var or carry a
	// Const).
	Left  ast.Var
	Right ast.Term
}

// Symbol re-exports ast.Symbol so callers don't need two imports for one
// name in the common case.
type Symbol = ast.Symbol

// IsFlatConjunction reports the DNF flatness invariant (spec.md §8): no
// atom in the list is itself a Conjunction or Disjunction. NormalFormAtom
// has no such cases by construction, so this is always true; it exists so
// property tests have something concrete to assert against the
// intermediate []ast.InputAtom representation too (see dnf.go).
func IsFlatConjunction(atoms []ast.InputAtom) bool {
	for _, a := range atoms {
		if a.Kind == ast.AtomConjunction || a.Kind == ast.AtomDisjunction {
			return false
		}
	}
	return true
}
