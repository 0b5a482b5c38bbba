// Package normalize implements the negation-normal-form and
// disjunctive-normal-form passes of the query compilation pipeline
// (spec.md §4.5), turning an ast.InputProgram into a NormalizedProgram
// whose rule bodies are flat conjunctions of NormalFormAtoms.
package normalize

import (
	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/internal/xerrors"
)

// NegationNormalForm pushes negation inward using De Morgan's laws
// (spec.md §4.5): ¬(A∧B) → ¬A∨¬B, ¬(A∨B) → ¬A∧¬B, ¬¬A → A. Predicates
// absorb negation into their boolean expression; Unification may never
// appear under negation and is rejected with NegatedUnification.
func NegationNormalForm(a ast.InputAtom) (ast.InputAtom, error) {
	return pushPositive(a)
}

// pushPositive returns the NNF of a, assumed to occur in positive
// (non-negated) context.
func pushPositive(a ast.InputAtom) (ast.InputAtom, error) {
	switch a.Kind {
	case ast.AtomConjunction:
		return mapAtoms(a, ast.AtomConjunction, pushPositive)
	case ast.AtomDisjunction:
		return mapAtoms(a, ast.AtomDisjunction, pushPositive)
	case ast.AtomNegation:
		return pushNegative(*a.Negated)
	default:
		// AttrTriple, Rule, Relation, Predicate, Unification: already atomic.
		return a, nil
	}
}

// pushNegative returns the NNF of ¬a.
func pushNegative(a ast.InputAtom) (ast.InputAtom, error) {
	switch a.Kind {
	case ast.AtomConjunction:
		// ¬(A∧B) → ¬A∨¬B
		return mapAtoms(a, ast.AtomDisjunction, pushNegative)
	case ast.AtomDisjunction:
		// ¬(A∨B) → ¬A∧¬B
		return mapAtoms(a, ast.AtomConjunction, pushNegative)
	case ast.AtomNegation:
		// ¬¬A → A
		return pushPositive(*a.Negated)
	case ast.AtomUnification:
		return ast.InputAtom{}, xerrors.New(xerrors.KindStratification,
			"negated unification is not allowed (NegatedUnification)")
	case ast.AtomPredicate:
		// Predicates absorb negation into their boolean expression.
		return ast.InputAtom{Kind: ast.AtomPredicate, PredicateExpr: "not (" + a.PredicateExpr + ")"}, nil
	default:
		// AttrTriple, Rule, Relation: the NNF invariant allows Negation to
		// wrap only these leaf kinds.
		leaf := a
		return ast.InputAtom{Kind: ast.AtomNegation, Negated: &leaf}, nil
	}
}

func mapAtoms(a ast.InputAtom, kind ast.AtomKind, f func(ast.InputAtom) (ast.InputAtom, error)) (ast.InputAtom, error) {
	out := make([]ast.InputAtom, 0, len(a.Atoms))
	for _, child := range a.Atoms {
		c, err := f(child)
		if err != nil {
			return ast.InputAtom{}, err
		}
		out = append(out, c)
	}
	return ast.InputAtom{Kind: kind, Atoms: out}, nil
}

// IsNNF reports whether a satisfies the NNF invariant (spec.md §8): no
// Negation node wraps a Conjunction, Disjunction, or Negation.
func IsNNF(a ast.InputAtom) bool {
	switch a.Kind {
	case ast.AtomNegation:
		switch a.Negated.Kind {
		case ast.AtomConjunction, ast.AtomDisjunction, ast.AtomNegation:
			return false
		}
		return IsNNF(*a.Negated)
	case ast.AtomConjunction, ast.AtomDisjunction:
		for _, c := range a.Atoms {
			if !IsNNF(c) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
