package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/encoding"
)

func leafAtom(name string) ast.InputAtom {
	return ast.InputAtom{Kind: ast.AtomRule, Name: ast.Symbol(name), Args: []ast.Term{ast.VarTerm(ast.Var("x"))}}
}

// genAtom builds a random boolean-tree of InputAtoms (Conjunction,
// Disjunction, Negation, and Rule leaves) for the NNF/DNF property tests.
func genAtom(t *rapid.T, depth int) ast.InputAtom {
	if depth <= 0 {
		return leafAtom(rapid.StringMatching(`[a-z]{1,4}`).Draw(t, "leaf"))
	}
	switch rapid.IntRange(0, 2).Draw(t, "kind") {
	case 0:
		return ast.InputAtom{Kind: ast.AtomConjunction, Atoms: []ast.InputAtom{
			genAtom(t, depth-1), genAtom(t, depth-1),
		}}
	case 1:
		return ast.InputAtom{Kind: ast.AtomDisjunction, Atoms: []ast.InputAtom{
			genAtom(t, depth-1), genAtom(t, depth-1),
		}}
	default:
		inner := genAtom(t, depth-1)
		return ast.InputAtom{Kind: ast.AtomNegation, Negated: &inner}
	}
}

// wrappedBody builds a random rule body the way NormalizeProgram always
// does: a top-level Conjunction of randomly-shaped sub-atoms, so its NNF is
// guaranteed to stay a Conjunction (never collapse to a bare leaf).
func wrappedBody(t *rapid.T, depth int) ast.InputAtom {
	n := rapid.IntRange(1, 3).Draw(t, "arity")
	atoms := make([]ast.InputAtom, n)
	for i := range atoms {
		atoms[i] = genAtom(t, depth)
	}
	return ast.InputAtom{Kind: ast.AtomConjunction, Atoms: atoms}
}

func TestNNFIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := wrappedBody(rt, 3)
		once, err := NegationNormalForm(a)
		if err != nil {
			// A tree with a Negation over a Unification never occurs here
			// (leaves are Rule atoms), so NegatedUnification can't fire.
			rt.Fatalf("unexpected error: %v", err)
		}
		require.True(t, IsNNF(once), "NNF output must satisfy the NNF invariant")

		twice, err := NegationNormalForm(once)
		require.NoError(t, err)
		require.Equal(t, once, twice, "nnf(nnf(x)) must equal nnf(x)")
	})
}

func TestDNFFlatness(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := wrappedBody(rt, 3)
		nnf, err := NegationNormalForm(a)
		require.NoError(t, err)

		disjuncts, err := DisjunctiveNormalForm(nnf.Atoms)
		require.NoError(t, err)
		require.NotEmpty(t, disjuncts, "DNF of a non-empty body must yield at least one disjunct")
		for _, d := range disjuncts {
			require.NotEmpty(t, d, "each disjunct must carry at least one atom")
		}

		raw, err := dnf(ast.InputAtom{Kind: ast.AtomConjunction, Atoms: nnf.Atoms})
		require.NoError(t, err)
		for _, conj := range raw {
			require.True(t, IsFlatConjunction(conj), "every intermediate disjunct must be flat")
		}
	})
}

func TestNegatedUnificationRejected(t *testing.T) {
	u := ast.InputAtom{Kind: ast.AtomUnification, Left: "x", Right: ast.ConstTerm(encoding.NullValue())}
	neg := ast.InputAtom{Kind: ast.AtomNegation, Negated: &u}
	_, err := NegationNormalForm(neg)
	require.Error(t, err)
}

func TestDNFDistributesOverConjunction(t *testing.T) {
	// (A ∨ B) ∧ C → (A∧C) ∨ (B∧C): exactly two disjuncts. Every leaf uses x,
	// so C's repeated x is hoisted: a(x), _h1 = x, c(_h1) — three atoms each.
	body := []ast.InputAtom{
		{Kind: ast.AtomDisjunction, Atoms: []ast.InputAtom{leafAtom("a"), leafAtom("b")}},
		leafAtom("c"),
	}
	disjuncts, err := DisjunctiveNormalForm(body)
	require.NoError(t, err)
	require.Len(t, disjuncts, 2)
	for _, d := range disjuncts {
		require.Len(t, d, 3)
	}
}
