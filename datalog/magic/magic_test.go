package magic

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/datalog/normalize"
)

func TestAllFreeAdornmentString(t *testing.T) {
	require.Equal(t, "fff", AllFree(3).String())
}

func TestAdornedPredicateNaming(t *testing.T) {
	p := AdornedPredicate{Name: "anc", Adorn: Adornment{Bound, Free}}
	require.Equal(t, "anc^bf", p.Key())
	require.Equal(t, ast.Symbol("anc^bf"), p.SpecializedName())
	require.Equal(t, ast.Symbol("magic_anc^bf"), p.MagicName())
	require.NotZero(t, p.Hash())
}

// ?(x) :- y = _, anc(x, y).  anc(x,y) :- anc(x,z), anc(z,y).  anc(x,y) :- edge(x,y).
//
// The entry binds y through a Unification before calling anc, so the entry
// call site is adorned "fb". Inside anc^fb the first recursive call anc(x,z)
// has both arguments free ("ff"), and inside anc^ff the second call
// anc(z,y) sees z already bound by the first, giving "bf": anc^bf should get
// both rewritten rules and a seed rule pushing z into it.
func TestRewriteProducesSeedForRecursiveCall(t *testing.T) {
	prog := &normalize.NormalizedProgram{
		Prog: map[ast.Symbol][]normalize.NormalizedRule{
			ast.EntrySymbol: {{
				Head: []ast.Symbol{"x"},
				Body: []normalize.NormalFormAtom{
					{Kind: normalize.NFUnification, Left: "y", Right: ast.Term{}},
					{Kind: normalize.NFRule, Name: "anc", Args: []ast.Var{"x", "y"}},
				},
			}},
			"anc": {
				{
					Head: []ast.Symbol{"x", "y"},
					Body: []normalize.NormalFormAtom{
						{Kind: normalize.NFRule, Name: "anc", Args: []ast.Var{"x", "z"}},
						{Kind: normalize.NFRule, Name: "anc", Args: []ast.Var{"z", "y"}},
					},
				},
				{
					Head: []ast.Symbol{"x", "y"},
					Body: []normalize.NormalFormAtom{
						{Kind: normalize.NFRelation, Name: "edge", Args: []ast.Var{"x", "y"}},
					},
				},
			},
		},
		Algo:       map[ast.Symbol]ast.AlgoCall{},
		ConstRules: map[ast.Symbol][]normalize.Tuple{},
	}

	rewritten, err := Rewrite(prog)
	require.NoError(t, err)
	require.Equal(t, ast.EntrySymbol, rewritten.Entry.Name)
	require.Equal(t, AllFree(1).String(), rewritten.Entry.Adorn.String())

	ancBF := AdornedPredicate{Name: "anc", Adorn: Adornment{Bound, Free}}
	rules, ok := rewritten.Rules[ancBF.Key()]
	require.True(t, ok, "expected rewritten rules for %s", ancBF.Key())
	require.Len(t, rules, 2)

	require.NotEmpty(t, rewritten.Seeds)
	found := false
	for _, s := range rewritten.Seeds {
		if s.Magic.Key() == ancBF.Key() {
			found = true
		}
	}
	require.True(t, found, "expected a seed rule targeting %s", ancBF.Key())
}

func TestRewriteSkipsConstRulePredicates(t *testing.T) {
	prog := &normalize.NormalizedProgram{
		Prog: map[ast.Symbol][]normalize.NormalizedRule{
			ast.EntrySymbol: {{
				Head: []ast.Symbol{"x"},
				Body: []normalize.NormalFormAtom{
					{Kind: normalize.NFRule, Name: "seeded", Args: []ast.Var{"x"}},
				},
			}},
			"seeded": {{
				Head: []ast.Symbol{"x"},
				Body: []normalize.NormalFormAtom{
					{Kind: normalize.NFRelation, Name: "consts", Args: []ast.Var{"x"}},
				},
			}},
		},
		Algo:       map[ast.Symbol]ast.AlgoCall{},
		ConstRules: map[ast.Symbol][]normalize.Tuple{"consts": {}},
	}
	rewritten, err := Rewrite(prog)
	require.NoError(t, err)
	for _, s := range rewritten.Seeds {
		require.NotEqual(t, ast.Symbol("consts"), s.Magic.Name)
	}
}
