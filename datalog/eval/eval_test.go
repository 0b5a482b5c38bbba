package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/datalog/magic"
	"github.com/chiefnoah/cozo/datalog/normalize"
	"github.com/chiefnoah/cozo/encoding"
)

type fakeTriples struct {
	names map[encoding.EntityId]string
}

func (f *fakeTriples) GetAsOf(_ context.Context, e encoding.EntityId, _ encoding.AttrId, _ encoding.Validity) ([]encoding.DataValue, error) {
	n, ok := f.names[e]
	if !ok {
		return nil, nil
	}
	return []encoding.DataValue{encoding.StringValue(n)}, nil
}

func (f *fakeTriples) ScanAttr(_ context.Context, _ encoding.AttrId, _ encoding.Validity, fn func(encoding.EntityId, encoding.DataValue) error) error {
	for e, n := range f.names {
		if err := fn(e, encoding.StringValue(n)); err != nil {
			return err
		}
	}
	return nil
}

type fakeAttrs struct{}

func (fakeAttrs) ResolveAttr(name string) (encoding.AttrId, bool) {
	if name == "name" {
		return 1, true
	}
	return 0, false
}

type fakeViews struct {
	relations map[string][]encoding.Tuple
}

func (f fakeViews) ScanView(name string) ([]encoding.Tuple, bool) {
	t, ok := f.relations[name]
	return t, ok
}

func TestEvaluateSimpleJoin(t *testing.T) {
	body := []normalize.NormalFormAtom{
		{Kind: normalize.NFRelation, Name: "person", Args: []ast.Var{"e"}},
		{Kind: normalize.NFUnification, Left: "_h0", Right: ast.ConstTerm(encoding.StringValue("alice"))},
		{Kind: normalize.NFAttrTriple, Entity: "e", Attr: "name", Value: "_h0"},
	}
	prog := &normalize.NormalizedProgram{
		Prog: map[ast.Symbol][]normalize.NormalizedRule{
			ast.EntrySymbol: {{Head: []ast.Symbol{"e"}, Body: body}},
		},
		Algo:       map[ast.Symbol]ast.AlgoCall{},
		ConstRules: map[ast.Symbol][]normalize.Tuple{},
	}
	rewritten, err := magic.Rewrite(prog)
	require.NoError(t, err)

	env := Env{
		Triples: &fakeTriples{names: map[encoding.EntityId]string{1: "alice", 2: "bob"}},
		Attrs:   fakeAttrs{},
		Views: fakeViews{relations: map[string][]encoding.Tuple{
			"person": {{encoding.RefValue(1)}, {encoding.RefValue(2)}},
		}},
		Cancel: NoopCanceler,
	}

	rows, err := Evaluate(context.Background(), rewritten, env)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, encoding.RefValue(1), rows[0][0])
}

// ?(y) :- anc(1, y).  anc(x,y) :- edge(x,y).  anc(x,y) :- edge(x,z), anc(z,y).
//
// Chain 1->2->3->4; expects the query to return the transitive closure of
// node 1 -- {2,3,4} -- exercising the full parse-free pipeline (magic
// rewrite + stratified fixpoint) against genuine recursion
// (spec.md §8 scenario 4).
func TestEvaluateRecursiveTransitiveClosure(t *testing.T) {
	prog := &normalize.NormalizedProgram{
		Prog: map[ast.Symbol][]normalize.NormalizedRule{
			ast.EntrySymbol: {{
				Head: []ast.Symbol{"y"},
				Body: []normalize.NormalFormAtom{
					{Kind: normalize.NFUnification, Left: "_h0", Right: ast.ConstTerm(encoding.IntValue(1))},
					{Kind: normalize.NFRule, Name: "anc", Args: []ast.Var{"_h0", "y"}},
				},
			}},
			"anc": {
				{
					Head: []ast.Symbol{"x", "y"},
					Body: []normalize.NormalFormAtom{
						{Kind: normalize.NFRelation, Name: "edge", Args: []ast.Var{"x", "y"}},
					},
				},
				{
					Head: []ast.Symbol{"x", "y"},
					Body: []normalize.NormalFormAtom{
						{Kind: normalize.NFRelation, Name: "edge", Args: []ast.Var{"x", "z"}},
						{Kind: normalize.NFRule, Name: "anc", Args: []ast.Var{"z", "y"}},
					},
				},
			},
		},
		Algo:       map[ast.Symbol]ast.AlgoCall{},
		ConstRules: map[ast.Symbol][]normalize.Tuple{},
	}
	rewritten, err := magic.Rewrite(prog)
	require.NoError(t, err)

	env := Env{
		Views: fakeViews{relations: map[string][]encoding.Tuple{
			"edge": {
				{encoding.IntValue(1), encoding.IntValue(2)},
				{encoding.IntValue(2), encoding.IntValue(3)},
				{encoding.IntValue(3), encoding.IntValue(4)},
			},
		}},
		Cancel: NoopCanceler,
	}

	rows, err := Evaluate(context.Background(), rewritten, env)
	require.NoError(t, err)

	got := map[int64]bool{}
	for _, r := range rows {
		require.Len(t, r, 1)
		got[r[0].I] = true
	}
	require.Equal(t, map[int64]bool{2: true, 3: true, 4: true}, got)
}
