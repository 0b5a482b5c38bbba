package cozo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chiefnoah/cozo/catalog"
	"github.com/chiefnoah/cozo/config"
	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/encoding"
)

func newTestDb(t *testing.T) *Db {
	t.Helper()
	db, err := OpenInMemory(context.Background(), config.Default(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaPutThenQueryByAttrTriple(t *testing.T) {
	ctx := context.Background()
	db := newTestDb(t)

	schemaRes, err := db.Schema(ctx, SchemaRequest{Attrs: []SchemaAttrReq{
		{Op: "put", Name: "name", ValType: catalog.ValString, Cardinality: catalog.CardinalityOne},
	}})
	require.NoError(t, err)
	require.Len(t, schemaRes, 1)
	require.Equal(t, "put", schemaRes[0].Op)

	txRes, err := db.Tx(ctx, TxRequest{
		Comment: "seed",
		Items: []TxItemReq{
			{Entity: -1, Attr: "name", Value: "alice"},
			{Entity: -2, Attr: "name", Value: "bob"},
		},
	}, time.Now())
	require.NoError(t, err)
	require.Len(t, txRes.Results, 2)

	prog := ast.InputProgram{
		Prog: map[ast.Symbol]ast.RulesOrAlgo{
			ast.EntrySymbol: {Rules: []ast.Rule{{
				Head: []ast.Symbol{"e", "n"},
				Aggr: []*ast.AggrCall{nil, nil},
				Body: []ast.InputAtom{
					{Kind: ast.AtomAttrTriple, Entity: ast.VarTerm("e"), Attr: "name", Value: ast.VarTerm("n")},
				},
			}}},
		},
		ConstRules: map[ast.Symbol][]encoding.Tuple{},
	}

	res, err := db.Query(ctx, prog)
	require.NoError(t, err)
	require.Equal(t, []string{"e", "n"}, res.Headers)
	require.Len(t, res.Rows, 2)

	names := map[string]bool{}
	for _, row := range res.Rows {
		names[row[1].(string)] = true
	}
	require.True(t, names["alice"])
	require.True(t, names["bob"])
}

func TestQueryRejectsViewCreateWhenAlreadyExists(t *testing.T) {
	ctx := context.Background()
	db := newTestDb(t)
	_, err := db.Views.Create(ctx, "dup", 1, false)
	require.NoError(t, err)

	prog := ast.InputProgram{
		Prog: map[ast.Symbol]ast.RulesOrAlgo{
			ast.EntrySymbol: {Rules: []ast.Rule{{
				Head: []ast.Symbol{"x"},
				Aggr: []*ast.AggrCall{nil},
				Body: []ast.InputAtom{
					{Kind: ast.AtomUnification, Left: "x", Right: ast.ConstTerm(encoding.IntValue(1))},
				},
			}}},
		},
		ConstRules: map[ast.Symbol][]encoding.Tuple{},
		Out:        ast.Options{View: &ast.ViewOption{Op: ast.ViewCreate, Name: "dup"}},
	}

	_, err = db.Query(ctx, prog)
	require.Error(t, err)
}

func TestSysListSchemaAndListRelations(t *testing.T) {
	ctx := context.Background()
	db := newTestDb(t)
	_, err := db.Schema(ctx, SchemaRequest{Attrs: []SchemaAttrReq{
		{Op: "put", Name: "age", ValType: catalog.ValInt, Cardinality: catalog.CardinalityOne},
	}})
	require.NoError(t, err)
	_, err = db.Views.Create(ctx, "people", 2, false)
	require.NoError(t, err)

	schemaRes, err := db.Sys(ctx, SysRequest{Op: "ListSchema"})
	require.NoError(t, err)
	require.Equal(t, "OK", string(schemaRes.Status))
	require.Len(t, schemaRes.Rows, 1)

	relRes, err := db.Sys(ctx, SysRequest{Op: "ListRelations"})
	require.NoError(t, err)
	require.Len(t, relRes.Rows, 1)
}

func TestSysKillUnknownQueryReturnsNotFound(t *testing.T) {
	db := newTestDb(t)
	res, err := db.Sys(context.Background(), SysRequest{Op: "KillRunning", KillId: 9999})
	require.NoError(t, err)
	require.Equal(t, "NOT_FOUND", string(res.Status))
}

func TestNewSessionTracksLiveCount(t *testing.T) {
	db := newTestDb(t)
	require.Equal(t, int64(0), db.Sessions.Count())
	s := db.NewSession()
	require.Equal(t, int64(1), db.Sessions.Count())
	s.Close()
	require.Equal(t, int64(0), db.Sessions.Count())
}
