package triple

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chiefnoah/cozo/catalog"
	"github.com/chiefnoah/cozo/encoding"
	"github.com/chiefnoah/cozo/kvstore"
	"github.com/chiefnoah/cozo/kvstore/memkv"
)

func newTestStore(t *testing.T) (*Store, *catalog.Catalog) {
	t.Helper()
	ctx := context.Background()
	eng := memkv.New(kvstore.Config{Table: kvstore.TableTriples})
	cat := catalog.New(eng)
	require.NoError(t, cat.Load(ctx))
	s := New(eng, cat, nil)
	require.NoError(t, s.Load(ctx))
	return s, cat
}

func TestAssertRetractValidityWindow(t *testing.T) {
	ctx := context.Background()
	s, cat := newTestStore(t)

	attr, err := cat.Put(ctx, catalog.Attr{Name: "person/name", ValType: catalog.ValString, Cardinality: catalog.CardinalityOne}, false)
	require.NoError(t, err)

	e := s.NewEntityId()

	tx := s.Begin()
	tx.Assert(e, attr.Id, encoding.StringValue("alice"), 1000)
	_, _, err = tx.Commit(ctx, "initial assert", time.Now())
	require.NoError(t, err)

	tx2 := s.Begin()
	tx2.Retract(e, attr.Id, encoding.StringValue("alice"), 2000)
	_, _, err = tx2.Commit(ctx, "retract", time.Now())
	require.NoError(t, err)

	before, err := s.GetAsOf(ctx, e, attr.Id, 500)
	require.NoError(t, err)
	require.Empty(t, before)

	mid, err := s.GetAsOf(ctx, e, attr.Id, 1500)
	require.NoError(t, err)
	require.Len(t, mid, 1)
	require.Equal(t, "alice", mid[0].S)

	after, err := s.GetAsOf(ctx, e, attr.Id, 2500)
	require.NoError(t, err)
	require.Empty(t, after)
}

func TestCardinalityManyHoldsMultipleValues(t *testing.T) {
	ctx := context.Background()
	s, cat := newTestStore(t)

	attr, err := cat.Put(ctx, catalog.Attr{Name: "person/alias", ValType: catalog.ValString, Cardinality: catalog.CardinalityMany}, false)
	require.NoError(t, err)

	e := s.NewEntityId()
	tx := s.Begin()
	tx.Assert(e, attr.Id, encoding.StringValue("bob"), 100)
	tx.Assert(e, attr.Id, encoding.StringValue("bobby"), 100)
	_, _, err = tx.Commit(ctx, "two aliases", time.Now())
	require.NoError(t, err)

	vals, err := s.GetLatest(ctx, e, attr.Id)
	require.NoError(t, err)
	require.Len(t, vals, 2)

	tx2 := s.Begin()
	tx2.Retract(e, attr.Id, encoding.StringValue("bob"), 200)
	_, _, err = tx2.Commit(ctx, "drop one alias", time.Now())
	require.NoError(t, err)

	remaining, err := s.GetLatest(ctx, e, attr.Id)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "bobby", remaining[0].S)
}

func TestUniqueConstraintRejectsDuplicateValue(t *testing.T) {
	ctx := context.Background()
	s, cat := newTestStore(t)

	attr, err := cat.Put(ctx, catalog.Attr{
		Name: "person/ssn", ValType: catalog.ValString,
		Cardinality: catalog.CardinalityOne, Indexing: catalog.IndexUnique,
	}, false)
	require.NoError(t, err)

	e1, e2 := s.NewEntityId(), s.NewEntityId()

	tx := s.Begin()
	tx.Assert(e1, attr.Id, encoding.StringValue("123-45-6789"), 100)
	_, _, err = tx.Commit(ctx, "first", time.Now())
	require.NoError(t, err)

	tx2 := s.Begin()
	tx2.Assert(e2, attr.Id, encoding.StringValue("123-45-6789"), 200)
	_, _, err = tx2.Commit(ctx, "duplicate", time.Now())
	require.Error(t, err)
}

func TestTempIdResolverConsistentAcrossTriples(t *testing.T) {
	ctx := context.Background()
	s, cat := newTestStore(t)

	nameAttr, err := cat.Put(ctx, catalog.Attr{Name: "person/name", ValType: catalog.ValString, Cardinality: catalog.CardinalityOne}, false)
	require.NoError(t, err)
	friendAttr, err := cat.Put(ctx, catalog.Attr{Name: "person/friend", ValType: catalog.ValRef, Cardinality: catalog.CardinalityMany}, false)
	require.NoError(t, err)

	tA := encoding.NewTempId(1)
	tB := encoding.NewTempId(2)

	tx := s.Begin()
	tx.AssertTemp(tA, nameAttr.Id, encoding.StringValue("alice"), 100)
	tx.AssertTemp(tB, nameAttr.Id, encoding.StringValue("bob"), 100)
	tx.AssertTemp(tA, friendAttr.Id, encoding.RefValue(tB), 100)
	_, results, err := tx.Commit(ctx, "two temp entities", time.Now())
	require.NoError(t, err)
	require.Len(t, results, 2)

	permA := tx.TempIds.Resolve(tA)
	permB := tx.TempIds.Resolve(tB)
	require.NotEqual(t, permA, permB)

	friends, err := s.GetLatest(ctx, permA, friendAttr.Id)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	require.Equal(t, permB, friends[0].Ref)
}
