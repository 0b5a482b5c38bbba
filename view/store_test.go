package view

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chiefnoah/cozo/encoding"
	"github.com/chiefnoah/cozo/kvstore"
	"github.com/chiefnoah/cozo/kvstore/memkv"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	eng := memkv.New(kvstore.Config{Table: kvstore.TableRelations, Cmp: encoding.CompareViewKeys})
	s := New(eng)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Create(ctx, "ancestors", 2, false)
	require.NoError(t, err)

	_, err = s.Create(ctx, "ancestors", 2, false)
	require.Error(t, err)
}

func TestPutRequiresExistingView(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	err := s.Put(ctx, "nope", []encoding.Tuple{{encoding.IntValue(1)}})
	require.Error(t, err)
}

func TestPutScanRetractLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Create(ctx, "edges", 2, false)
	require.NoError(t, err)

	rows := []encoding.Tuple{
		{encoding.IntValue(1), encoding.IntValue(2)},
		{encoding.IntValue(2), encoding.IntValue(3)},
	}
	require.NoError(t, s.Put(ctx, "edges", rows))

	got, err := s.Scan(ctx, "edges")
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.NoError(t, s.Retract(ctx, "edges", []encoding.Tuple{rows[0]}))
	got, err = s.Scan(ctx, "edges")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, rows[1], got[0])
}

func TestPutDuplicateTupleDeduplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.Create(ctx, "r", 1, false)
	require.NoError(t, err)

	row := encoding.Tuple{encoding.IntValue(7)}
	require.NoError(t, s.Put(ctx, "r", []encoding.Tuple{row, row}))

	got, err := s.Scan(ctx, "r")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestRederiveDropsPriorTuples(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.Create(ctx, "r", 1, false)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "r", []encoding.Tuple{{encoding.IntValue(1)}}))

	m, err := s.Rederive(ctx, "r", 1, true)
	require.NoError(t, err)
	require.True(t, m.FromAlgo)

	got, err := s.Scan(ctx, "r")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDropRemovesMetadataAndTuples(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.Create(ctx, "r", 1, false)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "r", []encoding.Tuple{{encoding.IntValue(1)}}))

	require.NoError(t, s.Drop(ctx, "r"))
	_, ok := s.Metadata("r")
	require.False(t, ok)

	err = s.Put(ctx, "r", []encoding.Tuple{{encoding.IntValue(1)}})
	require.Error(t, err)
}

func TestLoadRestoresMetadataAcrossReopen(t *testing.T) {
	ctx := context.Background()
	eng := memkv.New(kvstore.Config{Table: kvstore.TableRelations, Cmp: encoding.CompareViewKeys})
	s1 := New(eng)
	require.NoError(t, s1.Load(ctx))
	_, err := s1.Create(ctx, "r", 3, false)
	require.NoError(t, err)

	s2 := New(eng)
	require.NoError(t, s2.Load(ctx))
	m, ok := s2.Metadata("r")
	require.True(t, ok)
	require.Equal(t, 3, m.Arity)

	_, err = s2.Create(ctx, "after_reload", 1, false)
	require.NoError(t, err)
	_, ok = s2.Metadata("after_reload")
	require.True(t, ok)
}

func TestListRelationsSortedByName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.Create(ctx, "zeta", 1, false)
	require.NoError(t, err)
	_, err = s.Create(ctx, "alpha", 1, false)
	require.NoError(t, err)

	names := make([]string, 0, 2)
	for _, m := range s.ListRelations() {
		names = append(names, m.Name)
	}
	require.Equal(t, []string{"alpha", "zeta"}, names)
}
