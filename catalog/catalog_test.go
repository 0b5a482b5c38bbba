package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chiefnoah/cozo/kvstore"
	"github.com/chiefnoah/cozo/kvstore/memkv"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	eng := memkv.New(kvstore.Config{Table: kvstore.TableTriples})
	return New(eng)
}

func TestPutAllocatesFreshId(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t)

	a, err := c.Put(ctx, Attr{Name: "person/name", ValType: ValString, Cardinality: CardinalityOne}, false)
	require.NoError(t, err)
	require.Equal(t, uint64(1), uint64(a.Id))

	b, err := c.Put(ctx, Attr{Name: "person/age", ValType: ValInt, Cardinality: CardinalityOne}, false)
	require.NoError(t, err)
	require.Equal(t, uint64(2), uint64(b.Id))
}

func TestPutSameNameTwiceReusesId(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t)

	a, err := c.Put(ctx, Attr{Name: "parent/child", ValType: ValRef, Cardinality: CardinalityMany}, false)
	require.NoError(t, err)

	b, err := c.Put(ctx, Attr{Name: "parent/child", ValType: ValRef, Cardinality: CardinalityMany, WithHistory: true}, false)
	require.NoError(t, err)
	require.Equal(t, a.Id, b.Id)
	require.True(t, b.WithHistory)
}

func TestPutConflictWhenDataPresent(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t)

	_, err := c.Put(ctx, Attr{Name: "x", ValType: ValInt, Cardinality: CardinalityOne}, false)
	require.NoError(t, err)

	_, err = c.Put(ctx, Attr{Name: "x", ValType: ValString, Cardinality: CardinalityOne}, true)
	require.Error(t, err)
}

func TestRetractHidesFromLookupButKeepsId(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t)

	a, err := c.Put(ctx, Attr{Name: "y", ValType: ValBool, Cardinality: CardinalityOne}, false)
	require.NoError(t, err)

	require.NoError(t, c.Retract(ctx, a.Id))

	_, ok := c.ByName("y")
	require.False(t, ok)

	got, ok := c.ByID(a.Id)
	require.True(t, ok)
	require.True(t, got.Retracted)
}

func TestAllLiveSortedByName(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t)
	_, _ = c.Put(ctx, Attr{Name: "zzz", ValType: ValInt, Cardinality: CardinalityOne}, false)
	_, _ = c.Put(ctx, Attr{Name: "aaa", ValType: ValInt, Cardinality: CardinalityOne}, false)

	all := c.AllLive()
	require.Len(t, all, 2)
	require.Equal(t, "aaa", all[0].Name)
	require.Equal(t, "zzz", all[1].Name)
}
