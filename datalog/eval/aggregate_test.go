package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/encoding"
)

func bindingsOf(group int64, value int64) Bindings {
	return Bindings{"group": encoding.IntValue(group), "value": encoding.IntValue(value)}
}

func TestFoldAggregatesCount(t *testing.T) {
	head := []ast.Symbol{"group", "n"}
	aggr := []*ast.AggrCall{nil, {Spec: ast.AggrCount}}
	bs := []Bindings{bindingsOf(1, 10), bindingsOf(1, 20), bindingsOf(2, 30)}

	out := foldAggregates(head, aggr, bs)
	require.Len(t, out, 2)

	byGroup := map[int64]int64{}
	for _, row := range out {
		byGroup[row[0].I] = row[1].I
	}
	require.Equal(t, int64(2), byGroup[1])
	require.Equal(t, int64(1), byGroup[2])
}

func TestFoldAggregatesSum(t *testing.T) {
	head := []ast.Symbol{"group", "total"}
	aggr := []*ast.AggrCall{nil, {Spec: ast.AggrSum}}
	bs := []Bindings{bindingsOf(1, 10), bindingsOf(1, 20)}

	out := foldAggregates(head, aggr, bs)
	require.Len(t, out, 1)
	require.Equal(t, int64(30), out[0][1].I)
}

func TestFoldAggregatesMinMax(t *testing.T) {
	head := []ast.Symbol{"group", "lo", "hi"}
	aggr := []*ast.AggrCall{nil, {Spec: ast.AggrMin}, {Spec: ast.AggrMax}}
	bs := []Bindings{
		{"group": encoding.IntValue(1), "lo": encoding.IntValue(5), "hi": encoding.IntValue(5)},
		{"group": encoding.IntValue(1), "lo": encoding.IntValue(2), "hi": encoding.IntValue(2)},
		{"group": encoding.IntValue(1), "lo": encoding.IntValue(9), "hi": encoding.IntValue(9)},
	}

	out := foldAggregates(head, aggr, bs)
	require.Len(t, out, 1)
	require.Equal(t, int64(2), out[0][1].I)
	require.Equal(t, int64(9), out[0][2].I)
}

func TestFoldAggregatesCollectOrdered(t *testing.T) {
	head := []ast.Symbol{"group", "items"}
	aggr := []*ast.AggrCall{nil, {Spec: ast.AggrCollectOrdered}}
	bs := []Bindings{
		{"group": encoding.IntValue(1), "items": encoding.IntValue(3)},
		{"group": encoding.IntValue(1), "items": encoding.IntValue(1)},
		{"group": encoding.IntValue(1), "items": encoding.IntValue(2)},
	}

	out := foldAggregates(head, aggr, bs)
	require.Len(t, out, 1)
	list := out[0][1].List
	require.Len(t, list, 3)
	require.Equal(t, int64(1), list[0].I)
	require.Equal(t, int64(2), list[1].I)
	require.Equal(t, int64(3), list[2].I)
}

func TestHasAggr(t *testing.T) {
	require.False(t, hasAggr([]*ast.AggrCall{nil, nil}))
	require.True(t, hasAggr([]*ast.AggrCall{nil, {Spec: ast.AggrCount}}))
}

func TestTupleSetEqual(t *testing.T) {
	a := []encoding.Tuple{{encoding.IntValue(1)}, {encoding.IntValue(2)}}
	b := []encoding.Tuple{{encoding.IntValue(2)}, {encoding.IntValue(1)}}
	require.True(t, tupleSetEqual(a, b))

	c := []encoding.Tuple{{encoding.IntValue(1)}, {encoding.IntValue(3)}}
	require.False(t, tupleSetEqual(a, c))
}
