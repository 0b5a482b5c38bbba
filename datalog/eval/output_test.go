package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/encoding"
)

func intRows(vals ...int64) []encoding.Tuple {
	out := make([]encoding.Tuple, len(vals))
	for i, v := range vals {
		out[i] = encoding.Tuple{encoding.IntValue(v)}
	}
	return out
}

func TestSorterAscending(t *testing.T) {
	s := Sorter{Keys: []ast.SortKey{{Var: "x", Dir: ast.Ascending}}}
	rows := intRows(3, 1, 2)
	out := s.Sort(rows, []ast.Var{"x"})
	require.Equal(t, intRows(1, 2, 3), out)
}

func TestSorterDescending(t *testing.T) {
	s := Sorter{Keys: []ast.SortKey{{Var: "x", Dir: ast.Descending}}}
	rows := intRows(3, 1, 2)
	out := s.Sort(rows, []ast.Var{"x"})
	require.Equal(t, intRows(3, 2, 1), out)
}

func TestSorterEmptyIsNoop(t *testing.T) {
	s := Sorter{}
	rows := intRows(3, 1, 2)
	out := s.Sort(rows, []ast.Var{"x"})
	require.Equal(t, rows, out)
}

func TestPlanOutputNumToTakePushesDownWithoutSort(t *testing.T) {
	limit, offset := 5, 2
	p := PlanOutput{Limit: &limit, Offset: &offset}
	n, ok := p.NumToTake()
	require.True(t, ok)
	require.Equal(t, 7, n)
}

func TestPlanOutputNumToTakeBlockedBySort(t *testing.T) {
	limit := 5
	p := PlanOutput{Sort: []ast.SortKey{{Var: "x"}}, Limit: &limit}
	_, ok := p.NumToTake()
	require.False(t, ok)
}

func TestPlanOutputApplySortThenOffsetThenLimit(t *testing.T) {
	limit, offset := 2, 1
	p := PlanOutput{
		Sort:   []ast.SortKey{{Var: "x", Dir: ast.Ascending}},
		Limit:  &limit,
		Offset: &offset,
	}
	rows := intRows(5, 1, 4, 2, 3)
	out := p.Apply(rows, []ast.Var{"x"})
	require.Equal(t, intRows(2, 3), out)
}

func TestPlanOutputApplyOffsetBeyondLengthYieldsEmpty(t *testing.T) {
	offset := 10
	p := PlanOutput{Offset: &offset}
	out := p.Apply(intRows(1, 2), []ast.Var{"x"})
	require.Empty(t, out)
}
