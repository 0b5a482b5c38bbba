package eval

import (
	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/encoding"
)

// Bindings is a partial variable assignment accumulated while walking one
// rule body left to right.
type Bindings map[ast.Var]encoding.DataValue

func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Tuple projects vars, in order, out of b. A var with no binding yet (should
// not happen for a fully-joined rule body) projects as NullValue.
func (b Bindings) Tuple(vars []ast.Var) encoding.Tuple {
	out := make(encoding.Tuple, len(vars))
	for i, v := range vars {
		val, ok := b[v]
		if !ok {
			val = encoding.NullValue()
		}
		out[i] = val
	}
	return out
}

func headVars(head []ast.Symbol) []ast.Var {
	out := make([]ast.Var, len(head))
	for i, h := range head {
		out[i] = ast.Var(h)
	}
	return out
}
