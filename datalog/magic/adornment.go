// Package magic implements the magic-set rewrite (spec.md §4.7): binding
// patterns ("adornments") are computed by left-to-right sideways
// information passing from the entry predicate, then used to specialize
// each predicate per distinct binding pattern and to synthesize magic
// predicates and seed rules that push those bindings into recursive rule
// bodies.
package magic

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/chiefnoah/cozo/datalog/ast"
)

// BoundState is one argument position's binding state under an adornment.
type BoundState byte

const (
	Bound BoundState = 'b'
	Free  BoundState = 'f'
)

// Adornment is the ordered bound/free pattern over one predicate's
// argument positions.
type Adornment []BoundState

func (a Adornment) String() string {
	var sb strings.Builder
	for _, s := range a {
		sb.WriteByte(byte(s))
	}
	return sb.String()
}

// AllFree returns the "all free" adornment of arity n — the entry
// predicate's adornment (spec.md §4.7: "Entry predicate is `?` ... its
// adornment is 'all free'").
func AllFree(n int) Adornment {
	a := make(Adornment, n)
	for i := range a {
		a[i] = Free
	}
	return a
}

// AdornedPredicate names one binding-pattern-specialized version of a
// predicate.
type AdornedPredicate struct {
	Name ast.Symbol
	Adorn Adornment
}

// Key is the human-readable adorned name `p^bf`, unique per (predicate,
// adornment) pair.
func (p AdornedPredicate) Key() string { return string(p.Name) + "^" + p.Adorn.String() }

// SpecializedName is the name used to reference this adorned version of
// the predicate within the rewritten program's bodies.
func (p AdornedPredicate) SpecializedName() ast.Symbol { return ast.Symbol(p.Key()) }

// MagicName is the name of the magic predicate carrying this adorned
// version's bound columns (spec.md §4.7: "introduce magic predicate
// magic_p^α").
func (p AdornedPredicate) MagicName() ast.Symbol { return ast.Symbol("magic_" + p.Key()) }

// Hash returns a content hash of the adorned key, used as the fast lookup
// key for the rewritten-rule map and for runtime.ProgramCache entries
// (SPEC_FULL.md domain stack: xxhash for "magic predicate keys").
func (p AdornedPredicate) Hash() uint64 { return xxhash.Sum64String(p.Key()) }

// computeAdornment reports which of args are already in bound, in order.
func computeAdornment(args []ast.Var, bound map[ast.Var]bool) Adornment {
	a := make(Adornment, len(args))
	for i, v := range args {
		if bound[v] {
			a[i] = Bound
		} else {
			a[i] = Free
		}
	}
	return a
}

// projectBound returns the subset of args at bound positions of adorn, in
// order — "bound(X̄)" in spec.md §4.7's notation.
func projectBound(args []ast.Var, adorn Adornment) []ast.Var {
	out := make([]ast.Var, 0, len(args))
	for i, v := range args {
		if i < len(adorn) && adorn[i] == Bound {
			out = append(out, v)
		}
	}
	return out
}
