// Package ast defines the tree an InputProgram takes after parsing (spec.md
// §3/§4.4). The surface grammar itself is out of scope (spec.md §1); this
// package is the shape the PEG-style parser is assumed to produce, and the
// shape every later pass (normalize, stratify, magic, eval) consumes.
package ast

import "github.com/chiefnoah/cozo/encoding"

// Symbol names a rule/predicate; MagicSymbol additionally names an
// adornment-specialized predicate produced by datalog/magic.
type Symbol string

// EntrySymbol is the reserved name of the entry rule (spec.md §3: "Entry
// rule is named `?`").
const EntrySymbol Symbol = "?"

// Var is a logic variable occurring in an atom.
type Var string

// Term is either a bound Var or a literal constant; exactly one of Var/Const
// is meaningful, discriminated by IsConst.
type Term struct {
	Var     Var
	Const   encoding.DataValue
	IsConst bool
}

func VarTerm(v Var) Term                     { return Term{Var: v} }
func ConstTerm(v encoding.DataValue) Term     { return Term{Const: v, IsConst: true} }

// AggregationSpec names a built-in aggregation function applied to one head
// column (spec.md §4.8). Associative/commutative aggregations may run
// inline in a recursive stratum; others (Associative==false) are isolated
// to their own downstream stratum.
type AggregationSpec string

const (
	AggrCount          AggregationSpec = "count"
	AggrSum            AggregationSpec = "sum"
	AggrMin            AggregationSpec = "min"
	AggrMax            AggregationSpec = "max"
	AggrCollect        AggregationSpec = "collect"
	AggrCollectOrdered AggregationSpec = "collect_ordered" // not associative
)

// Associative reports whether a can be folded incrementally during
// semi-naive fixpoint (spec.md §4.8's "must be associative and
// commutative"); collect_ordered is the named counterexample.
func (a AggregationSpec) Associative() bool { return a != AggrCollectOrdered }

// AggrCall pairs an aggregation with any constant arguments it takes
// (e.g. collect's optional limit).
type AggrCall struct {
	Spec AggregationSpec
	Args []encoding.DataValue
}

// SortDir is ascending or descending for one `sort` option column.
type SortDir int

const (
	Ascending SortDir = iota
	Descending
)

// SortKey is one (var, direction) pair of the `sort` option.
type SortKey struct {
	Var Var
	Dir SortDir
}

// ViewOp names the four view-lifecycle operations a `view:` option may
// request (spec.md §4.9), mutually exclusive with `out`.
type ViewOp string

const (
	ViewCreate   ViewOp = "create"
	ViewRederive ViewOp = "rederive"
	ViewPut      ViewOp = "put"
	ViewRetract  ViewOp = "retract"
)

// ViewOption is the `view: (op, name)` option.
type ViewOption struct {
	Op   ViewOp
	Name string
}

// PullSpec is an opaque pull-expression shaping result rows; its internal
// structure is out of scope (spec.md §1) beyond carrying it through to the
// script boundary unexamined by the core.
type PullSpec struct {
	Raw map[string]interface{}
}

// Options bundles every recognized top-level query option (spec.md §4.4).
type Options struct {
	Timeout *int // seconds, must be positive if set
	Limit   *int
	Offset  *int
	Sort    []SortKey
	Out     *PullSpec
	View    *ViewOption // mutually exclusive with Out
}

// AtomKind discriminates InputAtom's tagged-sum cases (spec.md §3).
type AtomKind int

const (
	AtomAttrTriple AtomKind = iota
	AtomRule
	AtomRelation
	AtomPredicate
	AtomUnification
	AtomConjunction
	AtomDisjunction
	AtomNegation
)

// InputAtom is the tagged sum making up a rule body, pre-normalization.
// Exactly the fields relevant to Kind are meaningful.
type InputAtom struct {
	Kind AtomKind

	// AtomAttrTriple: e,a,v may each be a Var or a Const term; Vld
	// optionally fixes the triple's read validity. A nil Vld reads at
	// encoding.ValidityMax; the rule's own Vld is not applied to its atoms.
	Entity Term
	Attr   string // attribute name, resolved to AttrId at compile time
	Value  Term
	Vld    *encoding.Validity

	// AtomRule / AtomRelation: a reference to another predicate by name
	// with an ordered argument list.
	Name Symbol
	Args []Term

	// AtomPredicate: an opaque boolean expression over already-bound
	// variables (string form; evaluated by datalog/eval's predicate
	// evaluator, out of scope for this package's structure).
	PredicateExpr string

	// AtomUnification: binds Left to Right; Right may be a Var (aliasing)
	// or a Const.
	Left  Var
	Right Term

	// AtomConjunction / AtomDisjunction: nested sub-atoms.
	Atoms []InputAtom

	// AtomNegation: the single negated sub-atom.
	Negated *InputAtom
}

// Rule is one disjunct of a predicate's definition (spec.md §3: "each rule
// name may occur multiple times"). Aggr has one entry per head column; nil
// means "no aggregation, a plain grouping/join variable."
type Rule struct {
	Head []Symbol
	Aggr []*AggrCall
	Body []InputAtom
	Vld  encoding.Validity
}

// AlgoCall is a built-in "algo" operator invocation, treated as EDB to the
// rewriter (spec.md §4.7).
type AlgoCall struct {
	Name   string
	Args   []Term
	Opts   map[string]encoding.DataValue
	Arity  int
}

// RulesOrAlgo is a predicate definition: exactly one of Rules (one or more
// disjuncts) or Algo is set, never both (spec.md §4.4: "must be consistent
// in being either rules or a single algo-apply").
type RulesOrAlgo struct {
	Rules []Rule
	Algo  *AlgoCall
}

func (r RulesOrAlgo) IsAlgo() bool { return r.Algo != nil }

// InputProgram is the parser's output (spec.md §3).
type InputProgram struct {
	Prog       map[Symbol]RulesOrAlgo
	ConstRules map[Symbol][]encoding.Tuple
	Out        Options
}

// EntryArity returns the entry rule's head length, used to validate
// out/view options before rewrite. An algo-apply entry's arity is not
// knowable here, so it reports false; Db.Query takes that arity from the
// rows the algo operator produces (see DESIGN.md's Open Questions).
func (p InputProgram) EntryArity() (int, bool) {
	ra, ok := p.Prog[EntrySymbol]
	if !ok || ra.IsAlgo() || len(ra.Rules) == 0 {
		return 0, false
	}
	return len(ra.Rules[0].Head), true
}
