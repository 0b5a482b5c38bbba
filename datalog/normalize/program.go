package normalize

import (
	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/encoding"
)

// NormalizedRule is one disjunct of a predicate's definition after NNF+DNF:
// a flat conjunction body with no nested Conjunction/Disjunction and no
// constants or repeated variables inside an atom.
type NormalizedRule struct {
	Head []Symbol
	Aggr []*ast.AggrCall
	Body []NormalFormAtom
	Vld  encoding.Validity
}

// NormalizedProgram is the stratifier/magic-rewriter's input: every
// predicate maps either to a list of normalized rule disjuncts or to an
// algo-apply (treated as EDB, spec.md §4.7).
type NormalizedProgram struct {
	Prog       map[Symbol][]NormalizedRule
	Algo       map[Symbol]ast.AlgoCall
	ConstRules map[Symbol][]Tuple
	Out        ast.Options
}

// Tuple is re-exported so callers of this package don't need to import
// encoding separately for the common case.
type Tuple = encoding.Tuple

// NormalizeProgram runs NNF then DNF over every rule body in prog,
// producing the flat NormalizedProgram the stratifier consumes (spec.md
// §4.5). Algo-backed and const-rule predicates pass through unchanged
// (spec.md §4.7: "treated as EDB, no adornment synthesis").
func NormalizeProgram(prog ast.InputProgram) (*NormalizedProgram, error) {
	out := &NormalizedProgram{
		Prog:       make(map[Symbol][]NormalizedRule),
		Algo:       make(map[Symbol]ast.AlgoCall),
		ConstRules: make(map[Symbol][]Tuple),
		Out:        prog.Out,
	}
	for name, rules := range prog.ConstRules {
		out.ConstRules[name] = rules
	}
	for name, ra := range prog.Prog {
		if ra.IsAlgo() {
			out.Algo[name] = *ra.Algo
			continue
		}
		var normalized []NormalizedRule
		for _, rule := range ra.Rules {
			bodyTop := ast.InputAtom{Kind: ast.AtomConjunction, Atoms: rule.Body}
			nnf, err := NegationNormalForm(bodyTop)
			if err != nil {
				return nil, err
			}
			disjuncts, err := DisjunctiveNormalForm(nnf.Atoms)
			if err != nil {
				return nil, err
			}
			for _, body := range disjuncts {
				normalized = append(normalized, NormalizedRule{
					Head: rule.Head,
					Aggr: rule.Aggr,
					Body: body,
					Vld:  rule.Vld,
				})
			}
		}
		out.Prog[name] = normalized
	}
	return out, nil
}
