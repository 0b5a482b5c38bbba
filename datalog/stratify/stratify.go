// Package stratify partitions a NormalizedProgram's predicates into strata
// respecting negation (spec.md §4.6): build the predicate dependency graph,
// find strongly connected components (Tarjan), reject any SCC containing a
// negative edge, and order the SCCs from leaves to the entry predicate.
package stratify

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/datalog/normalize"
	"github.com/chiefnoah/cozo/internal/xerrors"
)

// Edge records one dependency R → S found in R's body, tagged negative if
// it occurs under negation or inside a non-associative aggregation's input
// (spec.md §4.6/§9 open question (b)).
type Edge struct {
	From     ast.Symbol
	To       ast.Symbol
	Negative bool
}

// Graph is the predicate dependency graph: adjacency stored as
// map<predicate, set<predicate>> per spec.md §9's design note, plus the
// parallel edge list needed to classify negative edges during SCC
// rejection.
type Graph struct {
	nodes []ast.Symbol
	index map[ast.Symbol]int
	adj   [][]int // node index -> list of node indices it depends on
	edges map[[2]int]bool // (from,to) -> true if any such edge is negative
}

// BuildGraph walks every rule body of prog and records one edge per
// intensional subgoal (Rule reference); algo-backed and const-rule
// predicates contribute no edges (they are EDB leaves).
func BuildGraph(prog *normalize.NormalizedProgram) *Graph {
	g := &Graph{index: make(map[ast.Symbol]int), edges: make(map[[2]int]bool)}
	nodeOf := func(s ast.Symbol) int {
		if i, ok := g.index[s]; ok {
			return i
		}
		i := len(g.nodes)
		g.nodes = append(g.nodes, s)
		g.index[s] = i
		g.adj = append(g.adj, nil)
		return i
	}
	for name := range prog.Algo {
		nodeOf(name)
	}
	for name := range prog.ConstRules {
		nodeOf(name)
	}
	for name, rules := range prog.Prog {
		from := nodeOf(name)
		for _, rule := range rules {
			nonAssocAggr := ruleHasNonAssociativeAggr(rule)
			for _, atom := range rule.Body {
				switch atom.Kind {
				case normalize.NFRule:
					to := nodeOf(atom.Name)
					g.adj[from] = append(g.adj[from], to)
					if nonAssocAggr {
						g.edges[[2]int{from, to}] = true
					}
				case normalize.NFNegatedRule:
					to := nodeOf(atom.Name)
					g.adj[from] = append(g.adj[from], to)
					g.edges[[2]int{from, to}] = true
				}
			}
		}
	}
	return g
}

func ruleHasNonAssociativeAggr(r normalize.NormalizedRule) bool {
	for _, a := range r.Aggr {
		if a != nil && !a.Spec.Associative() {
			return true
		}
	}
	return false
}

// Stratum is one maximal SCC of mutually-recursive predicates, evaluated to
// fixpoint together (spec.md glossary).
type Stratum struct {
	Predicates []ast.Symbol
}

// Stratify computes strata in leaf-to-entry topological order. Tarjan's SCC
// already yields components in reverse topological order (each component
// discovered after everything it depends on), so the raw output needs no
// further reordering.
func Stratify(prog *normalize.NormalizedProgram) ([]Stratum, error) {
	g := BuildGraph(prog)
	sccs := tarjanSCC(g)

	componentOf := make([]int, len(g.nodes))
	for ci, comp := range sccs {
		for _, n := range comp {
			componentOf[n] = ci
		}
	}

	// A negative edge landing inside the SAME component is a cycle through
	// negation: unstratifiable (spec.md §4.6).
	visited := roaring.New()
	for from := range g.adj {
		for _, to := range g.adj[from] {
			if !g.edges[[2]int{from, to}] {
				continue
			}
			if componentOf[from] == componentOf[to] {
				visited.Add(uint32(componentOf[from]))
			}
		}
	}
	if !visited.IsEmpty() {
		bad := visited.ToArray()
		names := make([]string, 0, len(bad))
		for _, ci := range bad {
			for _, n := range sccs[ci] {
				names = append(names, string(g.nodes[n]))
			}
		}
		sort.Strings(names)
		return nil, xerrors.New(xerrors.KindStratification,
			"cycle through negation involving predicates %v", names)
	}

	strata := make([]Stratum, len(sccs))
	for i, comp := range sccs {
		preds := make([]ast.Symbol, len(comp))
		for j, n := range comp {
			preds[j] = g.nodes[n]
		}
		sort.Slice(preds, func(a, b int) bool { return preds[a] < preds[b] })
		strata[i] = Stratum{Predicates: preds}
	}
	return strata, nil
}
