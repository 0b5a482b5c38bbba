package eval

import (
	"sort"

	"github.com/chiefnoah/cozo/datalog/magic"
	"github.com/chiefnoah/cozo/datalog/normalize"
	"github.com/chiefnoah/cozo/datalog/stratify"
	"github.com/chiefnoah/cozo/internal/xerrors"
)

// stratum is one maximal SCC of the magic-rewritten program's dependency
// graph, evaluated to joint fixpoint. A recursive adorned predicate p^α
// and the magic predicate magic_q^β it seeds typically land in the same
// stratum (they genuinely are mutually recursive once the magic rewrite
// has run), which is exactly the fixpoint granularity semi-naive
// evaluation needs.
type stratum struct {
	keys []string
}

// stratifyRewritten builds the dependency graph directly over prog's
// adorned-predicate and magic-predicate keys (rather than reusing
// datalog/stratify's pre-rewrite graph, since magic.Rewrite introduces new
// mutual dependencies between a predicate and the magic predicates feeding
// it) and partitions it into strata via datalog/stratify's exported SCC
// routine, rejecting any SCC containing a negative edge exactly as
// datalog/stratify does for the pre-rewrite program (spec.md §4.6).
func stratifyRewritten(prog *magic.Program) ([]stratum, error) {
	index := map[string]int{}
	var nodes []string
	var adj [][]int
	neg := map[[2]int]bool{}

	nodeOf := func(k string) int {
		if i, ok := index[k]; ok {
			return i
		}
		i := len(nodes)
		nodes = append(nodes, k)
		index[k] = i
		adj = append(adj, nil)
		return i
	}
	for name := range prog.Algo {
		nodeOf(string(name))
	}
	for name := range prog.ConstRules {
		nodeOf(string(name))
	}

	addEdge := func(from, to string, negative bool) {
		f, t := nodeOf(from), nodeOf(to)
		adj[f] = append(adj[f], t)
		if negative {
			neg[[2]int{f, t}] = true
		}
	}

	for key, rules := range prog.Rules {
		nodeOf(key)
		for _, r := range rules {
			for _, atom := range r.Body {
				switch atom.Kind {
				case normalize.NFRule, normalize.NFNegatedRule, normalize.NFRelation, normalize.NFNegatedRelation:
					addEdge(key, string(atom.Name), atom.Kind.Negated())
				}
			}
		}
	}
	for _, s := range prog.Seeds {
		from := string(s.Magic.MagicName())
		nodeOf(from)
		for _, atom := range s.BodyPrefix {
			switch atom.Kind {
			case normalize.NFRule, normalize.NFNegatedRule, normalize.NFRelation, normalize.NFNegatedRelation:
				addEdge(from, string(atom.Name), atom.Kind.Negated())
			}
		}
	}

	sccs := stratify.SCC(len(nodes), adj)
	componentOf := make([]int, len(nodes))
	for ci, comp := range sccs {
		for _, n := range comp {
			componentOf[n] = ci
		}
	}
	for from := range adj {
		for _, to := range adj[from] {
			if neg[[2]int{from, to}] && componentOf[from] == componentOf[to] {
				return nil, xerrors.New(xerrors.KindStratification,
					"cycle through negation in rewritten program involving %q", nodes[from])
			}
		}
	}

	strata := make([]stratum, len(sccs))
	for i, comp := range sccs {
		keys := make([]string, len(comp))
		for j, n := range comp {
			keys[j] = nodes[n]
		}
		sort.Strings(keys)
		strata[i] = stratum{keys: keys}
	}
	return strata, nil
}
