package stratify

// tarjanSCC computes strongly connected components of g using Tarjan's
// algorithm (spec.md §9: "run Tarjan" over the predicate adjacency map).
// Components are appended to the result in the order their DFS subtree
// finishes, which — for the entry-rooted dependency graph this package
// builds — means a component is emitted only after everything it depends
// on has already been emitted: exactly the leaf-to-entry order Stratify
// needs.
func tarjanSCC(g *Graph) [][]int {
	return SCC(len(g.nodes), g.adj)
}

// SCC computes strongly connected components of a graph with n nodes and
// adjacency list adj, in the same leaf-to-entry emission order as
// tarjanSCC. Exported so datalog/eval can stratify the magic-rewritten
// program (whose nodes are adorned-predicate keys, not plain ast.Symbols)
// without duplicating the algorithm.
func SCC(n int, adj [][]int) [][]int {
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var stack []int
	var result [][]int
	counter := 0

	var strongconnect func(v int)
	strongconnect = func(v int) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if index[w] == -1 {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var comp []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			result = append(result, comp)
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == -1 {
			strongconnect(v)
		}
	}
	return result
}
