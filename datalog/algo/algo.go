// Package algo implements the built-in "algo" operators (spec.md glossary:
// "a built-in relational operator invoked like a rule, treated as EDB to
// the rewriter"). Each operator reads one or more named EDB relations
// (resolved through EdgeSource, the same view-name indirection datalog/eval
// uses) and materializes a result relation once, up front, exactly like a
// const rule (spec.md §4.7).
package algo

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/chiefnoah/cozo/encoding"
	"github.com/chiefnoah/cozo/internal/xerrors"
)

// EdgeSource resolves an algo operator's relation-valued argument (a
// keyword naming a view or triple-backed relation) to its tuples. cozo.go
// wires this against the real view store and triple store; tests use a
// fixed map.
type EdgeSource interface {
	Relation(ctx context.Context, name string) ([]encoding.Tuple, error)
}

// Op is one built-in algo operator. args are the AlgoCall's constant
// arguments in order (spec.md §4.7: algo args never carry free variables,
// only constants and relation-name keywords); opts are its named options.
type Op func(ctx context.Context, src EdgeSource, args []encoding.DataValue, opts map[string]encoding.DataValue) ([]encoding.Tuple, error)

// Registry maps an algo call's name (e.g. "ShortestPathBFS") to its Op.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Op
}

func NewRegistry() *Registry {
	r := &Registry{ops: make(map[string]Op)}
	r.Register("ReachableBFS", ReachableBFS)
	r.Register("ShortestPathBFS", ShortestPathBFS)
	r.Register("DegreeCentrality", DegreeCentrality)
	return r
}

func (r *Registry) Register(name string, op Op) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[name] = op
}

func (r *Registry) Run(ctx context.Context, src EdgeSource, name string, args []encoding.DataValue, opts map[string]encoding.DataValue) ([]encoding.Tuple, error) {
	r.mu.RLock()
	op, ok := r.ops[name]
	r.mu.RUnlock()
	if !ok {
		return nil, xerrors.New(xerrors.KindSchema, "unknown algo operator %q", name)
	}
	return op(ctx, src, args, opts)
}

// Bound pairs a Registry with the EdgeSource every call in a given
// evaluation run should use, satisfying datalog/eval.AlgoSource without
// eval needing to import this package's EdgeSource indirection.
type Bound struct {
	Registry *Registry
	Src      EdgeSource
}

func (b Bound) RunAlgo(ctx context.Context, name string, args []encoding.DataValue, opts map[string]encoding.DataValue) ([]encoding.Tuple, error) {
	return b.Registry.Run(ctx, b.Src, name, args, opts)
}

// relArg reads args[0] as the keyword naming the edge relation every
// built-in operator here takes as its first argument.
func relArg(args []encoding.DataValue) (string, error) {
	if len(args) == 0 || args[0].Tag != encoding.TagKeyword {
		return "", xerrors.New(xerrors.KindType, "algo operator expects a relation-name keyword as its first argument")
	}
	return args[0].S, nil
}

// adjacency builds an out-neighbor map from a binary edge relation's tuples.
func adjacency(tuples []encoding.Tuple) map[encoding.DataValue][]encoding.DataValue {
	adj := make(map[encoding.DataValue][]encoding.DataValue, len(tuples))
	for _, t := range tuples {
		if len(t) != 2 {
			continue
		}
		adj[t[0]] = append(adj[t[0]], t[1])
	}
	return adj
}

// ReachableBFS(edge_rel, start) returns every node reachable from start
// following edge_rel's directed edges, one row per node (spec.md §8
// scenario 4's transitive-closure query, as a materialized EDB alternative
// to the recursive rule form).
func ReachableBFS(ctx context.Context, src EdgeSource, args []encoding.DataValue, _ map[string]encoding.DataValue) ([]encoding.Tuple, error) {
	relName, err := relArg(args)
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return nil, xerrors.New(xerrors.KindType, "ReachableBFS requires a start node argument")
	}
	start := args[1]

	tuples, err := src.Relation(ctx, relName)
	if err != nil {
		return nil, err
	}
	adj := adjacency(tuples)

	visited := map[encoding.DataValue]bool{start: true}
	queue := []encoding.DataValue{start}
	var out []encoding.Tuple
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := queue[0]
		queue = queue[1:]
		for _, next := range adj[n] {
			if visited[next] {
				continue
			}
			visited[next] = true
			out = append(out, encoding.Tuple{next})
			queue = append(queue, next)
		}
	}
	return out, nil
}

// ShortestPathBFS(edge_rel, start, end) returns a single (end, dist) row if
// end is reachable from start, or no rows otherwise — unweighted shortest
// path by breadth-first layer.
func ShortestPathBFS(ctx context.Context, src EdgeSource, args []encoding.DataValue, _ map[string]encoding.DataValue) ([]encoding.Tuple, error) {
	relName, err := relArg(args)
	if err != nil {
		return nil, err
	}
	if len(args) < 3 {
		return nil, xerrors.New(xerrors.KindType, "ShortestPathBFS requires start and end node arguments")
	}
	start, end := args[1], args[2]

	tuples, err := src.Relation(ctx, relName)
	if err != nil {
		return nil, err
	}
	adj := adjacency(tuples)

	if encoding.CompareValues(start, end) == 0 {
		return []encoding.Tuple{{end, encoding.IntValue(0)}}, nil
	}

	dist := map[encoding.DataValue]int64{start: 0}
	queue := []encoding.DataValue{start}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := queue[0]
		queue = queue[1:]
		for _, next := range adj[n] {
			if _, seen := dist[next]; seen {
				continue
			}
			d := dist[n] + 1
			dist[next] = d
			if encoding.CompareValues(next, end) == 0 {
				return []encoding.Tuple{{end, encoding.IntValue(d)}}, nil
			}
			queue = append(queue, next)
		}
	}
	return nil, nil
}

// DegreeCentrality(edge_rel) returns (node, out_degree) for every node that
// appears as a source in edge_rel, one row per node. Bounded-parallel over
// nodes (SPEC_FULL.md domain stack: golang.org/x/sync/errgroup +
// golang.org/x/sync/semaphore for bounded-parallel algo operators) since
// degree counting per node is independent once adjacency is built.
func DegreeCentrality(ctx context.Context, src EdgeSource, args []encoding.DataValue, opts map[string]encoding.DataValue) ([]encoding.Tuple, error) {
	relName, err := relArg(args)
	if err != nil {
		return nil, err
	}
	tuples, err := src.Relation(ctx, relName)
	if err != nil {
		return nil, err
	}
	adj := adjacency(tuples)

	nodes := make([]encoding.DataValue, 0, len(adj))
	for n := range adj {
		nodes = append(nodes, n)
	}

	maxPar := int64(8)
	if v, ok := opts["parallelism"]; ok && v.Tag == encoding.TagInt && v.I > 0 {
		maxPar = v.I
	}
	sem := semaphore.NewWeighted(maxPar)
	g, gctx := errgroup.WithContext(ctx)

	out := make([]encoding.Tuple, len(nodes))
	for i, n := range nodes {
		i, n := i, n
		if err := sem.Acquire(gctx, 1); err != nil {
			return nil, err
		}
		g.Go(func() error {
			defer sem.Release(1)
			out[i] = encoding.Tuple{n, encoding.IntValue(int64(len(adj[n])))}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
