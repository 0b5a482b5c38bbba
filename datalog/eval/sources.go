package eval

import (
	"context"

	"github.com/chiefnoah/cozo/encoding"
)

// TripleSource resolves AttrTriple body atoms against the triple store
// (spec.md §4.8's "triple atoms are EDB"). Implemented by *triple.Store at
// the wiring layer (cozo.go); kept as an interface here so the evaluator is
// testable against fakes without a real KV engine.
type TripleSource interface {
	GetAsOf(ctx context.Context, e encoding.EntityId, a encoding.AttrId, t encoding.Validity) ([]encoding.DataValue, error)
	ScanAttr(ctx context.Context, a encoding.AttrId, t encoding.Validity, fn func(encoding.EntityId, encoding.DataValue) error) error
}

// AttrResolver maps an atom's string attribute name to its AttrId — the
// evaluator never talks to the catalog directly.
type AttrResolver interface {
	ResolveAttr(name string) (encoding.AttrId, bool)
}

// ViewSource resolves Relation/NegatedRelation body atoms against the view
// store (spec.md §4.9).
type ViewSource interface {
	ScanView(name string) ([]encoding.Tuple, bool)
}

// AlgoSource resolves an algo-apply predicate to its materialized EDB
// relation (spec.md §4.7: "algo rules are treated as EDB").
type AlgoSource interface {
	RunAlgo(ctx context.Context, name string, args []encoding.DataValue, opts map[string]encoding.DataValue) ([]encoding.Tuple, error)
}

// Canceler reports a poison flag set by runtime's timeout scheduler or an
// explicit kill request (spec.md §5). Checked every checkEvery tuples
// produced so long-running joins notice cancellation promptly without
// paying an atomic load per tuple.
type Canceler interface {
	Canceled() bool
}

type noopCanceler struct{}

func (noopCanceler) Canceled() bool { return false }

// NoopCanceler never cancels; used when the caller has no runtime registry
// (e.g. unit tests).
var NoopCanceler Canceler = noopCanceler{}
