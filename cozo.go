// Package cozo wires catalog, triple, view, datalog, and runtime into the
// four script-level JSON entry points spec.md §6 names: query, schema, tx,
// and sys. This is the thinnest possible shell around the core (spec.md §1
// keeps wire protocol and transport out of scope); cmd/cozo is the CLI that
// drives it.
package cozo

import (
	"context"
	"encoding/base64"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/chiefnoah/cozo/catalog"
	"github.com/chiefnoah/cozo/config"
	"github.com/chiefnoah/cozo/datalog/algo"
	"github.com/chiefnoah/cozo/datalog/ast"
	"github.com/chiefnoah/cozo/datalog/eval"
	"github.com/chiefnoah/cozo/datalog/magic"
	"github.com/chiefnoah/cozo/datalog/normalize"
	"github.com/chiefnoah/cozo/datalog/stratify"
	"github.com/chiefnoah/cozo/encoding"
	"github.com/chiefnoah/cozo/internal/xerrors"
	"github.com/chiefnoah/cozo/kvstore"
	"github.com/chiefnoah/cozo/kvstore/mdbxkv"
	"github.com/chiefnoah/cozo/kvstore/memkv"
	"github.com/chiefnoah/cozo/runtime"
	"github.com/chiefnoah/cozo/triple"
	"github.com/chiefnoah/cozo/view"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Db is one open cozo instance: the catalog/triple/view stores backing it,
// the algo operator registry, and the runtime bookkeeping (session counts,
// running-query registry, compiled-program cache) every script-level entry
// point below goes through.
type Db struct {
	cfg    config.Config
	log    *zap.Logger
	tripleEngine kvstore.Engine
	relEngine    kvstore.Engine

	Catalog  *catalog.Catalog
	Triples  *triple.Store
	Views    *view.Store
	Algo     *algo.Registry
	Sessions *runtime.SessionCounters
	Queries  *runtime.Registry
	Programs *runtime.ProgramCache
}

// Open opens (or creates) the two physical mdbx stores under cfg.DataPath
// and loads the catalog/triple/view metadata from them (spec.md §6: "two
// child directories under the configured data path, triple/ and rel/").
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (*Db, error) {
	tripleEngine, err := mdbxkv.Open(kvstore.Config{
		Path:  cfg.DataPath + "/triple",
		Table: kvstore.TableTriples,
		Cmp:   encoding.CompareTriples,
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindStorage, err, "open triple store")
	}
	relEngine, err := mdbxkv.Open(kvstore.Config{
		Path:            cfg.DataPath + "/rel",
		Table:           kvstore.TableRelations,
		Cmp:             encoding.CompareViewKeys,
		PrefixExtractor: encoding.ViewPrefixExtractor,
	})
	if err != nil {
		tripleEngine.Close()
		return nil, xerrors.Wrap(xerrors.KindStorage, err, "open relation store")
	}
	return openWithEngines(ctx, tripleEngine, relEngine, cfg, log)
}

// OpenInMemory opens a Db backed by kvstore/memkv instead of mdbx, the
// configuration the integration tests use. Nothing is persisted.
func OpenInMemory(ctx context.Context, cfg config.Config, log *zap.Logger) (*Db, error) {
	tripleEngine := memkv.New(kvstore.Config{Table: kvstore.TableTriples, Cmp: encoding.CompareTriples})
	relEngine := memkv.New(kvstore.Config{
		Table:           kvstore.TableRelations,
		Cmp:             encoding.CompareViewKeys,
		PrefixExtractor: encoding.ViewPrefixExtractor,
	})
	return openWithEngines(ctx, tripleEngine, relEngine, cfg, log)
}

func openWithEngines(ctx context.Context, tripleEngine, relEngine kvstore.Engine, cfg config.Config, log *zap.Logger) (*Db, error) {
	cat := catalog.New(tripleEngine)
	if err := cat.Load(ctx); err != nil {
		return nil, err
	}
	triples := triple.New(tripleEngine, cat, log)
	if err := triples.Load(ctx); err != nil {
		return nil, err
	}
	views := view.New(relEngine)
	if err := views.Load(ctx); err != nil {
		return nil, err
	}
	programs, err := runtime.NewProgramCache(cfg.ProgramCacheSize)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindStorage, err, "open program cache")
	}
	return &Db{
		cfg:          cfg,
		log:          log,
		tripleEngine: tripleEngine,
		relEngine:    relEngine,
		Catalog:      cat,
		Triples:      triples,
		Views:        views,
		Algo:         algo.NewRegistry(),
		Sessions:     runtime.NewSessionCounters(),
		Queries:      runtime.NewRegistry(),
		Programs:     programs,
	}, nil
}

// Close releases both physical engines. It does not wait for in-flight
// queries to finish; callers that need that should Kill them first via
// Queries.
func (db *Db) Close() error {
	relErr := db.relEngine.Close()
	tripleErr := db.tripleEngine.Close()
	if tripleErr != nil {
		return tripleErr
	}
	return relErr
}

// NewSession mints a session identity and counts it live (spec.md §5's
// n_sessions counter). Callers must Close it when done.
func (db *Db) NewSession() *runtime.Session { return db.Sessions.NewSession() }

// attrResolver adapts catalog.Catalog to datalog/eval.AttrResolver.
type attrResolver struct{ cat *catalog.Catalog }

func (r attrResolver) ResolveAttr(name string) (encoding.AttrId, bool) {
	a, ok := r.cat.ByName(name)
	if !ok {
		return 0, false
	}
	return a.Id, true
}

// QueryResult is the `query` entry point's JSON-shaped response (spec.md
// §6/§4.9: headers plus row data, shaped for output by whatever pull/view
// option the request carried).
type QueryResult struct {
	Headers []string        `json:"headers"`
	Rows    [][]interface{} `json:"rows"`
}

// Query compiles and evaluates prog against the current state of the
// stores, applying its Out options (timeout, sort, limit/offset, view
// emission) exactly as spec.md §4.9 and §5 describe.
func (db *Db) Query(ctx context.Context, prog ast.InputProgram) (QueryResult, error) {
	if prog.Out.View != nil && prog.Out.Out != nil {
		return QueryResult{}, xerrors.New(xerrors.KindSchema, "view and out options are mutually exclusive")
	}
	if err := db.validateViewOption(prog); err != nil {
		return QueryResult{}, err
	}

	normalized, err := normalize.NormalizeProgram(prog)
	if err != nil {
		return QueryResult{}, err
	}
	// Stratify is run standalone purely to surface a StratificationError
	// before the (potentially expensive) magic-set rewrite; datalog/eval
	// re-derives the post-rewrite strata itself from the rewritten program.
	if _, err := stratify.Stratify(normalized); err != nil {
		return QueryResult{}, err
	}
	rewritten, err := magic.Rewrite(normalized)
	if err != nil {
		return QueryResult{}, err
	}

	entryHead, _ := prog.EntryArity()
	headVars := make([]ast.Var, 0, entryHead)
	if ra, ok := prog.Prog[ast.EntrySymbol]; ok && !ra.IsAlgo() && len(ra.Rules) > 0 {
		for _, h := range ra.Rules[0].Head {
			headVars = append(headVars, ast.Var(h))
		}
	}

	poison := runtime.NewPoison()
	if prog.Out.Timeout != nil {
		poison.SetTimeout(time.Duration(*prog.Out.Timeout) * time.Second)
	} else if db.cfg.DefaultTimeoutSeconds > 0 {
		poison.SetTimeout(time.Duration(db.cfg.DefaultTimeoutSeconds) * time.Second)
	}
	_, cleanup := db.Queries.Register(poison)
	defer cleanup.Close()

	bound := view.BoundContext{Store: db.Views, Ctx: ctx}
	env := eval.Env{
		Triples: db.Triples,
		Attrs:   attrResolver{db.Catalog},
		Views:   bound,
		Algo:    algo.Bound{Registry: db.Algo, Src: bound},
		Cancel:  poison,
	}
	if db.cfg.CheckEvery > 0 {
		env.CheckEvery = db.cfg.CheckEvery
	}

	rows, err := eval.Evaluate(ctx, rewritten, env)
	if err != nil {
		return QueryResult{}, err
	}

	plan := eval.PlanOutput{Sort: prog.Out.Sort, Limit: prog.Out.Limit, Offset: prog.Out.Offset}
	rows = plan.Apply(rows, headVars)

	if v := prog.Out.View; v != nil {
		if err := db.applyView(ctx, *v, entryHead, len(headVars), rows); err != nil {
			return QueryResult{}, err
		}
	}

	return db.renderRows(headVars, rows), nil
}

func (db *Db) validateViewOption(prog ast.InputProgram) error {
	v := prog.Out.View
	if v == nil {
		return nil
	}
	_, exists := db.Views.Metadata(v.Name)
	switch v.Op {
	case ast.ViewCreate:
		if exists {
			return xerrors.New(xerrors.KindSchema, "view %q exists but is required not to be", v.Name)
		}
	case ast.ViewRederive:
		// Rederive tolerates either presence or absence.
	default:
		if !exists {
			return xerrors.New(xerrors.KindSchema, "view %q does not exist but is required to be", v.Name)
		}
	}
	return nil
}

func (db *Db) applyView(ctx context.Context, v ast.ViewOption, entryArity int, headArity int, rows []encoding.Tuple) error {
	arity := entryArity
	if arity == 0 {
		arity = headArity
	}
	if arity == 0 && len(rows) > 0 {
		// Algo-apply entry: the arity is the width of the rows it produced.
		arity = len(rows[0])
	}
	switch v.Op {
	case ast.ViewCreate:
		_, err := db.Views.Create(ctx, v.Name, arity, false)
		if err != nil {
			return err
		}
		return db.Views.Put(ctx, v.Name, rows)
	case ast.ViewRederive:
		_, err := db.Views.Rederive(ctx, v.Name, arity, false)
		if err != nil {
			return err
		}
		return db.Views.Put(ctx, v.Name, rows)
	case ast.ViewPut:
		return db.Views.Put(ctx, v.Name, rows)
	case ast.ViewRetract:
		return db.Views.Retract(ctx, v.Name, rows)
	default:
		return xerrors.New(xerrors.KindSchema, "unknown view op %q", v.Op)
	}
}

func (db *Db) renderRows(headVars []ast.Var, rows []encoding.Tuple) QueryResult {
	headers := make([]string, len(headVars))
	for i, v := range headVars {
		headers[i] = string(v)
	}
	out := make([][]interface{}, len(rows))
	for i, t := range rows {
		row := make([]interface{}, len(t))
		for j, v := range t {
			row[j] = v.JSONValue()
		}
		out[i] = row
	}
	return QueryResult{Headers: headers, Rows: out}
}

// QueryJSON decodes a script-level `query` request from JSON and returns
// its response re-encoded as JSON, the form cmd/cozo's `query` subcommand
// and any future transport shell call through (spec.md §6's "JSON-shaped
// requests").
func (db *Db) QueryJSON(ctx context.Context, payload []byte) ([]byte, error) {
	var prog ast.InputProgram
	if err := jsonAPI.Unmarshal(payload, &prog); err != nil {
		return nil, xerrors.Wrap(xerrors.KindParse, err, "decode query request")
	}
	res, err := db.Query(ctx, prog)
	if err != nil {
		return nil, err
	}
	return jsonAPI.Marshal(res)
}

// SchemaAttrReq is one entry of a `schema` request: either a fresh
// attribute definition (Op == "put") or a retraction by id (Op ==
// "retract").
type SchemaAttrReq struct {
	Op          string             `json:"op"`
	Id          encoding.AttrId    `json:"id,omitempty"`
	Name        string             `json:"name,omitempty"`
	ValType     catalog.ValType    `json:"val_type,omitempty"`
	Cardinality catalog.Cardinality `json:"cardinality,omitempty"`
	Indexing    catalog.Indexing   `json:"indexing,omitempty"`
	WithHistory bool               `json:"with_history,omitempty"`
}

// SchemaRequest is the `schema` entry point's request body (spec.md §6:
// "attribute upsert list + comment").
type SchemaRequest struct {
	Attrs   []SchemaAttrReq `json:"attrs"`
	Comment string          `json:"comment"`
}

// SchemaResult is `schema`'s response: one [attr_id, op] pair per processed
// entry (spec.md §6).
type SchemaResult struct {
	AttrId encoding.AttrId `json:"attr_id"`
	Op     string          `json:"op"`
}

// Schema applies a batch of attribute definitions/retractions (spec.md
// §4.2). Unlike Tx, schema changes never share a transaction with data
// writes (spec.md §1 Non-goals).
func (db *Db) Schema(ctx context.Context, req SchemaRequest) ([]SchemaResult, error) {
	out := make([]SchemaResult, 0, len(req.Attrs))
	for _, item := range req.Attrs {
		switch item.Op {
		case "retract":
			if err := db.Catalog.Retract(ctx, item.Id); err != nil {
				return nil, err
			}
			out = append(out, SchemaResult{AttrId: item.Id, Op: "retract"})
		case "put", "":
			hasData := false
			if existing, ok := db.Catalog.ByName(item.Name); ok {
				stop := xerrors.New(xerrors.KindStorage, "data found")
				err := db.Triples.ScanAttr(ctx, existing.Id, encoding.ValidityMax, func(encoding.EntityId, encoding.DataValue) error {
					hasData = true
					return stop
				})
				if err != nil && !hasData {
					return nil, err
				}
			}
			attr, err := db.Catalog.Put(ctx, catalog.Attr{
				Id:          item.Id,
				Name:        item.Name,
				ValType:     item.ValType,
				Cardinality: item.Cardinality,
				Indexing:    item.Indexing,
				WithHistory: item.WithHistory,
			}, hasData)
			if err != nil {
				return nil, err
			}
			out = append(out, SchemaResult{AttrId: attr.Id, Op: "put"})
		default:
			return nil, xerrors.New(xerrors.KindSchema, "unknown schema op %q", item.Op)
		}
	}
	return out, nil
}

func (db *Db) SchemaJSON(ctx context.Context, payload []byte) ([]byte, error) {
	var req SchemaRequest
	if err := jsonAPI.Unmarshal(payload, &req); err != nil {
		return nil, xerrors.Wrap(xerrors.KindParse, err, "decode schema request")
	}
	res, err := db.Schema(ctx, req)
	if err != nil {
		return nil, err
	}
	return jsonAPI.Marshal(struct {
		Results []SchemaResult `json:"results"`
	}{res})
}

// TxItemReq is one staged write. Entity/Value use a negative int64 to name
// a session-local temp id (abs(Entity) is the sequence number handed to
// encoding.NewTempId), and a non-negative one to name a permanent
// encoding.EntityId — mirroring the JSON convention original_source's tx
// payload parser uses for pre-commit entity references.
type TxItemReq struct {
	Retract bool        `json:"retract,omitempty"`
	Entity  int64       `json:"entity"`
	Attr    string      `json:"attr"`
	Value   interface{} `json:"value"`
	Vld     *int64      `json:"vld,omitempty"`
}

// TxRequest is the `tx` entry point's request body (spec.md §6: "triple
// asserts/retracts, possibly with temp-ids to be resolved").
type TxRequest struct {
	Items   []TxItemReq `json:"items"`
	Comment string      `json:"comment"`
	Durable bool        `json:"durable,omitempty"`
}

// TxResultItem mirrors triple.Result in the `tx` response shape (spec.md
// §6: "[[entity_id, size]]").
type TxResultItem struct {
	Entity encoding.EntityId `json:"entity_id"`
	Size   int               `json:"size"`
}

// TxResponse is `tx`'s full response.
type TxResponse struct {
	TxId    encoding.TxId  `json:"tx_id"`
	Results []TxResultItem `json:"results"`
}

func reqEntityId(n int64) encoding.EntityId {
	if n < 0 {
		return encoding.NewTempId(uint64(-n))
	}
	return encoding.EntityId(n)
}

// dataValueFromJSON converts a generically-decoded JSON value (the shape
// encoding/json or jsoniter produce for interface{}: float64, string, bool,
// nil, []interface{}) into the DataValue variant vt declares, the inverse
// of DataValue.JSONValue at the tx request boundary.
func dataValueFromJSON(vt catalog.ValType, raw interface{}) (encoding.DataValue, error) {
	if raw == nil {
		return encoding.NullValue(), nil
	}
	switch vt {
	case catalog.ValRef:
		n, ok := raw.(float64)
		if !ok {
			return encoding.DataValue{}, xerrors.New(xerrors.KindType, "value for ref attribute must be a number")
		}
		return encoding.RefValue(reqEntityId(int64(n))), nil
	case catalog.ValInt:
		n, ok := raw.(float64)
		if !ok {
			return encoding.DataValue{}, xerrors.New(xerrors.KindType, "value for int attribute must be a number")
		}
		return encoding.IntValue(int64(n)), nil
	case catalog.ValFloat:
		n, ok := raw.(float64)
		if !ok {
			return encoding.DataValue{}, xerrors.New(xerrors.KindType, "value for float attribute must be a number")
		}
		return encoding.FloatValue(n), nil
	case catalog.ValBool:
		b, ok := raw.(bool)
		if !ok {
			return encoding.DataValue{}, xerrors.New(xerrors.KindType, "value for bool attribute must be a boolean")
		}
		return encoding.BoolValue(b), nil
	case catalog.ValString:
		s, ok := raw.(string)
		if !ok {
			return encoding.DataValue{}, xerrors.New(xerrors.KindType, "value for string attribute must be a string")
		}
		return encoding.StringValue(s), nil
	case catalog.ValKeyword:
		s, ok := raw.(string)
		if !ok {
			return encoding.DataValue{}, xerrors.New(xerrors.KindType, "value for keyword attribute must be a string")
		}
		return encoding.KeywordValue(s), nil
	case catalog.ValBytes:
		s, ok := raw.(string)
		if !ok {
			return encoding.DataValue{}, xerrors.New(xerrors.KindType, "value for bytes attribute must be a base64 string")
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return encoding.DataValue{}, xerrors.Wrap(xerrors.KindParse, err, "decode base64 bytes value")
		}
		return encoding.BytesValue(decoded), nil
	case catalog.ValList, catalog.ValTuple:
		lst, ok := raw.([]interface{})
		if !ok {
			return encoding.DataValue{}, xerrors.New(xerrors.KindType, "value for list/tuple attribute must be an array")
		}
		elems := make([]encoding.DataValue, len(lst))
		for i, e := range lst {
			elems[i] = dataValueFromAny(e)
		}
		return encoding.ListValue(elems), nil
	default:
		return encoding.DataValue{}, xerrors.New(xerrors.KindType, "unknown value type %q", vt)
	}
}

// dataValueFromAny infers a DataValue's tag from a nested list element's Go
// type, since a ValList/ValTuple attribute's own ValType says nothing about
// what its elements should be.
func dataValueFromAny(raw interface{}) encoding.DataValue {
	switch v := raw.(type) {
	case nil:
		return encoding.NullValue()
	case bool:
		return encoding.BoolValue(v)
	case float64:
		if v == float64(int64(v)) {
			return encoding.IntValue(int64(v))
		}
		return encoding.FloatValue(v)
	case string:
		return encoding.StringValue(v)
	case []interface{}:
		elems := make([]encoding.DataValue, len(v))
		for i, e := range v {
			elems[i] = dataValueFromAny(e)
		}
		return encoding.ListValue(elems)
	default:
		return encoding.NullValue()
	}
}

// Tx stages and commits a batch of triple asserts/retracts (spec.md §4.3).
// now is passed in rather than read from time.Now so callers (and tests)
// control the commit's stamped validity.
func (db *Db) Tx(ctx context.Context, req TxRequest, now time.Time) (TxResponse, error) {
	tx := db.Triples.Begin()
	tx.SetDurable(req.Durable)
	defaultVld := encoding.CurrentValidity(now.UnixMicro())

	for _, item := range req.Items {
		attr, ok := db.Catalog.ByName(item.Attr)
		if !ok {
			return TxResponse{}, xerrors.New(xerrors.KindSchema, "unknown attribute %q", item.Attr)
		}
		vld := defaultVld
		if item.Vld != nil {
			vld = encoding.Validity(*item.Vld)
		}
		val, err := dataValueFromJSON(attr.ValType, item.Value)
		if err != nil {
			return TxResponse{}, err
		}
		e := reqEntityId(item.Entity)
		if item.Retract {
			tx.RetractTemp(e, attr.Id, val, vld)
		} else {
			tx.AssertTemp(e, attr.Id, val, vld)
		}
	}

	txId, results, err := tx.Commit(ctx, req.Comment, now)
	if err != nil {
		return TxResponse{}, err
	}
	out := make([]TxResultItem, len(results))
	for i, r := range results {
		out[i] = TxResultItem{Entity: r.Entity, Size: r.Size}
	}
	return TxResponse{TxId: txId, Results: out}, nil
}

func (db *Db) TxJSON(ctx context.Context, payload []byte, now time.Time) ([]byte, error) {
	var req TxRequest
	if err := jsonAPI.Unmarshal(payload, &req); err != nil {
		return nil, xerrors.Wrap(xerrors.KindParse, err, "decode tx request")
	}
	res, err := db.Tx(ctx, req, now)
	if err != nil {
		return nil, err
	}
	return jsonAPI.Marshal(res)
}

// SysRequest is the `sys` entry point's request body (spec.md §6: a tagged
// union of Compact/ListSchema/ListRelations/RemoveRelations/ListRunning/
// KillRunning).
type SysRequest struct {
	Op              string   `json:"op"`
	CompactTargets  []string `json:"compact_targets,omitempty"`
	RemoveRelations []string `json:"remove_relations,omitempty"`
	KillId          uint64   `json:"kill_id,omitempty"`
}

// SysResponse is `sys`'s response. Status carries the three exit-status
// strings spec.md §6 names; Rows/Headers are populated only by ListSchema/
// ListRelations/ListRunning.
type SysResponse struct {
	Status  runtime.SysStatus `json:"status,omitempty"`
	Headers []string          `json:"headers,omitempty"`
	Rows    [][]interface{}   `json:"rows,omitempty"`
}

// Sys dispatches one administrative operation (spec.md §6).
func (db *Db) Sys(ctx context.Context, req SysRequest) (SysResponse, error) {
	switch req.Op {
	case "Compact":
		for _, target := range req.CompactTargets {
			switch target {
			case "Triples":
				if err := db.tripleEngine.Compact(ctx); err != nil {
					return SysResponse{}, err
				}
			case "Relations":
				if err := db.relEngine.Compact(ctx); err != nil {
					return SysResponse{}, err
				}
			default:
				return SysResponse{}, xerrors.New(xerrors.KindSchema, "unknown compact target %q", target)
			}
		}
		return SysResponse{Status: runtime.StatusOK}, nil
	case "ListSchema":
		attrs := db.Catalog.AllLive()
		rows := make([][]interface{}, len(attrs))
		for i, a := range attrs {
			rows[i] = []interface{}{a.Id, a.Name, string(a.ValType), string(a.Cardinality), string(a.Indexing), a.WithHistory}
		}
		return SysResponse{
			Status:  runtime.StatusOK,
			Headers: []string{"id", "name", "type", "cardinality", "index", "history"},
			Rows:    rows,
		}, nil
	case "ListRelations":
		metas := db.Views.ListRelations()
		rows := make([][]interface{}, len(metas))
		for i, m := range metas {
			rows[i] = []interface{}{m.Id, m.Name, m.Arity, m.FromAlgo}
		}
		return SysResponse{
			Status:  runtime.StatusOK,
			Headers: []string{"id", "name", "arity", "from_algo"},
			Rows:    rows,
		}, nil
	case "RemoveRelations":
		for _, name := range req.RemoveRelations {
			if err := db.Views.Drop(ctx, name); err != nil {
				return SysResponse{}, err
			}
		}
		return SysResponse{Status: runtime.StatusOK}, nil
	case "ListRunning":
		handles := db.Queries.List()
		rows := make([][]interface{}, len(handles))
		for i, h := range handles {
			rows[i] = []interface{}{h.ID, h.StartedAt.Format(time.RFC3339Nano)}
		}
		return SysResponse{
			Status:  runtime.StatusOK,
			Headers: []string{"id", "started_at"},
			Rows:    rows,
		}, nil
	case "KillRunning":
		return SysResponse{Status: db.Queries.Kill(req.KillId)}, nil
	default:
		return SysResponse{}, xerrors.New(xerrors.KindSchema, "unknown sys op %q", req.Op)
	}
}

func (db *Db) SysJSON(ctx context.Context, payload []byte) ([]byte, error) {
	var req SysRequest
	if err := jsonAPI.Unmarshal(payload, &req); err != nil {
		return nil, xerrors.Wrap(xerrors.KindParse, err, "decode sys request")
	}
	res, err := db.Sys(ctx, req)
	if err != nil {
		return nil, err
	}
	return jsonAPI.Marshal(res)
}

// NewLogger builds the zap logger cmd/cozo wires in, development-formatted
// under cfg.Debug and production-formatted otherwise (SPEC_FULL.md §1's
// ambient logging stack).
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
