package runtime

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/chiefnoah/cozo/datalog/magic"
)

// ProgramCache memoizes a compiled (normalized, stratified, magic-set
// rewritten) program keyed by its source script text, so a session
// re-running the same query text skips parse/NNF/DNF/stratify/magic
// recompilation (SPEC_FULL.md domain-stack wiring: "LRU cache of compiled
// programs, per-session" → `hashicorp/golang-lru/v2`). Keyed by the raw
// script string rather than a hash: collisions would silently return the
// wrong compiled program, and the cache is sized small enough that string
// keys cost nothing worth avoiding.
type ProgramCache struct {
	cache *lru.Cache[string, *magic.Program]
}

// NewProgramCache builds a cache holding up to size compiled programs.
func NewProgramCache(size int) (*ProgramCache, error) {
	c, err := lru.New[string, *magic.Program](size)
	if err != nil {
		return nil, err
	}
	return &ProgramCache{cache: c}, nil
}

func (p *ProgramCache) Get(script string) (*magic.Program, bool) {
	return p.cache.Get(script)
}

func (p *ProgramCache) Put(script string, prog *magic.Program) {
	p.cache.Add(script, prog)
}

func (p *ProgramCache) Len() int { return p.cache.Len() }
