package runtime

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// SysStatus is one of the three exit-status strings spec.md §6 names for
// `sys` ops: `"OK"`, `"NOT_FOUND"`, `"KILLING"`.
type SysStatus string

const (
	StatusOK       SysStatus = "OK"
	StatusNotFound SysStatus = "NOT_FOUND"
	StatusKilling  SysStatus = "KILLING"
)

// Handle is the registry's record of one in-flight query: spec.md §5's
// "mutex<ordered map<id, handle>>" entry.
type Handle struct {
	ID        uint64
	StartedAt time.Time
	Poison    *Poison
}

// Registry is the running-query registry (spec.md §5), held only for O(1)
// insert/remove and for snapshot listing — never across a query's actual
// evaluation.
type Registry struct {
	mu      sync.Mutex
	queries map[uint64]*Handle
	nextID  atomic.Uint64
}

func NewRegistry() *Registry {
	return &Registry{queries: make(map[uint64]*Handle)}
}

// Cleanup is the scoped guard spec.md §5 requires to run on every exit path
// of a query, including a panic recovered further up the call stack —
// callers must `defer cleanup.Close()` immediately after Register. On
// Close it deregisters the query and poisons the handle regardless of
// whether the query already finished, "defensive, in case other readers
// still hold it."
type Cleanup struct {
	id   uint64
	reg  *Registry
	once sync.Once
}

func (c *Cleanup) Close() {
	c.once.Do(func() {
		c.reg.mu.Lock()
		h, ok := c.reg.queries[c.id]
		delete(c.reg.queries, c.id)
		c.reg.mu.Unlock()
		if ok {
			h.Poison.Kill()
		}
	})
}

// Register allocates a query id, inserts its handle, and returns the
// scoped cleanup guard the caller must defer immediately.
func (r *Registry) Register(poison *Poison) (*Handle, *Cleanup) {
	id := r.nextID.Add(1)
	h := &Handle{ID: id, StartedAt: time.Now(), Poison: poison}
	r.mu.Lock()
	r.queries[id] = h
	r.mu.Unlock()
	return h, &Cleanup{id: id, reg: r}
}

// List returns a snapshot of every currently-running query, ordered by id
// (spec.md §6's `ListRunning`).
func (r *Registry) List() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Handle, 0, len(r.queries))
	for _, h := range r.queries {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Kill poisons the query named by id, if it is still running (spec.md §6's
// `KillRunning(id)`).
func (r *Registry) Kill(id uint64) SysStatus {
	r.mu.Lock()
	h, ok := r.queries[id]
	r.mu.Unlock()
	if !ok {
		return StatusNotFound
	}
	h.Poison.Kill()
	return StatusKilling
}
