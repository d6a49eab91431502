package orchestrator

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// toolEntry is one registry row (spec.md §3 tool_registry, §4.9).
type toolEntry struct {
	id         string
	name       string
	cancelHook func()
	metadata   map[string]any
	startedAt  time.Time
	cancelled  bool
}

// ToolExecution is the read-only view returned by Active, for diagnostics.
type ToolExecution struct {
	ID        string
	Name      string
	Metadata  map[string]any
	StartedAt time.Time
	Cancelled bool
}

// Elapsed is how long this execution has been registered.
func (t ToolExecution) Elapsed() time.Duration { return time.Since(t.StartedAt) }

// ToolRegistry tracks in-flight tool executions for one session and
// provides cooperative cancellation (spec.md §4.9). It is always owned by
// exactly one Orchestrator, never a package-level singleton — spec.md §9
// explicitly calls the original's process-wide registry an anti-pattern to
// undo; see original_source/src/server/active_tool_registry.py for the
// pattern this replaces (its ToolExecution/ActiveToolRegistry shape is kept,
// its get_active_tool_registry() global accessor is not).
//
// cancel_hook is a plain non-blocking func(), collapsing original_source's
// separate sync/cancel_fn and async/cancel_async_fn paths into the one
// shape Go idiomatically uses for cooperative cancellation: a tool body
// that needs to await cleanup on cancel starts its own goroutine inside the
// hook and signals completion through its own channel.
type ToolRegistry struct {
	mu      sync.Mutex
	entries map[string]*toolEntry
	order   []string
}

// NewToolRegistry constructs an empty, per-session registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{entries: make(map[string]*toolEntry)}
}

// Register records a new in-flight tool execution and returns its id.
// cancelHook must be non-blocking; it is invoked at most once, by Cancel or
// CancelAll.
func (r *ToolRegistry) Register(name string, cancelHook func(), metadata map[string]any) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &toolEntry{
		id:         id,
		name:       name,
		cancelHook: cancelHook,
		metadata:   metadata,
		startedAt:  time.Now(),
	}
	r.order = append(r.order, id)
	return id
}

// Unregister removes a completed (not necessarily cancelled) execution.
// Unregistering an unknown id is a no-op, since a tool that already
// observed cancellation and a concurrent CancelAll may race harmlessly.
func (r *ToolRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(id)
}

// remove must be called with mu held.
func (r *ToolRegistry) remove(id string) {
	if _, ok := r.entries[id]; !ok {
		return
	}
	delete(r.entries, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Cancel invokes the cancel hook for one entry. Idempotent: a second Cancel
// on an already-cancelled entry is a no-op. Returns false if the id is
// unknown.
func (r *ToolRegistry) Cancel(id string) bool {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if !ok || entry.cancelled {
		r.mu.Unlock()
		return false
	}
	entry.cancelled = true
	hook := entry.cancelHook
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return true
}

// CancelAll cancels every currently-registered entry and returns how many
// entries it newly marked cancelled (entries with a nil hook included).
// Atomic with respect to concurrent Register: a
// registration either is visible here and gets cancelled, or happens after
// this call returns and must check cancellation state on its own first
// poll — CancelAll only ever acts on what was registered before it started
// (spec.md §5).
func (r *ToolRegistry) CancelAll() int {
	r.mu.Lock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	hooks := make([]func(), 0, len(ids))
	for _, id := range ids {
		entry := r.entries[id]
		if entry.cancelled {
			continue
		}
		entry.cancelled = true
		hooks = append(hooks, entry.cancelHook)
	}
	r.mu.Unlock()

	n := 0
	for _, hook := range hooks {
		if hook != nil {
			hook()
		}
		n++
	}
	return n
}

// Active returns a snapshot of every currently-registered execution, in
// registration order.
func (r *ToolRegistry) Active() []ToolExecution {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ToolExecution, 0, len(r.order))
	for _, id := range r.order {
		e := r.entries[id]
		out = append(out, ToolExecution{
			ID:        e.id,
			Name:      e.name,
			Metadata:  e.metadata,
			StartedAt: e.startedAt,
			Cancelled: e.cancelled,
		})
	}
	return out
}

// Len reports the number of currently-registered executions.
func (r *ToolRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
