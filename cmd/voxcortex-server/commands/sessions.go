package commands

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"github.com/haivivi/voxcortex/pkg/orchestrator"
)

// sessionRegistry tracks the orchestrators currently running so the debug
// endpoint can report on all of them at once.
type sessionRegistry struct {
	mu   sync.Mutex
	byID map[string]*orchestrator.Orchestrator
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{byID: make(map[string]*orchestrator.Orchestrator)}
}

func (r *sessionRegistry) add(id string, o *orchestrator.Orchestrator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = o
}

func (r *sessionRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

func (r *sessionRegistry) snapshot() []orchestrator.DebugStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]orchestrator.DebugStatus, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id].DebugStatus())
	}
	return out
}

// ServeHTTP reports every active session's DebugStatus as a JSON array.
func (r *sessionRegistry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(r.snapshot()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
