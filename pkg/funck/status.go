package funck

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Phase is the status a tracked function occupies at a point in time.
type Phase int

const (
	// Accepted is the initial status set when a deployment is added.
	Accepted Phase = iota
	// Compiling is set once the Compile Worker picks up the job.
	Compiling
	// Ready is set once the compiled artifact has been installed.
	Ready
	// Failed is set when any pipeline step fails. Reason carries why.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Accepted:
		return "Accepted"
	case Compiling:
		return "Compiling"
	case Ready:
		return "Ready"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// StatusEntry is the status reported for a single function name: a Phase
// and, when Phase is Failed, the reason it failed.
type StatusEntry struct {
	Phase  Phase
	Reason string
}

// StatusTracker is a concurrent mapping from function name to StatusEntry,
// enforcing the following transition graph:
//
//	(nonexistent) --add-->   Accepted
//	Accepted      --set-->   Compiling
//	Compiling     --set-->   Ready | Failed
//	Ready, Failed are terminal within a lifecycle; replaced via add.
type StatusTracker struct {
	mu      sync.RWMutex
	entries map[string]StatusEntry
}

// NewStatusTracker returns an empty StatusTracker.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{entries: make(map[string]StatusEntry)}
}

// Add sets name's status to Accepted, creating or overwriting any prior
// entry. This is the entry point of a new deployment lifecycle for name.
func (t *StatusTracker) Add(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[name] = StatusEntry{Phase: Accepted}
}

// Set transitions name to new per the graph above. An illegal transition —
// including one against a name with no existing entry — is a programming
// error: it is logged loudly and ignored rather than applied.
func (t *StatusTracker) Set(name string, new StatusEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.entries[name]
	if !legalTransition(ok, cur.Phase, new.Phase) {
		logrus.WithFields(logrus.Fields{
			"function": name,
			"from":     cur.Phase,
			"to":       new.Phase,
		}).Warn("illegal status transition ignored")
		return
	}
	t.entries[name] = new
}

func legalTransition(exists bool, from, to Phase) bool {
	if !exists {
		return false
	}
	switch from {
	case Accepted:
		return to == Compiling
	case Compiling:
		return to == Ready || to == Failed
	default:
		return false // Ready and Failed are terminal within a lifecycle
	}
}

// Seed installs a Ready entry directly, bypassing the transition rules.
// Used only during the Manager's startup scan, to reconstruct state for
// artifacts already present on disk.
func (t *StatusTracker) Seed(name string, entry StatusEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[name] = entry
}

// Snapshot returns a point-in-time copy of the full name -> StatusEntry
// mapping, safe for the caller to range over without further locking.
func (t *StatusTracker) Snapshot() map[string]StatusEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]StatusEntry, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

// Get returns the current entry for name, and whether it exists.
func (t *StatusTracker) Get(name string) (StatusEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[name]
	return e, ok
}
