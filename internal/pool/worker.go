// Package pool implements the process pool manager (spec §4.2, C2): one
// pool per language, each holding a set of warm InterpreterWorkers with
// affinity, pre-warming, idle reclamation, bounded capacity, and
// cooperative queueing when at capacity.
//
// Grounded on the teacher's concurrency style in
// internal/campaign/intelligence_gatherer.go (errgroup.WithContext for
// bounded parallel fan-out, used here for pre-warming) and on its
// per-resource locking discipline elsewhere in the codebase (a coarse lock
// held across a decision, never across a blocking child call — spec §5
// states this explicitly as the required discipline for pool state).
package pool

import (
	"time"

	"sandboxd/internal/config"
	"sandboxd/internal/executor"

	"github.com/google/uuid"
)

// Worker is a live interpreter subprocess tracked by a language pool (spec
// §3 InterpreterWorker).
type Worker struct {
	ID       string
	Language config.Language
	Child    *executor.Child

	affinity  string
	available bool
	lastUsed  time.Time
}

func newWorker(language config.Language, child *executor.Child) *Worker {
	return &Worker{
		ID:        uuid.NewString(),
		Language:  language,
		Child:     child,
		available: false,
		lastUsed:  time.Now(),
	}
}

// Affinity returns the session id this worker is bound to, or "" if none.
func (w *Worker) Affinity() string { return w.affinity }

// Available reports whether the worker is currently idle and assignable.
func (w *Worker) Available() bool { return w.available }

// LastUsed returns the last time this worker was acquired or released.
func (w *Worker) LastUsed() time.Time { return w.lastUsed }
