package process

import (
	"net/http"
	"os"
	"syscall"

	sberrors "sandboxd/internal/errors"
)

// ErrProcessNotFound mirrors the ESRCH row of spec §4.6's classifier
// table for process operations.
var ErrProcessNotFound = sberrors.New(sberrors.KindNotFound, "PROCESS_NOT_FOUND", http.StatusNotFound, "kill", "process not found")

// Kill delivers sig (default SIGTERM) to id's live child and transitions
// the record to killed (spec §4.4 "Cancellation").
func (m *Manager) Kill(id string, sig os.Signal) error {
	r, ok := m.Get(id)
	if !ok {
		return ErrProcessNotFound
	}
	if sig == nil {
		sig = syscall.SIGTERM
	}

	r.mu.Lock()
	if r.status.IsTerminal() {
		r.mu.Unlock()
		return nil
	}
	r.status = StatusKilled
	cmd := r.cmd
	r.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		return cmd.Process.Signal(sig)
	}
	return nil
}

// KillAll delivers termination to every non-terminal record and returns
// the count killed (spec §4.4 "killAllProcesses()").
func (m *Manager) KillAll() int {
	m.mu.Lock()
	ids := make([]string, 0, len(m.records))
	for id, r := range m.records {
		if !r.Status().IsTerminal() {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	count := 0
	for _, id := range ids {
		if err := m.Kill(id, syscall.SIGTERM); err == nil {
			count++
		}
	}
	return count
}
