package pool

import (
	"context"

	"sandboxd/internal/config"
	"sandboxd/internal/executor"
)

// WithWorker is the scoped acquisition primitive design note 9 in spec §9
// calls for ("implement as a scoped acquisition primitive rather than
// explicit try/finally plumbing"): it acquires a worker, invokes fn, and
// always resolves the worker's fate — released back to the pool on a
// clean return, evicted if fn reports any error (an execution timeout, a
// corrupt or exited child, or cancellation while the child may still be
// running).
func (m *Manager) WithWorker(ctx context.Context, language config.Language, sessionID string, fn func(*Worker) (*executor.Result, error)) (*executor.Result, error) {
	w, err := m.Acquire(ctx, language, sessionID)
	if err != nil {
		return nil, err
	}

	res, err := fn(w)

	switch {
	case err != nil:
		// Execution timeout ⇒ the worker is terminated and removed from
		// the pool before the call returns (spec §8 property 9); a child
		// that failed in any other way is not reused either.
		m.Evict(context.Background(), language, w)
	default:
		m.Release(language, w, sessionID)
	}

	return res, err
}

// Execute runs one request on an acquired worker under WithWorker,
// wrapping executor.Child.Execute so callers never touch Worker directly.
func (m *Manager) Execute(ctx context.Context, language config.Language, sessionID string, req executor.Request, timeoutMs int) (*executor.Result, error) {
	timeout := durationFromMs(timeoutMs)
	return m.WithWorker(ctx, language, sessionID, func(w *Worker) (*executor.Result, error) {
		return w.Child.Execute(ctx, req, timeout)
	})
}
