package pool

import (
	"context"

	"sandboxd/internal/executor"

	"golang.org/x/sync/errgroup"
)

// PreWarm spawns minSize(L) workers per language in parallel (spec §4.2
// "Pre-warming"), grounded on the teacher's errgroup-based parallel
// gathering in internal/campaign/intelligence_gatherer.go. For each
// spawned worker, PreWarmScript (if configured) is run best-effort — a
// failure there is logged and does not fail pre-warming as a whole, nor
// does it prevent the worker from being returned to the pool.
func (m *Manager) PreWarm(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)

	for lang, lp := range m.pools {
		lang, lp := lang, lp
		for i := 0; i < lp.cfg.MinSize; i++ {
			eg.Go(func() error {
				w, err := m.spawnLocked(egCtx, lp)
				if err != nil {
					return err
				}
				m.runPreWarmScript(egCtx, lp, w)
				lp.mu.Lock()
				w.available = true
				lp.mu.Unlock()
				if m.log != nil {
					m.log.Info("pool: pre-warmed %s worker %s", lang, w.ID)
				}
				return nil
			})
		}
	}

	return eg.Wait()
}

func (m *Manager) runPreWarmScript(ctx context.Context, lp *languagePool, w *Worker) {
	if lp.cfg.PreWarmScript == "" {
		return
	}
	req := executor.Request{Code: lp.cfg.PreWarmScript, ExecutionID: "prewarm-" + w.ID}
	if _, err := w.Child.Execute(ctx, req, lp.cfg.ReadyTimeoutDuration()); err != nil && m.log != nil {
		m.log.Warn("pool: pre-warm script failed for %s worker %s: %v", lp.language, w.ID, err)
	}
}
