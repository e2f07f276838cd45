package pool

import "time"

// StartReclamation starts the single periodic reclamation task (spec §4.2
// "Reclamation", §5 "runs at a fixed interval (default: half of the
// shortest language idle timeout)"). Calling it twice is a no-op; call
// StopReclamation (or Shutdown) to stop it.
func (m *Manager) StartReclamation(interval time.Duration) {
	m.mu.Lock()
	if m.reclaimStop != nil {
		m.mu.Unlock()
		return
	}
	m.reclaimStop = make(chan struct{})
	stop := m.reclaimStop
	m.mu.Unlock()

	m.reclaimWG.Add(1)
	go func() {
		defer m.reclaimWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.reclaimOnce()
			}
		}
	}()
}

// StopReclamation stops the periodic task started by StartReclamation, if
// running.
func (m *Manager) StopReclamation() {
	m.mu.Lock()
	stop := m.reclaimStop
	m.reclaimStop = nil
	m.mu.Unlock()

	if stop != nil {
		close(stop)
		m.reclaimWG.Wait()
	}
}

// reclaimOnce scans every pool once, killing and removing workers that are
// available, idle past the language's idleTimeout, and whose removal
// still leaves at least minSize available workers (spec §4.2
// "Reclamation").
func (m *Manager) reclaimOnce() {
	now := time.Now()
	for _, lp := range m.pools {
		lp.mu.Lock()
		availableCount := 0
		for _, w := range lp.workers {
			if w.available {
				availableCount++
			}
		}

		var toKill []*Worker
		idle := lp.cfg.IdleTimeoutDuration()
		for _, w := range lp.workers {
			if !w.available {
				continue
			}
			if now.Sub(w.lastUsed) <= idle {
				continue
			}
			if availableCount <= lp.cfg.MinSize {
				break
			}
			toKill = append(toKill, w)
			availableCount--
		}
		for _, w := range toKill {
			delete(lp.workers, w.ID)
		}
		lp.mu.Unlock()

		for _, w := range toKill {
			_ = w.Child.Kill()
			if m.log != nil {
				m.log.Debug("pool: reclaimed idle %s worker %s", lp.language, w.ID)
			}
		}
	}
}
