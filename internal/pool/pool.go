package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sandboxd/internal/config"
	"sandboxd/internal/executor"
	"sandboxd/internal/logging"
)

// ErrPoolShutdown is returned by Acquire once the manager has been shut
// down.
var ErrPoolShutdown = fmt.Errorf("pool: manager is shut down")

// acquirePollInterval is the polling interval used while waiting for an
// available worker at capacity (spec §4.2 step 4, §5 "a short polling
// interval is acceptable only as a fallback").
const acquirePollInterval = 25 * time.Millisecond

// languagePool holds every worker for one language under a single coarse
// lock, per spec §5's required locking discipline: the lock covers the
// acquisition decision only, never the ready handshake or an execution.
type languagePool struct {
	mu       sync.Mutex
	language config.Language
	cfg      config.PoolConfig
	workers  map[string]*Worker
	pending  int // slots reserved for in-flight spawnLocked calls, not yet in workers
}

func newLanguagePool(language config.Language, cfg config.PoolConfig) *languagePool {
	return &languagePool{
		language: language,
		cfg:      cfg,
		workers:  make(map[string]*Worker),
	}
}

func (lp *languagePool) size() int {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return len(lp.workers)
}

// tryAcquireLocked implements steps 1-2 of spec §4.2's acquisition
// algorithm against the pool's current state. Returns nil if no worker is
// assignable yet.
func (lp *languagePool) tryAcquireLocked(sessionID string) *Worker {
	if sessionID != "" {
		for _, w := range lp.workers {
			if w.available && w.affinity == sessionID {
				w.available = false
				w.lastUsed = time.Now()
				return w
			}
		}
	}
	for _, w := range lp.workers {
		if w.available && w.affinity == "" {
			w.available = false
			if sessionID != "" {
				w.affinity = sessionID
			}
			w.lastUsed = time.Now()
			return w
		}
	}
	return nil
}

// Manager owns one languagePool per supported language and the background
// tasks (pre-warm, reclamation) that operate on them (spec §9 "Global
// state lifecycle": process-wide, initialized at startup, torn down at
// shutdown).
type Manager struct {
	cfg *config.Config
	log *logging.Logger

	pools map[config.Language]*languagePool

	mu       sync.Mutex
	shutdown bool

	reclaimStop chan struct{}
	reclaimWG   sync.WaitGroup
}

// NewManager builds a Manager with one empty pool per configured language.
// Call PreWarm and StartReclamation to bring it to steady state.
func NewManager(cfg *config.Config, log *logging.Logger) *Manager {
	m := &Manager{
		cfg:   cfg,
		log:   log,
		pools: make(map[config.Language]*languagePool),
	}
	for lang, pc := range cfg.Pools {
		m.pools[lang] = newLanguagePool(lang, pc)
	}
	return m
}

func (m *Manager) poolFor(language config.Language) (*languagePool, error) {
	lp, ok := m.pools[language]
	if !ok {
		return nil, fmt.Errorf("pool: no configuration for language %q", language)
	}
	return lp, nil
}

// spawnLocked spawns a new worker against a slot already reserved in
// lp.pending by the caller (see Acquire), so the lock never needs to be
// held across the ready handshake while still keeping the pool's
// effective size (workers + pending) accurate for capacity checks.
func (m *Manager) spawnLocked(ctx context.Context, lp *languagePool) (*Worker, error) {
	child, err := executor.Spawn(ctx, lp.language, lp.cfg, m.log)
	if err != nil {
		lp.mu.Lock()
		lp.pending--
		lp.mu.Unlock()
		return nil, fmt.Errorf("pool: spawn failed (ExecutorStartFailed): %w", err)
	}
	if err := child.WaitReady(lp.cfg.ReadyTimeoutDuration()); err != nil {
		_ = child.Kill()
		lp.mu.Lock()
		lp.pending--
		lp.mu.Unlock()
		return nil, fmt.Errorf("pool: ready handshake timed out: %w", err)
	}
	w := newWorker(lp.language, child)
	lp.mu.Lock()
	lp.pending--
	lp.workers[w.ID] = w
	lp.mu.Unlock()
	return w, nil
}

// Acquire implements the four-step algorithm of spec §4.2 exactly: check
// affinity match, check an unaffiliated available worker, spawn if under
// capacity, else wait cooperatively and retry.
func (m *Manager) Acquire(ctx context.Context, language config.Language, sessionID string) (*Worker, error) {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil, ErrPoolShutdown
	}
	m.mu.Unlock()

	lp, err := m.poolFor(language)
	if err != nil {
		return nil, err
	}

	for {
		lp.mu.Lock()
		if w := lp.tryAcquireLocked(sessionID); w != nil {
			lp.mu.Unlock()
			return w, nil
		}
		// Reserve the slot before releasing the lock: without this, two
		// concurrent acquisitions both observing len(workers)==MaxSize-1
		// would both spawn, pushing the pool past MaxSize (spec §8
		// property 1). The reservation is released by spawnLocked on
		// failure, or converted into a real worker entry on success.
		reserved := len(lp.workers)+lp.pending < lp.cfg.MaxSize
		if reserved {
			lp.pending++
		}
		lp.mu.Unlock()

		if reserved {
			w, err := m.spawnLocked(ctx, lp)
			if err != nil {
				return nil, err
			}
			lp.mu.Lock()
			w.available = false
			if sessionID != "" {
				w.affinity = sessionID
			}
			w.lastUsed = time.Now()
			lp.mu.Unlock()
			return w, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(acquirePollInterval):
		}
	}
}

// Release returns w to its pool as available (spec §4.2 "Release
// policy"). If sessionID is empty, affinity is cleared so any session may
// reuse the worker next.
func (m *Manager) Release(language config.Language, w *Worker, sessionID string) {
	lp, err := m.poolFor(language)
	if err != nil {
		return
	}
	lp.mu.Lock()
	defer lp.mu.Unlock()
	if sessionID == "" {
		w.affinity = ""
	}
	w.available = true
	w.lastUsed = time.Now()
}

// Evict removes w from its pool and kills it without returning it to
// availability (spec §4.2 "Execution timeout" / "Child exits non-zero
// during idle"). If the pool has dropped below minSize, a replacement is
// spawned asynchronously and marked available once its handshake succeeds.
func (m *Manager) Evict(ctx context.Context, language config.Language, w *Worker) {
	lp, err := m.poolFor(language)
	if err != nil {
		return
	}
	lp.mu.Lock()
	delete(lp.workers, w.ID)
	belowMin := len(lp.workers) < lp.cfg.MinSize
	if belowMin {
		lp.pending++
	}
	lp.mu.Unlock()

	_ = w.Child.Kill()

	if belowMin {
		go func() {
			nw, err := m.spawnLocked(ctx, lp)
			if err != nil {
				if m.log != nil {
					m.log.Warn("pool: async respawn after eviction failed: %v", err)
				}
				return
			}
			lp.mu.Lock()
			nw.available = true
			lp.mu.Unlock()
		}()
	}
}

// Shutdown stops reclamation and terminates every worker across every
// pool (spec §4.2 "Shutdown", §9 "Shutdown must terminate every child").
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return
	}
	m.shutdown = true
	m.mu.Unlock()

	m.StopReclamation()

	for _, lp := range m.pools {
		lp.mu.Lock()
		for id, w := range lp.workers {
			_ = w.Child.Kill()
			delete(lp.workers, id)
		}
		lp.mu.Unlock()
	}
}

// Snapshot describes one pool's state.
type Snapshot struct {
	Language  config.Language
	Size      int
	Available int
	MinSize   int
	MaxSize   int
}

// Snapshots returns a point-in-time view of every pool. No HTTP route
// exposes it, so cmd/sandboxd's status and dashboard subcommands do not
// show pool state.
func (m *Manager) Snapshots() []Snapshot {
	var out []Snapshot
	for lang, lp := range m.pools {
		lp.mu.Lock()
		available := 0
		for _, w := range lp.workers {
			if w.available {
				available++
			}
		}
		out = append(out, Snapshot{
			Language:  lang,
			Size:      len(lp.workers),
			Available: available,
			MinSize:   lp.cfg.MinSize,
			MaxSize:   lp.cfg.MaxSize,
		})
		lp.mu.Unlock()
	}
	return out
}
