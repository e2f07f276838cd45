package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"sandboxd/internal/config"
	"sandboxd/internal/executor"
	"sandboxd/internal/logging"
)

// echoBackScript is a minimal shell program speaking enough of the C1
// protocol to exercise the pool manager without depending on python3/node
// being installed in the test environment.
const echoBackScript = `printf '{"status":"ready"}\n'
while IFS= read -r line; do
  id=$(printf '%s' "$line" | sed -E 's/.*"executionId":"([^"]*)".*/\1/')
  printf '{"stdout":"ok","stderr":"","success":true,"executionId":"%s","outputs":[]}\n' "$id"
done`

const testLanguage config.Language = "shelltest"

func testConfig(minSize, maxSize int) *config.Config {
	return &config.Config{
		Pools: map[config.Language]config.PoolConfig{
			testLanguage: {
				MinSize:        minSize,
				MaxSize:        maxSize,
				IdleTimeout:    "50ms",
				ReadyTimeout:   "2s",
				ExecutablePath: "sh",
			},
		},
	}
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, logging.Initialize(dir, logging.LoggingConfig{DebugMode: true}))
	t.Cleanup(logging.CloseAll)
	return logging.Get(logging.CategoryPool)
}

// spawnTestChild starts a real shell-backed child via executor.SpawnRaw so
// tests exercising eviction/reclamation (which call Worker.Child.Kill) have
// a live process to operate on, without depending on python3/node being
// installed in the test environment.
func spawnTestChild(t *testing.T) *executor.Child {
	t.Helper()
	c, err := executor.SpawnRaw(context.Background(), testLanguage, "sh", []string{"-c", echoBackScript}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, c.WaitReady(2*time.Second))
	t.Cleanup(func() { _ = c.Kill() })
	return c
}

func newTestManager(t *testing.T, cfg *config.Config) *Manager {
	t.Helper()
	m := NewManager(cfg, testLogger(t))
	t.Cleanup(m.Shutdown)
	return m
}

func TestSnapshotsReflectPoolSizeBeforeSpawn(t *testing.T) {
	defer goleak.VerifyNone(t)
	m := newTestManager(t, testConfig(0, 2))
	snaps := m.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, testLanguage, snaps[0].Language)
	assert.Equal(t, 0, snaps[0].Size, "expected empty pool before any acquisition")
}

func TestReclaimRespectsMinSize(t *testing.T) {
	// Registered first so it runs last, after the children are killed.
	t.Cleanup(func() { goleak.VerifyNone(t) })
	m := newTestManager(t, testConfig(1, 2))
	lp := m.pools[testLanguage]

	lp.mu.Lock()
	w := newWorker(testLanguage, spawnTestChild(t))
	w.available = true
	w.lastUsed = time.Now().Add(-time.Hour)
	lp.workers[w.ID] = w
	lp.mu.Unlock()

	m.reclaimOnce()

	assert.Equal(t, 1, lp.size(), "expected the sole worker to survive reclamation (at minSize)")
}

func TestReclaimRemovesIdleWorkerAboveMinSize(t *testing.T) {
	defer goleak.VerifyNone(t)
	m := newTestManager(t, testConfig(0, 2))
	lp := m.pools[testLanguage]

	lp.mu.Lock()
	w := newWorker(testLanguage, spawnTestChild(t))
	w.available = true
	w.lastUsed = time.Now().Add(-time.Hour)
	lp.workers[w.ID] = w
	lp.mu.Unlock()

	m.reclaimOnce()

	assert.Equal(t, 0, lp.size(), "expected idle worker above minSize to be reclaimed")
}

func TestAcquireReturnsAffinityMatchBeforeUnaffiliated(t *testing.T) {
	// Registered first so it runs last, after the children are killed.
	t.Cleanup(func() { goleak.VerifyNone(t) })
	m := newTestManager(t, testConfig(0, 4))
	lp := m.pools[testLanguage]

	lp.mu.Lock()
	unaffiliated := newWorker(testLanguage, spawnTestChild(t))
	unaffiliated.available = true
	lp.workers[unaffiliated.ID] = unaffiliated

	bound := newWorker(testLanguage, spawnTestChild(t))
	bound.available = true
	bound.affinity = "session-1"
	lp.workers[bound.ID] = bound
	lp.mu.Unlock()

	got, err := m.Acquire(context.Background(), testLanguage, "session-1")
	require.NoError(t, err)
	assert.Equal(t, bound.ID, got.ID, "expected affinity-bound worker to be returned first")
}

func TestAcquireWaitsThenSucceedsWhenAtCapacity(t *testing.T) {
	// Registered first so it runs last, after the children are killed.
	t.Cleanup(func() { goleak.VerifyNone(t) })
	m := newTestManager(t, testConfig(0, 1))
	lp := m.pools[testLanguage]

	lp.mu.Lock()
	busy := newWorker(testLanguage, spawnTestChild(t))
	busy.available = false
	lp.workers[busy.ID] = busy
	lp.mu.Unlock()

	go func() {
		time.Sleep(50 * time.Millisecond)
		m.Release(testLanguage, busy, "")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := m.Acquire(ctx, testLanguage, "")
	require.NoError(t, err)
	assert.Equal(t, busy.ID, got.ID, "expected the released worker to be handed back")
}

func TestAcquireOnUnknownLanguageFails(t *testing.T) {
	defer goleak.VerifyNone(t)
	m := newTestManager(t, testConfig(0, 1))
	_, err := m.Acquire(context.Background(), "cobol", "")
	assert.Error(t, err, "expected an error for an unconfigured language")
}

// TestAcquireNeverExceedsMaxSizeUnderConcurrency guards spec §8 property 1
// ("the number of InterpreterWorkers in pool(L) is <= maxProcesses(L)")
// against the race where two concurrent Acquire calls both observe spare
// capacity before either has inserted its worker into lp.workers.
func TestAcquireNeverExceedsMaxSizeUnderConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)
	const maxSize = 3
	m := newTestManager(t, testConfig(0, maxSize))
	lp := m.pools[testLanguage]

	const concurrent = 8
	results := make(chan *Worker, concurrent)
	for i := 0; i < concurrent; i++ {
		go func() {
			w, err := m.Acquire(context.Background(), testLanguage, "")
			if err != nil {
				results <- nil
				return
			}
			results <- w
		}()
	}

	seen := make(map[string]bool)
	for i := 0; i < concurrent; i++ {
		w := <-results
		require.NotNil(t, w)
		seen[w.ID] = true
	}
	assert.LessOrEqual(t, lp.size(), maxSize, "pool size must never exceed MaxSize")
	assert.LessOrEqual(t, len(seen), maxSize, "must not hand out more distinct workers than MaxSize")
}
