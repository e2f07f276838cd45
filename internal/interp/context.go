// Package interp implements the interpreter service (spec §4.3, C3): the
// mapping from an opaque ExecutionContext identifier to a language and
// working directory, and the execute operation that drives the process
// pool manager and streams results back as server-sent events.
//
// Grounded on the teacher's session/context bookkeeping style (a plain
// mutex-guarded map, create/list/delete operations) seen across its
// shard and campaign managers, adapted to the narrower ExecutionContext
// shape spec §3 defines.
package interp

import (
	"sync"
	"time"

	"sandboxd/internal/config"

	"github.com/google/uuid"
)

// ExecutionContext identifies a logical workspace for code execution
// (spec §3). Language is immutable after creation.
type ExecutionContext struct {
	ID         string          `json:"id"`
	Language   config.Language `json:"language"`
	WorkingDir string          `json:"cwd"`
	CreatedAt  time.Time       `json:"createdAt"`
	LastUsedAt time.Time       `json:"lastUsedAt"`
}

// ContextStore owns every live ExecutionContext (spec §4.3 "create, list,
// delete").
type ContextStore struct {
	mu       sync.Mutex
	contexts map[string]*ExecutionContext
}

// NewContextStore returns an empty store.
func NewContextStore() *ContextStore {
	return &ContextStore{contexts: make(map[string]*ExecutionContext)}
}

// Create allocates a fresh ExecutionContext for language rooted at
// workingDir. Per spec §8 property 6, repeated create/delete/create
// cycles always yield a fresh identifier.
func (s *ContextStore) Create(language config.Language, workingDir string) *ExecutionContext {
	now := time.Now()
	ctx := &ExecutionContext{
		ID:         uuid.NewString(),
		Language:   language,
		WorkingDir: workingDir,
		CreatedAt:  now,
		LastUsedAt: now,
	}
	s.mu.Lock()
	s.contexts[ctx.ID] = ctx
	s.mu.Unlock()
	return ctx
}

// Get returns the context for id, or ok=false if none exists.
func (s *ContextStore) Get(id string) (*ExecutionContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, ok := s.contexts[id]
	return ctx, ok
}

// List returns every live context.
func (s *ContextStore) List() []*ExecutionContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ExecutionContext, 0, len(s.contexts))
	for _, ctx := range s.contexts {
		out = append(out, ctx)
	}
	return out
}

// Delete removes a context, reporting whether it existed.
func (s *ContextStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contexts[id]; !ok {
		return false
	}
	delete(s.contexts, id)
	return true
}

// touch updates LastUsedAt, called on each execution (spec §3 "mutated
// only by updating last-used on each execution").
func (s *ContextStore) touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx, ok := s.contexts[id]; ok {
		ctx.LastUsedAt = time.Now()
	}
}
