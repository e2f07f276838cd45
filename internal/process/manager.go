package process

import (
	"net/http"
	"sync"

	sberrors "sandboxd/internal/errors"

	"github.com/google/uuid"
)

// ErrProcessExists is returned by StartBackground when the caller supplies
// a process id already registered (spec §4.4 "Background").
var ErrProcessExists = sberrors.New(sberrors.KindConflict, "PROCESS_EXISTS", http.StatusConflict, "process_start", "a process with this id already exists")

// Manager is the process registry (spec §4.4, §5 "Process registry (C4)").
type Manager struct {
	mu       sync.Mutex
	records  map[string]*ProcessRecord
	denyList []string
	logCap   int
}

// NewManager builds a registry using denyList for the safety filter
// (spec §4.4 "Safety filter").
func NewManager(denyList []string) *Manager {
	return &Manager{
		records:  make(map[string]*ProcessRecord),
		denyList: denyList,
		logCap:   DefaultLogCapBytes,
	}
}

func (m *Manager) register(id, command, sessionID string) (*ProcessRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	} else if existing, ok := m.records[id]; ok && !existing.Status().IsTerminal() {
		return nil, ErrProcessExists
	}
	r := &ProcessRecord{
		ID:          id,
		Command:     command,
		SessionID:   sessionID,
		status:      StatusStarting,
		stdout:      newCappedBuffer(m.logCap),
		stderr:      newCappedBuffer(m.logCap),
		subscribers: make(map[string]chan Event),
	}
	m.records[id] = r
	return r, nil
}

// Get returns the record for id, or ok=false.
func (m *Manager) Get(id string) (*ProcessRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	return r, ok
}

// List returns a snapshot of every record (spec §6 "/api/process/list").
func (m *Manager) List() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Snapshot, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.Snapshot())
	}
	return out
}

// Subscribe registers a live subscriber for id's output events, returning
// a channel and an unsubscribe function (spec §4.4 "Log accumulation").
// ok is false if id is unknown. If the command has already finished, the
// channel holds only its command_complete event and is already closed.
func (m *Manager) Subscribe(id string) (<-chan Event, func(), bool) {
	m.mu.Lock()
	r, ok := m.records[id]
	m.mu.Unlock()
	if !ok {
		return nil, nil, false
	}

	r.mu.Lock()
	if r.endedAt != nil {
		exitCode := *r.exitCode
		success := r.status == StatusCompleted
		evt := Event{Type: "command_complete", Timestamp: *r.endedAt, ExitCode: &exitCode, Success: &success, Stdout: r.stdout.String(), Stderr: r.stderr.String()}
		r.mu.Unlock()
		done := make(chan Event, 1)
		done <- evt
		close(done)
		return done, func() {}, true
	}
	subID := uuid.NewString()
	ch := make(chan Event, 64)
	r.subscribers[subID] = ch
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if sub, ok := r.subscribers[subID]; ok {
			delete(r.subscribers, subID)
			close(sub)
		}
		r.mu.Unlock()
	}
	return ch, cancel, true
}

func (r *ProcessRecord) publish(evt Event) {
	r.mu.Lock()
	subs := make([]chan Event, 0, len(r.subscribers))
	for _, ch := range r.subscribers {
		subs = append(subs, ch)
	}
	r.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
			// subscriber too slow; drop rather than block the command
		}
	}
}

func (r *ProcessRecord) closeSubscribers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ch := range r.subscribers {
		delete(r.subscribers, id)
		close(ch)
	}
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
}
