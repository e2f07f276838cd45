// Package proxy implements the port registry and proxy router (spec
// §4.5, C5): registration of internal ports with opaque tokens,
// subdomain-based route extraction, and transparent loopback forwarding
// including protocol upgrades.
//
// Grounded on the teacher's go.mod dependency surface rather than any
// single teacher file — the teacher has no reverse proxy of its own, so
// this package is new logic built from the wider corpus's idiom:
// net/http/httputil.ReverseProxy for plain requests (the standard-library
// way every Go reverse proxy in the ecosystem is built) and
// github.com/gorilla/websocket (a teacher indirect dependency, promoted
// here to direct use) for the protocol-upgrade path, since ReverseProxy
// alone cannot hijack and pump a WebSocket connection.
package proxy

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	sberrors "sandboxd/internal/errors"
	"sandboxd/internal/guard"
)

// ExposedPort is an internal TCP port made reachable through the control
// plane (spec §3).
type ExposedPort struct {
	Port      int       `json:"port"`
	Name      string    `json:"name,omitempty"`
	Token     string    `json:"token"`
	ExposedAt time.Time `json:"exposedAt"`
}

// Registry owns every ExposedPort under a single serialized map (spec §5
// "Port registry (C5): a single serialized map").
type Registry struct {
	mu            sync.Mutex
	ports         map[int]*ExposedPort
	reservedPorts []int
}

// NewRegistry builds an empty registry. reservedPorts additionally
// excludes ports beyond the base [1024,65535] range guard.ValidatePort
// enforces (spec §3 "excluding a small reserved set including the
// control-plane port itself").
func NewRegistry(reservedPorts []int) *Registry {
	return &Registry{
		ports:         make(map[int]*ExposedPort),
		reservedPorts: reservedPorts,
	}
}

func generateToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Expose registers port under an optional friendly name, returning its
// opaque token (spec §4.5 "Registry"). Rejects ports outside the valid
// range, reserved ports, and duplicate registrations.
func (r *Registry) Expose(port int, name string) (*ExposedPort, error) {
	if err := guard.ValidatePort("expose_port", port, r.reservedPorts); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ports[port]; exists {
		return nil, sberrors.New(sberrors.KindConflict, "PORT_ALREADY_EXPOSED", http.StatusConflict, "expose_port", "port is already exposed")
	}

	token, err := generateToken()
	if err != nil {
		return nil, sberrors.New(sberrors.KindInternal, "TOKEN_GENERATION_FAILED", http.StatusInternalServerError, "expose_port", "failed to generate a registration token").WithCause(err)
	}

	entry := &ExposedPort{Port: port, Name: name, Token: token, ExposedAt: time.Now()}
	r.ports[port] = entry
	return entry, nil
}

// Unexpose removes port's registration, if any.
func (r *Registry) Unexpose(port int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ports[port]; !ok {
		return sberrors.New(sberrors.KindNotFound, "PORT_NOT_EXPOSED", http.StatusNotFound, "unexpose_port", "port is not exposed")
	}
	delete(r.ports, port)
	return nil
}

// List returns every current registration.
func (r *Registry) List() []ExposedPort {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ExposedPort, 0, len(r.ports))
	for _, e := range r.ports {
		out = append(out, *e)
	}
	return out
}

// Lookup returns the registration for port, if any.
func (r *Registry) Lookup(port int) (ExposedPort, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.ports[port]
	if !ok {
		return ExposedPort{}, false
	}
	return *e, true
}
