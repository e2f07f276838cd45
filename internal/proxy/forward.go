package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"strconv"
	"strings"
	"time"

	sberrors "sandboxd/internal/errors"
	"sandboxd/internal/guard"
	"sandboxd/internal/logging"

	"github.com/gorilla/websocket"
)

// Router dispatches inbound proxy requests — both the subdomain form and
// the direct "/proxy/{port}/*" form — to the loopback service on the
// requested port (spec §4.5). Only the subdomain form checks the port's
// registration and token; the direct form forwards to any valid port.
type Router struct {
	registry      *Registry
	sandboxID     string
	domain        string
	reservedPorts []int

	upgrader websocket.Upgrader
	dialer   *websocket.Dialer
}

// NewRouter builds a Router over registry for the given sandbox identity
// and base domain.
func NewRouter(registry *Registry, sandboxID, domain string, reservedPorts []int) *Router {
	return &Router{
		registry:      registry,
		sandboxID:     sandboxID,
		domain:        domain,
		reservedPorts: reservedPorts,
		upgrader:      websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		dialer:        &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// isUpgradeRequest reports whether r asks to switch protocols (spec §4.5
// step 5: "header Upgrade: websocket, case-insensitive").
func isUpgradeRequest(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// ServeSubdomain handles a request routed by Host header in subdomain
// form (spec §4.5 "Subdomain routing").
func (rt *Router) ServeSubdomain(w http.ResponseWriter, r *http.Request) {
	route, ok := ParseSubdomainHost(r.Host)
	if !ok {
		logging.EmitSecurityEvent(logging.SecurityEvent{
			Type: logging.SecurityMalformedSubdomain,
			Host: r.Host,
			Path: r.URL.Path,
		})
		sberrors.WriteHTTP(w, sberrors.New(sberrors.KindValidation, "MALFORMED_SUBDOMAIN", http.StatusBadRequest, "proxy_route", "subdomain host is malformed"))
		return
	}

	if err := guard.ValidatePort("proxy_route", route.Port, rt.reservedPorts); err != nil {
		logging.EmitSecurityEvent(logging.SecurityEvent{Type: logging.SecurityInvalidPort, Host: r.Host, Path: r.URL.Path})
		sberrors.WriteHTTP(w, err)
		return
	}
	if err := guard.ValidateSandboxIdentity("proxy_route", route.SandboxID); err != nil {
		logging.EmitSecurityEvent(logging.SecurityEvent{Type: logging.SecurityInvalidIdentity, Host: r.Host, Path: r.URL.Path})
		sberrors.WriteHTTP(w, err)
		return
	}

	registered, ok := rt.registry.Lookup(route.Port)
	if !ok || registered.Token != route.Token {
		logging.EmitSecurityEvent(logging.SecurityEvent{
			Type: logging.SecurityInvalidToken, Host: r.Host, Path: r.URL.Path,
			Detail: fmt.Sprintf("port=%d", route.Port),
		})
		sberrors.WriteHTTP(w, sberrors.New(sberrors.KindNotFound, "INVALID_TOKEN", http.StatusNotFound, "proxy_route", "token does not match the current registration for this port"))
		return
	}

	rt.forward(w, r, route.Port, r.URL.Path)
}

// ServeDirectPath handles "/proxy/{port}/*" requests (spec §6). The
// "/proxy/{port}" prefix is stripped before forwarding, so the upstream
// service sees only the path beneath it.
func (rt *Router) ServeDirectPath(w http.ResponseWriter, r *http.Request, port int) {
	if err := guard.ValidatePort("proxy_direct", port, rt.reservedPorts); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}

	prefix := "/proxy/" + strconv.Itoa(port)
	upstreamPath := strings.TrimPrefix(r.URL.Path, prefix)
	if upstreamPath == "" {
		upstreamPath = "/"
	}
	rt.forward(w, r, port, upstreamPath)
}

func (rt *Router) forward(w http.ResponseWriter, r *http.Request, port int, path string) {
	if isUpgradeRequest(r) {
		rt.forwardUpgrade(w, r, port, path)
		return
	}

	target := BuildLoopbackURL(port, path, r.URL.RawQuery)
	proxy := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL.Scheme = target.Scheme
			req.URL.Host = target.Host
			req.URL.Path = target.Path
			req.URL.RawQuery = target.RawQuery
			req.Host = target.Host

			req.Header.Set("X-Original-URL", r.URL.String())
			req.Header.Set("X-Forwarded-Host", r.Host)
			req.Header.Set("X-Forwarded-Proto", schemeOf(r))
			req.Header.Set("X-Sandbox-Name", rt.sandboxID)
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			sberrors.WriteHTTP(w, sberrors.MapPortError("proxy_forward", err))
		},
	}
	proxy.ServeHTTP(w, r)
}

func schemeOf(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
